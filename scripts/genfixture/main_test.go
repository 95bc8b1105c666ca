package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

func TestKeyNames(t *testing.T) {
	tests := []struct {
		rel  string
		want map[string]bool
	}{
		{`Win32_Service.Name="Spooler"`, map[string]bool{"Name": true}},
		{`Win32_Environment.Name="Path",UserName="<SYSTEM>"`, map[string]bool{"Name": true, "UserName": true}},
		{`Demo.A="x,y=z",B=3`, map[string]bool{"A": true, "B": true}},
		{`Demo.A="say \"hi\"",B=TRUE`, map[string]bool{"A": true, "B": true}},
		{`Win32_OperatingSystem=@`, map[string]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, keyNames(tt.rel))
		})
	}
}

func TestMethodSpec(t *testing.T) {
	ms := methodSpec(wbem.MethodDef{Name: "Create", In: []string{"CommandLine"}, Out: []string{"ProcessId", "ReturnValue"}})
	assert.Equal(t, "Create", ms.Name)
	assert.Equal(t, []fixture.ParamSpec{{Name: "CommandLine", Type: "string"}}, ms.In)
	assert.Equal(t, fixture.ParamSpec{Name: "ReturnValue", Type: "uint32"}, ms.Out[1])
	assert.Equal(t, map[string]any{"ReturnValue": 0}, ms.Returns)
	assert.False(t, ms.Void)

	assert.True(t, methodSpec(wbem.MethodDef{Name: "Flush"}).Void)
}

func TestSnapshotClass_RoundTrip(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	session, err := wbem.Initialize(p, nil)
	require.NoError(t, err)
	defer session.Close()
	svc, err := wbem.Connect(session, "")
	require.NoError(t, err)
	defer svc.Release()

	cs, err := snapshotClass(svc, "Win32_Service", 1)
	require.NoError(t, err)

	assert.Equal(t, "Win32_BaseService", cs.Superclass)
	require.Len(t, cs.Instances, 1)
	assert.Equal(t, "Spooler", cs.Instances[0].Values["Name"])

	var nameProp fixture.PropertySpec
	for _, ps := range cs.Properties {
		if ps.Name == "Name" {
			nameProp = ps
		}
	}
	assert.True(t, nameProp.Key)
	assert.Equal(t, "string", nameProp.Type)

	data, err := encode(fixture.File{Namespaces: []fixture.NamespaceSpec{{Name: `ROOT\CIMV2`, Classes: []fixture.ClassSpec{cs}}}})
	require.NoError(t, err)
	_, err = fixture.Parse(data)
	require.NoError(t, err)
}
