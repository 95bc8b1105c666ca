package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

func TestClasses(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"prefix", "Win32_Logical%", []string{"Win32_LogicalDisk", "Win32_LogicalDiskToPartition", "Win32_LogicalProgramGroup"}},
		{"exact", "Win32_Service", []string{"Win32_Service"}},
		{"no match", "Nothing%", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			classes, err := e.Classes(ClassQuery{Filter: tt.filter})
			require.NoError(t, err)

			names := make([]string, len(classes))
			for i, c := range classes {
				names[i] = c.Name
				assert.Nil(t, c.Properties)
				assert.Nil(t, c.Methods)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestClasses_WithDetail(t *testing.T) {
	e, _ := newTestEngine(t)

	classes, err := e.Classes(ClassQuery{Filter: "Win32_Service", WithProperties: true, WithMethods: true})
	require.NoError(t, err)
	require.Len(t, classes, 1)

	c := classes[0]
	assert.Equal(t, []string{"Name", "DisplayName", "State", "StartMode", "ProcessId", "AcceptStop"}, c.Properties)
	require.Len(t, c.Methods, 3)
	assert.Equal(t, wbem.MethodDef{Name: "ChangeStartMode", In: []string{"StartMode"}, Out: []string{"ReturnValue"}}, c.Methods[2])
}

func TestClasses_QueryFailure(t *testing.T) {
	e, p := newTestEngine(t)
	p.Faults.Set(fixture.OpExecQuery, core.StatusInvalidQuery)

	_, err := e.Classes(ClassQuery{})
	assert.ErrorIs(t, err, wbem.ErrQueryFailure)
}

func TestInstances(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.Instances("Win32_Service", []string{"Name", "State"})
	require.NoError(t, err)
	assert.Equal(t, []ObjectInfo{
		{
			Class:      "Win32_Service",
			Path:       `Win32_Service.Name="Spooler"`,
			Properties: []Property{{"Name", "Spooler"}, {"State", "Running"}},
		},
		{
			Class:      "Win32_Service",
			Path:       `Win32_Service.Name="W32Time"`,
			Properties: []Property{{"Name", "W32Time"}, {"State", "Stopped"}},
		},
	}, got)
}

func TestInstances_AllProperties(t *testing.T) {
	e, _ := newTestEngine(t)

	got, err := e.Instances("Win32_LogicalDisk", nil)
	require.NoError(t, err)
	require.Len(t, got, 3)

	d := got[1]
	assert.Equal(t, `Win32_LogicalDisk.DeviceID="D:"`, d.Path)
	require.Len(t, d.Properties, 11)
	assert.Equal(t, Property{"FileSystem", wbem.NullText}, d.Properties[4])
	assert.Equal(t, Property{"DriveType", "5"}, d.Properties[3])
}

func TestInstances_Errors(t *testing.T) {
	tests := []struct {
		name  string
		class string
		props []string
		want  error
	}{
		{"unknown class", "Win32_Nope", nil, wbem.ErrQueryFailure},
		{"unknown property", "Win32_Service", []string{"Bogus"}, wbem.ErrPropertyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			_, err := e.Instances(tt.class, tt.props)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDescribe(t *testing.T) {
	e, _ := newTestEngine(t)

	info, err := e.Describe(`Win32_Process.Handle="3120"`, []string{"Name", "ThreadCount"})
	require.NoError(t, err)
	assert.Equal(t, "Win32_Process", info.Class)
	assert.Equal(t, `Win32_Process.Handle="3120"`, info.Path)
	assert.Equal(t, []Property{{"Name", "spoolsv.exe"}, {"ThreadCount", "12"}}, info.Properties)
}

func TestDescribe_Class(t *testing.T) {
	e, _ := newTestEngine(t)

	info, err := e.Describe("Win32_Service", []string{"State"})
	require.NoError(t, err)
	assert.Equal(t, "Win32_Service", info.Path)
	assert.Equal(t, []Property{{"State", wbem.NullText}}, info.Properties)
}

func TestDescribe_NotFound(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Describe(`Win32_Service.Name="Nope"`, nil)
	assert.ErrorIs(t, err, wbem.ErrNotFound)
}

func TestMethods(t *testing.T) {
	e, _ := newTestEngine(t)

	methods, err := e.Methods("StdRegProv")
	require.NoError(t, err)
	assert.Equal(t, []wbem.MethodDef{
		{Name: "GetStringValue", In: []string{"hDefKey", "sSubKeyName", "sValueName"}, Out: []string{"sValue", "ReturnValue"}},
		{Name: "Flush", In: []string{}, Out: []string{}},
	}, methods)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   core.Variant
		want string
	}{
		{"scalar", core.UintValue(7), "7"},
		{"null", core.NullValue(), wbem.NullText},
		{"array", core.ArrayValue(core.StringValue("a"), core.IntValue(2)), "{a, 2}"},
		{"empty array", core.ArrayValue(), "{}"},
		{"nil object", core.ObjectValue(nil), wbem.NullText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
