package wbem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/testutil"
	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

func TestConnect_Defaults(t *testing.T) {
	p, _, svc := setup(t)

	assert.True(t, svc.Valid())
	assert.Equal(t, DefaultNamespace, svc.Namespace())

	sec, ok := p.Security()
	require.True(t, ok)
	assert.Equal(t, core.AuthLevelDefault, sec.Authentication)
	assert.Equal(t, core.ImpLevelImpersonate, sec.Impersonation)

	proxy, ok := fixture.ProxySecurity(svc.ref.svc)
	require.True(t, ok)
	assert.Equal(t, core.AuthLevelCall, proxy.ProxyAuthentication)
	assert.Equal(t, core.ImpLevelImpersonate, proxy.Impersonation)

	assert.Zero(t, p.Stats().Locators, "locator released after connect")
}

func TestConnect_Failures(t *testing.T) {
	tests := []struct {
		name      string
		op        string
		namespace string
		status    core.Status
	}{
		{name: "security", op: fixture.OpInitializeSecurity, status: core.StatusAccessDenied},
		{name: "locator", op: fixture.OpNewLocator, status: core.StatusFailed},
		{name: "connect", op: fixture.OpConnectServer, status: core.StatusWbemAccessDenied},
		{name: "proxy", op: fixture.OpSetProxyBlanket, status: core.StatusAccessDenied},
		{name: "unknown namespace", namespace: `ROOT\NOWHERE`, status: core.StatusInvalidNamespace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixture.New(fixture.Default(), nil)
			sess, err := Initialize(p, testutil.NewTestLogger(t))
			require.NoError(t, err)

			if tt.op != "" {
				p.Faults.Set(tt.op, tt.status)
			}
			svc, err := Connect(sess, tt.namespace)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.True(t, errors.Is(err, ErrConnectFailure))
			assert.Equal(t, tt.status, StatusOf(err))

			sess.Close()
			assert.Zero(t, p.Stats().Live(), "nothing leaks from a failed connect")
			assert.False(t, p.Initialized())
		})
	}
}

func TestConnect_ClosedSession(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	sess, err := Initialize(p, nil)
	require.NoError(t, err)
	sess.Close()

	_, err = Connect(sess, "")
	assert.True(t, errors.Is(err, ErrPointerNull))

	_, err = Connect(nil, "")
	assert.True(t, errors.Is(err, ErrPointerNull))
}

func TestConnect_SecurityAppliedOnce(t *testing.T) {
	p, sess, _ := setup(t)
	logger, logs := testutil.NewCaptureLogger(t)

	other, err := Connect(sess, `ROOT\WMI`, WithLogger(logger), WithSecurity(core.Security{
		Authentication:      core.AuthLevelPktPrivacy,
		Impersonation:       core.ImpLevelIdentify,
		ProxyAuthentication: core.AuthLevelPktPrivacy,
	}))
	require.NoError(t, err)
	defer other.Release()

	sec, ok := p.Security()
	require.True(t, ok)
	assert.Equal(t, core.AuthLevelDefault, sec.Authentication, "process policy keeps the first connection's")
	assert.True(t, logs.Contains("connected"))

	proxy, ok := fixture.ProxySecurity(other.ref.svc)
	require.True(t, ok)
	assert.Equal(t, core.AuthLevelPktPrivacy, proxy.ProxyAuthentication, "call-level policy is per connection")
	assert.Equal(t, core.AuthLevelPktPrivacy, other.Security().ProxyAuthentication)
}

func TestClassNames(t *testing.T) {
	_, _, svc := setup(t)

	filtered, err := svc.ClassNames("Win32_Logical%")
	require.NoError(t, err)
	assert.True(t, filtered.Has("Win32_LogicalDisk"))
	for name := range filtered {
		assert.True(t, fixture.Like(name, "Win32_Logical%"), "%s outside the pattern", name)
	}
	assert.Equal(t, []string{"Win32_LogicalDisk", "Win32_LogicalDiskToPartition", "Win32_LogicalProgramGroup"}, filtered.Sorted())

	all, err := svc.ClassNames("")
	require.NoError(t, err)
	for name := range filtered {
		assert.True(t, all.Has(name), "unfiltered result misses %s", name)
	}
	assert.Greater(t, len(all), len(filtered))

	none, err := svc.ClassNames("Nothing_%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClassNames_QuoteInFilter(t *testing.T) {
	_, _, svc := setup(t)

	names, err := svc.ClassNames("O'Brien%")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestClassNames_Failures(t *testing.T) {
	tests := []struct {
		name  string
		fault func(*fixture.Provider)
		kind  error
	}{
		{
			name:  "query",
			fault: func(p *fixture.Provider) { p.Faults.Set(fixture.OpExecQuery, core.StatusInvalidQuery) },
			kind:  ErrQueryFailure,
		},
		{
			name:  "row fetch midway",
			fault: func(p *fixture.Provider) { p.Faults.SetAfter(fixture.OpQueryNext, 2, core.StatusFailed) },
			kind:  ErrQueryFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, svc := setup(t)
			tt.fault(p)

			names, err := svc.ClassNames("")
			require.Error(t, err)
			assert.Nil(t, names, "partial results are discarded")
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, 1, p.Stats().Live(), "only the service handle stays live")
		})
	}
}

func TestClassNames_SkipsUnnamedRows(t *testing.T) {
	p, _, svc := setup(t)
	p.Faults.SetFor(fixture.OpGet, core.PropClass, core.StatusFailed)

	names, err := svc.ClassNames("Win32_Logical%")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestInstances(t *testing.T) {
	_, _, svc := setup(t)

	deviceIDs := func(objs []*Object) []string {
		var ids []string
		for _, o := range objs {
			id, err := o.Value("DeviceID")
			require.NoError(t, err)
			ids = append(ids, id)
		}
		return ids
	}

	first, err := svc.Instances("Win32_LogicalDisk")
	require.NoError(t, err)
	second, err := svc.Instances("Win32_LogicalDisk")
	require.NoError(t, err)

	assert.Equal(t, []string{"C:", "D:", "G:"}, deviceIDs(first))
	assert.Equal(t, deviceIDs(first), deviceIDs(second))

	ReleaseAll(first)
	for _, o := range first {
		assert.False(t, o.Valid())
	}
	assert.Equal(t, []string{"C:", "D:", "G:"}, deviceIDs(second), "second set is independent of the first")
	ReleaseAll(second)
}

func TestInstances_Empty(t *testing.T) {
	_, _, svc := setup(t)

	objs, err := svc.Instances("Win32_Environment")
	require.NoError(t, err)
	assert.NotNil(t, objs)
	assert.Empty(t, objs)
}

func TestInstances_Failures(t *testing.T) {
	t.Run("unknown class", func(t *testing.T) {
		_, _, svc := setup(t)
		_, err := svc.Instances("Win32_Nothing")
		assert.True(t, errors.Is(err, ErrQueryFailure))
		assert.Equal(t, core.StatusInvalidClass, StatusOf(err))
	})

	t.Run("fetch failure releases gathered", func(t *testing.T) {
		p, _, svc := setup(t)
		p.Faults.SetAfter(fixture.OpInstanceNext, 2, core.StatusDisconnected)

		objs, err := svc.Instances("Win32_LogicalDisk")
		require.Error(t, err)
		assert.Nil(t, objs)
		assert.True(t, errors.Is(err, ErrQueryFailure))
		assert.Zero(t, p.Stats().Records)
		assert.Zero(t, p.Stats().Cursors)
	})
}

func TestObject(t *testing.T) {
	_, _, svc := setup(t)

	disk := object(t, svc, `Win32_LogicalDisk.DeviceID="C:"`)
	class, err := disk.ClassName()
	require.NoError(t, err)
	assert.Equal(t, "Win32_LogicalDisk", class)

	def := object(t, svc, "Win32_LogicalDisk")
	rel, err := def.RelPath()
	require.NoError(t, err)
	assert.Equal(t, "Win32_LogicalDisk", rel)
}

func TestObject_Failures(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		fault  core.Status
		kind   error
		status core.Status
	}{
		{name: "missing class", path: "Win32_Nothing", kind: ErrNotFound, status: core.StatusNotFound},
		{name: "missing instance", path: `Win32_LogicalDisk.DeviceID="Q:"`, kind: ErrNotFound, status: core.StatusNotFound},
		{name: "bad path", path: "Win32_LogicalDisk.DeviceID", kind: ErrNotFound, status: core.StatusInvalidObjectPath},
		{name: "denied", path: "Win32_LogicalDisk", fault: core.StatusWbemAccessDenied, kind: ErrAccessFailure, status: core.StatusWbemAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, svc := setup(t)
			if tt.fault != core.StatusOK {
				p.Faults.Set(fixture.OpGetObject, tt.fault)
			}
			obj, err := svc.Object(tt.path)
			require.Error(t, err)
			assert.Nil(t, obj)
			assert.True(t, errors.Is(err, tt.kind))
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestServices_Released(t *testing.T) {
	p, sess, svc := setup(t)

	conn, err := Connect(sess, `ROOT\WMI`)
	require.NoError(t, err)
	conn.Release()
	conn.Release()
	assert.False(t, conn.Valid())

	_, err = conn.ClassNames("")
	assert.True(t, errors.Is(err, ErrPointerNull))
	_, err = conn.Instances("MSAcpi_ThermalZoneTemperature")
	assert.True(t, errors.Is(err, ErrPointerNull))
	_, err = conn.Object("MSAcpi_ThermalZoneTemperature")
	assert.True(t, errors.Is(err, ErrPointerNull))

	assert.True(t, svc.Valid())
	assert.Equal(t, 1, p.Stats().Services)
}
