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

func TestInitialize(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)

	sess, err := Initialize(p, testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.True(t, sess.Valid())
	assert.True(t, p.Initialized())
	assert.Same(t, p, sess.Subsystem())

	sess.Close()
	sess.Close()
	assert.False(t, sess.Valid())
	assert.False(t, p.Initialized())
	assert.Zero(t, p.Stats().UseAfterRelease)
}

func TestInitialize_Failure(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	p.Faults.Set(fixture.OpInitialize, core.StatusChangedMode)

	sess, err := Initialize(p, nil)
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, errors.Is(err, ErrConnectFailure))
	assert.Equal(t, core.StatusChangedMode, StatusOf(err))

	_, err = Initialize(nil, nil)
	assert.True(t, errors.Is(err, ErrPointerNull))
}

func TestTeardown_InOrder(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	sess, err := Initialize(p, nil)
	require.NoError(t, err)
	svc, err := Connect(sess, "")
	require.NoError(t, err)

	disks, err := svc.Instances("Win32_LogicalDisk")
	require.NoError(t, err)
	def, err := svc.Object("Win32_LogicalDisk")
	require.NoError(t, err)

	def.Release()
	ReleaseAll(disks)
	svc.Release()
	assert.True(t, p.Initialized())
	sess.Close()

	stats := p.Stats()
	assert.Zero(t, stats.UseAfterRelease)
	assert.Zero(t, stats.Live())
	assert.False(t, p.Initialized())
}

func TestTeardown_OutOfOrder(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	sess, err := Initialize(p, nil)
	require.NoError(t, err)
	svc, err := Connect(sess, "")
	require.NoError(t, err)
	disk, err := svc.Object(`Win32_LogicalDisk.DeviceID="C:"`)
	require.NoError(t, err)

	sess.Close()
	assert.False(t, sess.Valid(), "no new connections after Close")
	assert.True(t, sess.Active(), "connection keeps the subsystem alive")

	svc.Release()
	assert.True(t, p.Initialized(), "object keeps the service handle alive")

	name, err := disk.Value("DeviceID")
	require.NoError(t, err)
	assert.Equal(t, "C:", name)

	disk.Release()
	assert.False(t, sess.Active())
	assert.False(t, p.Initialized())

	stats := p.Stats()
	assert.Zero(t, stats.UseAfterRelease)
	assert.Zero(t, stats.Live())
}

func TestTeardown_MultipleConnections(t *testing.T) {
	p := fixture.New(fixture.Default(), nil)
	sess, err := Initialize(p, nil)
	require.NoError(t, err)

	cimv2, err := Connect(sess, `ROOT\CIMV2`)
	require.NoError(t, err)
	wmi, err := Connect(sess, `ROOT\WMI`)
	require.NoError(t, err)

	zones, err := wmi.Instances("MSAcpi_ThermalZoneTemperature")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	temp, err := zones[0].IntValue("CurrentTemperature")
	require.NoError(t, err)
	assert.Equal(t, int64(3132), temp)

	sess.Close()
	cimv2.Release()
	wmi.Release()
	assert.True(t, p.Initialized())
	ReleaseAll(zones)
	assert.False(t, p.Initialized())
	assert.Zero(t, p.Stats().UseAfterRelease)
}
