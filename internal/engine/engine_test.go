package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/testutil"
	"github.com/leapstack-labs/wbemctl/internal/wbem"
	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

// newTestEngine returns an engine over a fresh fixture provider with an
// in-memory history store.
func newTestEngine(t *testing.T) (*Engine, *fixture.Provider) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	p := fixture.New(fixture.Default(), logger)

	e, err := New(Config{Subsystem: p, HistoryPath: ":memory:", Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, e.Close())
		stats := p.Stats()
		assert.Zero(t, stats.UseAfterRelease, "use after release")
		assert.Zero(t, stats.Live(), "leaked provider objects")
		assert.False(t, p.Initialized())
	})
	return e, p
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Config{Provider: "fixture"})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, wbem.DefaultNamespace, e.Namespace())
	assert.False(t, e.HistoryEnabled())
	assert.Equal(t, core.DefaultSecurity(), e.security)

	_, err = e.History(10)
	assert.ErrorContains(t, err, "history is disabled")
	_, err = e.Invocation("abc")
	assert.ErrorContains(t, err, "history is disabled")
}

func TestNew_NoProvider(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "provider type not specified")
}

func TestEngine_LazyConnect(t *testing.T) {
	e, p := newTestEngine(t)

	assert.False(t, p.Initialized(), "connected before first use")
	_, err := e.Classes(ClassQuery{Filter: "Win32_Service"})
	require.NoError(t, err)
	assert.True(t, p.Initialized())
}

func TestEngine_UnknownProvider(t *testing.T) {
	e, err := New(Config{Provider: "nope"})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Classes(ClassQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create provider")
}

func TestEngine_RegistryFixture(t *testing.T) {
	e, err := New(Config{Provider: "fixture", Namespace: `ROOT\WMI`})
	require.NoError(t, err)
	defer e.Close()

	classes, err := e.Classes(ClassQuery{})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "MSAcpi_ThermalZoneTemperature", classes[0].Name)
}

func TestEngine_RegistryFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`namespaces:
  - name: ROOT\Lab
    classes:
      - name: Lab_Sensor
        properties:
          - { name: Name, type: string, key: true }
`), 0o600))

	e, err := New(Config{Provider: "fixture", Fixture: path, Namespace: `ROOT\Lab`})
	require.NoError(t, err)
	defer e.Close()

	classes, err := e.Classes(ClassQuery{})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Lab_Sensor", classes[0].Name)
}

func TestEngine_ConnectFailure(t *testing.T) {
	logger := testutil.NewTestLogger(t)
	p := fixture.New(fixture.Default(), logger)
	p.Faults.Set(fixture.OpConnectServer, core.StatusAccessDenied)

	e, err := New(Config{Subsystem: p, Logger: logger})
	require.NoError(t, err)

	_, err = e.Classes(ClassQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wbem.ErrConnectFailure)
	assert.False(t, p.Initialized(), "session left open after failed connect")
	require.NoError(t, e.Close())
}
