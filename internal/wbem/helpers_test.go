package wbem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/wbemctl/internal/testutil"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

// setup connects to ROOT\CIMV2 on a fresh fixture provider. On cleanup it
// releases the connection and session and checks that no released object
// was touched.
func setup(t *testing.T) (*fixture.Provider, *Session, *Services) {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	p := fixture.New(fixture.Default(), logger)

	sess, err := Initialize(p, logger)
	require.NoError(t, err)
	svc, err := Connect(sess, "")
	require.NoError(t, err)

	t.Cleanup(func() {
		svc.Release()
		sess.Close()
		assert.Zero(t, p.Stats().UseAfterRelease, "use after release")
		assert.False(t, p.Initialized(), "subsystem still initialized")
	})
	return p, sess, svc
}

// object fetches path and releases it on cleanup.
func object(t *testing.T, svc *Services, path string) *Object {
	t.Helper()
	obj, err := svc.Object(path)
	require.NoError(t, err)
	t.Cleanup(obj.Release)
	return obj
}
