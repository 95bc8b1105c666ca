package elevation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequire_MatchesElevated(t *testing.T) {
	if Elevated() {
		require.NoError(t, Require())
		return
	}
	err := Require()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotElevated)
}
