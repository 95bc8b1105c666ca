package provider

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/wbemctl/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownProviderError_Error(t *testing.T) {
	err := &UnknownProviderError{
		Type:      "snmp",
		Available: []string{"fixture", "ole"},
	}

	msg := err.Error()

	assert.NotEmpty(t, msg, "error message should not be empty")
	assert.Contains(t, msg, "snmp", "error should mention the unknown type")
	assert.Contains(t, msg, "fixture", "error should list available providers")
	assert.Contains(t, msg, "wbemctl.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_provider_internal", func(_ Config, _ *slog.Logger) (core.Subsystem, error) { return nil, nil })

	assert.True(t, IsRegistered("test_provider_internal"))

	factory, ok := Get("test_provider_internal")
	assert.True(t, ok)
	assert.NotNil(t, factory)
	assert.Contains(t, List(), "test_provider_internal")
}

func TestNew_EmptyType(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "provider type not specified", err.Error())
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(Config{Type: "does_not_exist"}, nil)
	require.Error(t, err)

	var unknown *UnknownProviderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "does_not_exist", unknown.Type)
}

func TestNew_PassesConfig(t *testing.T) {
	var got Config
	Register("test_provider_config", func(cfg Config, logger *slog.Logger) (core.Subsystem, error) {
		got = cfg
		assert.NotNil(t, logger, "factory should always receive a logger")
		return nil, nil
	})

	_, err := New(Config{Type: "test_provider_config", Fixture: "catalog.yaml"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "catalog.yaml", got.Fixture)
}
