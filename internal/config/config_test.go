package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/chainfsm/internal/config"
)

type sampleConfig struct {
	Name  string `env:"CHAINFSM_TEST_NAME" envDefault:"fallback"`
	Size  int    `env:"CHAINFSM_TEST_SIZE" envDefault:"10"`
	Debug bool   `env:"CHAINFSM_TEST_DEBUG"`
}

type requiredConfig struct {
	Value string `env:"CHAINFSM_TEST_REQUIRED,required"`
}

func TestLoad(t *testing.T) {
	config.ResetCache()
	t.Setenv("CHAINFSM_TEST_NAME", "custom")
	t.Setenv("CHAINFSM_TEST_DEBUG", "true")

	var cfg sampleConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "custom", cfg.Name)
	assert.Equal(t, 10, cfg.Size)
	assert.True(t, cfg.Debug)

	t.Setenv("CHAINFSM_TEST_NAME", "changed")
	var cached sampleConfig
	require.NoError(t, config.Load(&cached))
	assert.Equal(t, "custom", cached.Name, "second load must come from the cache")

	config.ResetCache()
	var fresh sampleConfig
	require.NoError(t, config.Load(&fresh))
	assert.Equal(t, "changed", fresh.Name)
}

func TestLoadErrors(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	assert.ErrorIs(t, config.Load[sampleConfig](nil), config.ErrNilPointer)
}
