package ape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 10000, cfg.GetInt("vm.gc_interval"))
	assert.Equal(t, false, cfg.GetBool("vm.repl_mode"))
	assert.Equal(t, 2048, cfg.GetInt("vm.value_stack_size"))
	assert.Equal(t, 2048, cfg.GetInt("vm.this_stack_size"))
	assert.Equal(t, 2048, cfg.GetInt("vm.frame_stack_size"))
	assert.Equal(t, 2048, cfg.GetInt("vm.globals_size"))
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.SetBool("vm.repl_mode", true)
	require.True(t, cfg.GetBool("vm.repl_mode"))

	cfg.SetString("host.name", "test-host")
	require.Equal(t, "test-host", cfg.GetString("host.name"))

	cfg.SetInt("vm.gc_interval", 42)
	require.Equal(t, 42, cfg.GetInt("vm.gc_interval"))
}

func TestConfigPanicsOnTypeMismatch(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetString("vm.gc_interval") })
	assert.Panics(t, func() { cfg.GetBool("vm.gc_interval") })
}
