package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./data/airwave.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Equal(t, 8*time.Hour, cfg.Schedule.BlockDuration)
	assert.Equal(t, 3, cfg.Schedule.HorizonBlocks)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.RetentionWindow)
	assert.Equal(t, 2*time.Minute, cfg.Schedule.InterstitialFill)
	assert.Equal(t, time.Duration(0), cfg.Schedule.ProgramBreak)
	assert.True(t, cfg.Schedule.AutoRegenerate)
	assert.Equal(t, time.Hour, cfg.Schedule.AutoRegenerateInterval)
	assert.Equal(t, 4, cfg.Schedule.MaxConcurrent)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AIRWAVE_SERVER_PORT", "9090")
	t.Setenv("AIRWAVE_SCHEDULE_HORIZONBLOCKS", "6")
	t.Setenv("AIRWAVE_SCHEDULE_BLOCKDURATION", "4h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Schedule.HorizonBlocks)
	assert.Equal(t, 4*time.Hour, cfg.Schedule.BlockDuration)
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"block duration too short", func(c *Config) { c.Schedule.BlockDuration = time.Second }},
		{"zero horizon", func(c *Config) { c.Schedule.HorizonBlocks = 0 }},
		{"negative retention", func(c *Config) { c.Schedule.RetentionWindow = -time.Hour }},
		{"zero interstitial", func(c *Config) { c.Schedule.InterstitialFill = 0 }},
		{"zero regen interval", func(c *Config) { c.Schedule.AutoRegenerateInterval = 0 }},
		{"zero concurrency", func(c *Config) { c.Schedule.MaxConcurrent = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
