package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.True(t, cfg.Caller)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "console format",
			mutate: func(c *Config) { c.Format = "console" },
		},
		{
			name:   "stdout output",
			mutate: func(c *Config) { c.Output = "stdout" },
		},
		{
			name:   "empty stacktrace level allowed",
			mutate: func(c *Config) { c.StacktraceLevel = "" },
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Level = "verbose" },
			wantErr: "invalid level",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Format = "xml" },
			wantErr: "format must be",
		},
		{
			name:    "bad output",
			mutate:  func(c *Config) { c.Output = "syslog" },
			wantErr: "output must be",
		},
		{
			name:    "bad stacktrace level",
			mutate:  func(c *Config) { c.StacktraceLevel = "loud" },
			wantErr: "invalid stacktrace_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("creates logger from defaults", func(t *testing.T) {
		logger, err := New(NewDefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, logger)

		logger.Info("test entry")
		_ = Sync(logger)
	})

	t.Run("console format", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "console"
		cfg.Output = "stdout"

		logger, err := New(cfg)
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Level = "nope"

		logger, err := New(cfg)
		require.Error(t, err)
		assert.Nil(t, logger)
	})
}
