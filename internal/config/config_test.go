package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zonesync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Remote.URL)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "records", cfg.Zone.Name)
	assert.Equal(t, "records-changes", cfg.Zone.SubscriptionID, "derived from the zone name")
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 5*time.Minute, cfg.Retry.MaxDelay)
	assert.Equal(t, "last-modified-wins", cfg.Conflict.Strategy)
	assert.True(t, cfg.Journal.Enabled)
	assert.True(t, cfg.Events.Push)
	assert.Equal(t, LogFormatAuto, cfg.Log.Format)
	assert.Equal(t, filepath.Join(DataDir(), "state.db"), cfg.State.Path)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
remote:
  url: https://sync.example.com
  timeout: 10s
zone:
  name: notes
  subscription_id: notes-sub
retry:
  base_delay: 2s
  max_delay: 1m
upload:
  max_batch: 100
events:
  throttle_rate: 5
  throttle_window: 1m
log:
  level: debug
  format: json
`)
	t.Setenv("ZONESYNC_UPLOAD_MAX_BATCH", "50")
	t.Setenv("ZONESYNC_CONFLICT_STRATEGY", "field-merge")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--zone", "tasks", "--log-level", "warn"}))

	v := viper.New()
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.Remote.URL)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "tasks", cfg.Zone.Name, "flag beats file")
	assert.Equal(t, "notes-sub", cfg.Zone.SubscriptionID)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, time.Minute, cfg.Retry.MaxDelay)
	assert.Equal(t, 50, cfg.Upload.MaxBatch, "env beats file")
	assert.Equal(t, "field-merge", cfg.Conflict.Strategy)
	assert.Equal(t, 5, cfg.Events.ThrottleRate)
	assert.Equal(t, time.Minute, cfg.Events.ThrottleWindow)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
remote:
  url: ftp://example.com
zone:
  name: "bad zone"
`)
	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote url must use http or https")
	assert.Contains(t, err.Error(), "zone name")
}

func validConfig() Config {
	return Config{
		Remote:   RemoteConfig{URL: "http://localhost:8080"},
		Zone:     ZoneConfig{Name: "notes", SubscriptionID: "notes-changes"},
		State:    StateConfig{Path: "state.db"},
		Journal:  JournalConfig{Enabled: true, Path: "journal.db"},
		Retry:    RetryConfig{BaseDelay: time.Second, MaxDelay: time.Minute},
		Conflict: ConflictConfig{Strategy: "client-wins"},
		Log:      LogConfig{Level: "info", Format: LogFormatAuto},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty state path", mutate: func(c *Config) { c.State.Path = "" }, wantErr: "state.path"},
		{name: "journal without path", mutate: func(c *Config) { c.Journal.Path = "" }, wantErr: "journal.path"},
		{name: "disabled journal without path", mutate: func(c *Config) { c.Journal = JournalConfig{} }},
		{name: "zero base delay", mutate: func(c *Config) { c.Retry.BaseDelay = 0 }, wantErr: "retry.base_delay"},
		{name: "max below base", mutate: func(c *Config) { c.Retry.MaxDelay = time.Millisecond }, wantErr: "retry.max_delay"},
		{name: "negative batch", mutate: func(c *Config) { c.Upload.MaxBatch = -1 }, wantErr: "upload.max_batch"},
		{name: "unknown strategy", mutate: func(c *Config) { c.Conflict.Strategy = "coin-flip" }, wantErr: "unknown conflict strategy"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "unknown log format"},
		{name: "bad subscription", mutate: func(c *Config) { c.Zone.SubscriptionID = "has space" }, wantErr: "subscription id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
