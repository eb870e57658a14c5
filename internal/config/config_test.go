package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("HOME", dir)
	return dir
}

// requireDefaultRoots skips on platforms without a default journal location.
func requireDefaultRoots(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skip("no default journal root on " + runtime.GOOS)
	}
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("fc", pflag.ContinueOnError)
	flags.StringSlice("journal-dir", nil, "")
	flags.String("cache-dir", "", "")
	flags.Bool("no-cache", false, "")
	flags.String("log-level", "", "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	requireDefaultRoots(t)
	dir := isolate(t)

	cfg, err := Load(viper.New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, "Journal", cfg.Journal.Prefix)
	assert.Equal(t, 2*time.Second, cfg.Ingest.Interval)
	assert.Equal(t, 250*time.Millisecond, cfg.Status.Interval)
	assert.Equal(t, 4*time.Minute+50*time.Second, cfg.Status.Cooldown)
	assert.Equal(t, time.Minute, cfg.Status.CancelCooldown)
	assert.Equal(t, time.Hour, cfg.Ownership.Grace)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, filepath.Join(dir, "cache", "fleet-carrier"), cfg.Cache.Dir)
	assert.Equal(t, time.Minute, cfg.Cache.SaveInterval)
	assert.Equal(t, 50_000, cfg.Cache.CompactThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, LogText, cfg.Log.Format)
	assert.Empty(t, cfg.File)
	assert.Equal(t, DefaultJournalRoots(), cfg.Journal.Roots)
}

func TestDefaultJournalRootsOnLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux layout only")
	}
	t.Setenv("HOME", "/home/cmdr")

	roots := DefaultJournalRoots()
	require.Len(t, roots, 1)
	assert.Equal(t, "/home/cmdr/.local/share/Steam/steamapps/compatdata/359320/pfx/drive_c/users/steamuser/Saved Games/Frontier Developments/Elite Dangerous", roots[0])
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := isolate(t)
	configDir := filepath.Join(dir, "config", "fleet-carrier")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`
[journal]
roots = ["/games/journal", "/backup/journal"]

[status]
cooldown = "5m"

[cache]
compact_threshold = 10

[log]
format = "json"
`), 0o644))

	cfg, err := Load(viper.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/games/journal", "/backup/journal"}, cfg.Journal.Roots)
	assert.Equal(t, 5*time.Minute, cfg.Status.Cooldown)
	assert.Equal(t, 10, cfg.Cache.CompactThreshold)
	assert.Equal(t, LogJSON, cfg.Log.Format)
	assert.Equal(t, filepath.Join(configDir, "config.toml"), cfg.File)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(viper.New(), filepath.Join(dir, "nope.toml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fc.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n[ingest]\ninterval = \"5s\"\n"), 0o644))
	t.Setenv("FC_LOG_LEVEL", "error")
	t.Setenv("FC_INGEST_INTERVAL", "3s")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "debug", "--journal-dir", "/a", "--journal-dir", "/b", "--no-cache"}))

	cfg, err := Load(viper.New(), path, flags)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3*time.Second, cfg.Ingest.Interval)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Journal.Roots)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadUnchangedFlagsKeepDefaults(t *testing.T) {
	requireDefaultRoots(t)
	isolate(t)
	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(viper.New(), "", flags)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Journal:   JournalConfig{Roots: []string{"/j"}, Prefix: "Journal"},
			Ingest:    IngestConfig{Interval: time.Second},
			Status:    StatusConfig{Interval: time.Second, Cooldown: time.Minute, CancelCooldown: time.Minute},
			Ownership: OwnershipConfig{Grace: time.Hour},
			Cache:     CacheConfig{Enabled: true, Dir: "/c", SaveInterval: time.Minute},
			Log:       LogConfig{Level: "info", Format: LogText},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "no roots", mutate: func(c *Config) { c.Journal.Roots = nil }, want: "journal.roots"},
		{name: "zero interval", mutate: func(c *Config) { c.Ingest.Interval = 0 }, want: "ingest.interval"},
		{name: "negative threshold", mutate: func(c *Config) { c.Cache.CompactThreshold = -1 }, want: "compact_threshold"},
		{name: "cache without dir", mutate: func(c *Config) { c.Cache.Dir = "" }, want: "cache.dir"},
		{name: "unknown level", mutate: func(c *Config) { c.Log.Level = "loud" }, want: "log.level"},
		{name: "unknown format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	disabled := valid()
	disabled.Cache = CacheConfig{SaveInterval: time.Minute}
	assert.NoError(t, disabled.Validate())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("FC_LOG_FORMAT", "xml")

	_, err := Load(viper.New(), "", nil)
	assert.ErrorIs(t, err, ErrInvalid)
}
