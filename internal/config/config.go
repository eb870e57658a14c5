package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	LogText = "text"
	LogJSON = "json"
)

const (
	appDir    = "fleet-carrier"
	fileName  = "config"
	fileType  = "toml"
	envPrefix = "FC"
)

type JournalConfig struct {
	Roots  []string `mapstructure:"roots"`
	Prefix string   `mapstructure:"prefix"`
}

type IngestConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StatusConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	CancelCooldown time.Duration `mapstructure:"cancel_cooldown"`
}

type OwnershipConfig struct {
	Grace time.Duration `mapstructure:"grace"`
}

type CacheConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Dir              string        `mapstructure:"dir"`
	SaveInterval     time.Duration `mapstructure:"save_interval"`
	CompactThreshold int           `mapstructure:"compact_threshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds runtime configuration. Values come from config.toml, FC_*
// env vars and CLI flags, in increasing precedence.
type Config struct {
	Journal   JournalConfig   `mapstructure:"journal"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Status    StatusConfig    `mapstructure:"status"`
	Ownership OwnershipConfig `mapstructure:"ownership"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`

	// File is the config file actually read, empty when none was found.
	File string `mapstructure:"-"`
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"journal-dir": "journal.roots",
	"cache-dir":   "cache.dir",
	"log-level":   "log.level",
}

// Load reads configuration into v. path selects an explicit config file,
// which must then exist; otherwise config.toml is looked up in Dir() and a
// missing file is fine. flags may be nil.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return Config{}, fmt.Errorf("bind flag %q: %w", name, err)
				}
			}
		}
		if noCache, err := flags.GetBool("no-cache"); err == nil && noCache {
			v.Set("cache.enabled", false)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w: %w", ErrInvalid, err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("journal.roots", DefaultJournalRoots())
	v.SetDefault("journal.prefix", "Journal")
	v.SetDefault("ingest.interval", 2*time.Second)
	v.SetDefault("status.interval", 250*time.Millisecond)
	v.SetDefault("status.cooldown", 4*time.Minute+50*time.Second)
	v.SetDefault("status.cancel_cooldown", time.Minute)
	v.SetDefault("ownership.grace", time.Hour)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", defaultCacheDir())
	v.SetDefault("cache.save_interval", time.Minute)
	v.SetDefault("cache.compact_threshold", 50_000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", LogText)
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Journal.Roots) == 0 {
		errs = append(errs, errors.New("journal.roots is empty"))
	}
	for key, d := range map[string]time.Duration{
		"ingest.interval":        c.Ingest.Interval,
		"status.interval":        c.Status.Interval,
		"status.cooldown":        c.Status.Cooldown,
		"status.cancel_cooldown": c.Status.CancelCooldown,
		"ownership.grace":        c.Ownership.Grace,
		"cache.save_interval":    c.Cache.SaveInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	if c.Cache.CompactThreshold < 0 {
		errs = append(errs, fmt.Errorf("cache.compact_threshold must not be negative, got %d", c.Cache.CompactThreshold))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is empty"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != LogText && c.Log.Format != LogJSON {
		errs = append(errs, fmt.Errorf("log.format %q is not text or json", c.Log.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Dir is the directory holding config.toml.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, appDir)
}

// DefaultJournalRoots returns where the game writes its journal on this
// platform: the Saved Games folder on Windows, the Proton prefix on Linux.
func DefaultJournalRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	savedGames := filepath.Join("Saved Games", "Frontier Developments", "Elite Dangerous")
	switch runtime.GOOS {
	case "windows":
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			home = profile
		}
		return []string{filepath.Join(home, savedGames)}
	case "linux":
		return []string{filepath.Join(home, ".local", "share", "Steam", "steamapps", "compatdata", "359320",
			"pfx", "drive_c", "users", "steamuser", savedGames)}
	default:
		return nil
	}
}
