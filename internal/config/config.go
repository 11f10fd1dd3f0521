package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ylingtech/updatewatch/internal/branding"
	"github.com/ylingtech/updatewatch/internal/platform"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by the CLI.
const (
	KeyEndpoint        = "endpoint"
	KeyInterval        = "interval"
	KeyDebounce        = "debounce"
	KeyVisibleDebounce = "visible_debounce"
	KeyMinDisplay      = "min_display"
	KeySnoozeTTL       = "snooze_ttl"
	KeyHTTPTimeout     = "http_timeout"
	KeyStoreBackend    = "store.backend"
	KeyStorePath       = "store.path"
	KeyReloadCommand   = "reload_command"
	KeyPushURL         = "push_url"
	KeyProbeInterval   = "probe_interval"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// Keys lists every known key in display order.
var Keys = []string{
	KeyEndpoint, KeyInterval, KeyDebounce, KeyVisibleDebounce, KeyMinDisplay,
	KeySnoozeTTL, KeyHTTPTimeout, KeyStoreBackend, KeyStorePath,
	KeyReloadCommand, KeyPushURL, KeyProbeInterval, KeyLogLevel, KeyLogFormat,
}

// Settings is the resolved configuration.
type Settings struct {
	Endpoint        string
	Interval        time.Duration
	Debounce        time.Duration
	VisibleDebounce time.Duration
	MinDisplay      time.Duration
	SnoozeTTL       time.Duration
	HTTPTimeout     time.Duration
	StoreBackend    string
	StorePath       string
	ReloadCommand   string
	PushURL         string
	ProbeInterval   time.Duration
	LogLevel        string
	LogFormat       string
}

// Dir returns the config directory. UPDATEWATCH_HOME overrides the default
// of ~/.updatewatch.
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory with owner-only permissions.
func EnsureDir() error {
	dir := Dir()
	if err := platform.EnsureSecureDir(dir); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault(KeyEndpoint, branding.DefaultEndpoint())
	viper.SetDefault(KeyInterval, "5m")
	viper.SetDefault(KeyDebounce, "1s")
	viper.SetDefault(KeyVisibleDebounce, "2s")
	viper.SetDefault(KeyMinDisplay, "2s")
	viper.SetDefault(KeySnoozeTTL, "60m")
	viper.SetDefault(KeyHTTPTimeout, "10s")
	viper.SetDefault(KeyStoreBackend, "file")
	viper.SetDefault(KeyStorePath, "")
	viper.SetDefault(KeyReloadCommand, "")
	viper.SetDefault(KeyPushURL, "")
	viper.SetDefault(KeyProbeInterval, "15s")
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "text")
}

// Init points viper at the config file and environment. It does not fail
// when the config file is missing.
func Init() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Load resolves the current settings. Init must have been called.
func Load() (Settings, error) {
	s := Settings{
		Endpoint:      viper.GetString(KeyEndpoint),
		StoreBackend:  viper.GetString(KeyStoreBackend),
		StorePath:     viper.GetString(KeyStorePath),
		ReloadCommand: viper.GetString(KeyReloadCommand),
		PushURL:       viper.GetString(KeyPushURL),
		LogLevel:      viper.GetString(KeyLogLevel),
		LogFormat:     viper.GetString(KeyLogFormat),
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{KeyInterval, &s.Interval},
		{KeyDebounce, &s.Debounce},
		{KeyVisibleDebounce, &s.VisibleDebounce},
		{KeyMinDisplay, &s.MinDisplay},
		{KeySnoozeTTL, &s.SnoozeTTL},
		{KeyHTTPTimeout, &s.HTTPTimeout},
		{KeyProbeInterval, &s.ProbeInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(viper.GetString(d.key))
		if err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v < 0 {
			return Settings{}, fmt.Errorf("invalid %s: must not be negative", d.key)
		}
		*d.dst = v
	}
	if s.Endpoint == "" {
		return Settings{}, fmt.Errorf("%s is not set", KeyEndpoint)
	}
	if s.StorePath == "" {
		s.StorePath = filepath.Join(Dir(), "state")
	}
	return s, nil
}

// IsKnown reports whether key is a recognised setting.
func IsKnown(key string) bool {
	return slices.Contains(Keys, key)
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.OpenFile(configFile, os.O_CREATE|os.O_WRONLY, platform.FilePermSecure)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
