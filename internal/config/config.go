// Package config loads vimango-mcp settings.
//
// Settings come from a JSON, YAML or TOML file (picked by extension), a
// .env file in the working directory, and VIMANGO_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vimango/vimango-mcp/internal/store"
)

var (
	ErrMissingKey = errors.New("missing required config key")
	ErrExists     = errors.New("config file already exists")
)

type Config struct {
	Vimango VimangoConfig `mapstructure:"vimango" yaml:"vimango"`
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`

	// Path is the file the config was read from, empty when none was found.
	Path string `mapstructure:"-" yaml:"-"`
}

type VimangoConfig struct {
	MainDB        string `mapstructure:"main_db" yaml:"main_db"`
	FTSDB         string `mapstructure:"fts_db" yaml:"fts_db"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms" yaml:"busy_timeout_ms"`
}

type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit" yaml:"default_limit"`
	MaxResults   int `mapstructure:"max_results" yaml:"max_results"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the settings used for keys absent from every source.
func Default() *Config {
	return &Config{
		Vimango: VimangoConfig{BusyTimeoutMS: 2000},
		Search:  SearchConfig{DefaultLimit: 5, MaxResults: 50},
		Server:  ServerConfig{Port: 7438},
		Log:     LogConfig{Level: "info"},
	}
}

// Seams for tests.
var (
	userHomeDir = os.UserHomeDir
	getwd       = os.Getwd
)

// DefaultPaths lists the config files tried when no --config is given.
func DefaultPaths() []string {
	var paths []string
	if cwd, err := getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "config.json"), filepath.Join(cwd, "config.yaml"))
	}
	if dir := userConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, "config.json"), filepath.Join(dir, "config.yaml"))
	}
	return paths
}

// UserConfigPath is where `config init` writes by default.
func UserConfigPath() string {
	if dir := userConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return "config.yaml"
}

func userConfigDir() string {
	home, err := userHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vimango-mcp")
}

// Load reads the config at path. With an empty path the DefaultPaths are
// tried in order; if none exists, only defaults and the environment apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VIMANGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The documented short names win over the automatic VIMANGO_VIMANGO_* ones.
	for key, env := range map[string]string{
		"vimango.main_db":         "VIMANGO_MAIN_DB",
		"vimango.fts_db":          "VIMANGO_FTS_DB",
		"vimango.busy_timeout_ms": "VIMANGO_BUSY_TIMEOUT_MS",
		"server.port":             "VIMANGO_PORT",
		"log.level":               "VIMANGO_LOG_LEVEL",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(expandHome(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Path = path
	cfg.Vimango.MainDB = expandHome(cfg.Vimango.MainDB)
	cfg.Vimango.FTSDB = expandHome(cfg.Vimango.FTSDB)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("vimango.main_db", "")
	v.SetDefault("vimango.fts_db", "")
	v.SetDefault("vimango.busy_timeout_ms", d.Vimango.BusyTimeoutMS)
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks the required keys and value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vimango.MainDB) == "" {
		return fmt.Errorf("%w: vimango.main_db (or VIMANGO_MAIN_DB)", ErrMissingKey)
	}
	if strings.TrimSpace(c.Vimango.FTSDB) == "" {
		return fmt.Errorf("%w: vimango.fts_db (or VIMANGO_FTS_DB)", ErrMissingKey)
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("config: search.default_limit must be between 1 and search.max_results")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// StoreConfig converts to the settings the data-access layer takes.
func (c *Config) StoreConfig() store.Config {
	sc := store.DefaultConfig()
	sc.MainDB = c.Vimango.MainDB
	sc.IndexDB = c.Vimango.FTSDB
	if c.Vimango.BusyTimeoutMS > 0 {
		sc.BusyTimeout = time.Duration(c.Vimango.BusyTimeoutMS) * time.Millisecond
	}
	sc.DefaultSearchLimit = c.Search.DefaultLimit
	sc.MaxSearchResults = c.Search.MaxResults
	return sc
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log.level %q", s)
}

// WriteDefault writes cfg as YAML to path. An existing file is left alone
// unless overwrite is set.
func WriteDefault(path string, cfg *Config, overwrite bool) error {
	path = expandHome(path)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if cfg == nil {
		cfg = Default()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	header := "# vimango-mcp configuration\n" +
		"# vimango.main_db and vimango.fts_db are required.\n"

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := userHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
