// Package config loads inflect settings from defaults, a YAML config file
// and INFLECT_* environment variables through viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/polyglot-tools/inflect"
)

// Config is the complete inflect configuration.
type Config struct {
	Document DocumentConfig `mapstructure:"document"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Grid     GridConfig     `mapstructure:"grid"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DocumentConfig points at the language document.
type DocumentConfig struct {
	// Path is the YAML language document to load.
	Path string `mapstructure:"path"`
}

// EngineConfig tunes the declension engine.
type EngineConfig struct {
	// CacheSize bounds the generated-form cache (0 disables it)
	CacheSize int `mapstructure:"cache_size"`
	// RegexTimeoutMs bounds one regex match in milliseconds (0 = no limit)
	RegexTimeoutMs int `mapstructure:"regex_timeout_ms"`
}

// GridConfig controls whole-paradigm regeneration.
type GridConfig struct {
	// Concurrency is the number of cells declined in parallel
	Concurrency int `mapstructure:"concurrency"`
}

// StoreConfig locates the SQLite database holding overrides and
// suppression marks.
type StoreConfig struct {
	// Path is the database file; empty keeps edits in memory only
	Path string `mapstructure:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigins are the CORS origins allowed to call the API
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Watch reloads the document when the file changes
	Watch bool `mapstructure:"watch"`
}

// LoggingConfig controls zap.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Development switches to the human readable console encoder
	Development bool `mapstructure:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Document: DocumentConfig{
			Path: "language.yaml",
		},
		Engine: EngineConfig{
			CacheSize:      4096,
			RegexTimeoutMs: 1000,
		},
		Grid: GridConfig{
			Concurrency: 8,
		},
		Store: StoreConfig{
			Path: "",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			Watch:          false,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// RegexTimeout returns the regex timeout as a duration.
func (c *EngineConfig) RegexTimeout() time.Duration {
	return time.Duration(c.RegexTimeoutMs) * time.Millisecond
}

// EngineOptions turns the configuration into engine options.
func (c *Config) EngineOptions(logger *zap.Logger) []inflect.Option {
	return []inflect.Option{
		inflect.WithLogger(logger),
		inflect.WithCacheSize(c.Engine.CacheSize),
		inflect.WithRegexTimeout(c.Engine.RegexTimeout()),
		inflect.WithGridConcurrency(c.Grid.Concurrency),
	}
}

// SetDefaults registers the defaults with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("document.path", defaults.Document.Path)

	viper.SetDefault("engine.cache_size", defaults.Engine.CacheSize)
	viper.SetDefault("engine.regex_timeout_ms", defaults.Engine.RegexTimeoutMs)

	viper.SetDefault("grid.concurrency", defaults.Grid.Concurrency)

	viper.SetDefault("store.path", defaults.Store.Path)

	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.allowed_origins", defaults.Server.AllowedOrigins)
	viper.SetDefault("server.watch", defaults.Server.Watch)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.development", defaults.Logging.Development)
}

// Init points viper at cfgFile, or at config.yaml in the usual places when
// cfgFile is empty, and enables INFLECT_* environment overrides. A missing
// config file is not an error.
func Init(cfgFile string) {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("INFLECT")
	// INFLECT_SERVER_ADDR for server.addr
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the user's inflect config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "inflect")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inflect"
	}
	return filepath.Join(home, ".config", "inflect")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
