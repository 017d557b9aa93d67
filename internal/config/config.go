// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	OSM       OSMConfig       `yaml:"osm" mapstructure:"osm"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Validator ValidatorConfig `yaml:"validator" mapstructure:"validator"`
	Reports   ReportsConfig   `yaml:"reports" mapstructure:"reports"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OSMConfig holds the feature service endpoint and credentials.
type OSMConfig struct {
	APIURL    string  `yaml:"api_url" mapstructure:"api_url"`
	Token     string  `yaml:"token" mapstructure:"token"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// OverpassConfig holds the subdivision feature source endpoint.
type OverpassConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// ValidatorConfig configures validation rule tables.
type ValidatorConfig struct {
	// RulesFile optionally overrides the compiled-in rule tables.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// ReportsConfig configures report output.
type ReportsConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// UploadConfig configures the changeset upload layer.
type UploadConfig struct {
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
	DryRun      bool `yaml:"dry_run" mapstructure:"dry_run"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the report browser.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PHONEREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("osm.api_url", "https://api.openstreetmap.org")
	v.SetDefault("osm.rate_limit", 1.0)
	v.SetDefault("overpass.url", "https://overpass-api.de")
	v.SetDefault("reports.dir", "reports")
	v.SetDefault("upload.concurrency", 4)
	v.SetDefault("store.path", "phone-report.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
