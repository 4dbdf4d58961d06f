// Package config handles configuration loading for commodityavg.
// It supports YAML config files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the pricing API used when nothing overrides it.
const DefaultBaseURL = "https://alpha-vantage-task-backend.azurewebsites.net"

// EnvBackendURL is the short environment override for the pricing API base URL.
const EnvBackendURL = "BACKEND_URL"

// Config represents the complete application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Chart   ChartConfig   `mapstructure:"chart"   yaml:"chart"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig points at the remote pricing service.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
}

// ServerConfig holds settings for the web shell.
type ServerConfig struct {
	Host        string        `mapstructure:"host"         yaml:"host"`
	Port        int           `mapstructure:"port"         yaml:"port"        validate:"min=1,max=65535"`
	CORSOrigins []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"  yaml:"session_ttl" validate:"min=1m"`
}

// ChartConfig holds default chart dimensions in pixels.
type ChartConfig struct {
	Width  int `mapstructure:"width"  yaml:"width"  validate:"min=200"`
	Height int `mapstructure:"height" yaml:"height" validate:"min=100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Addr returns host:port for the web shell.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.commodityavg/config.yaml
//  3. /etc/commodityavg/config.yaml
//
// A .env file in the working directory is loaded first; variables already set
// in the environment win. Format: COMMODITYAVG_<SECTION>_<KEY>.
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".commodityavg"))
	v.AddConfigPath("/etc/commodityavg")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return finish(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("COMMODITYAVG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.session_ttl", "30m")

	v.SetDefault("chart.width", 600)
	v.SetDefault("chart.height", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv applies the short BACKEND_URL override. The prefixed
// COMMODITYAVG_API_BASE_URL still takes precedence when both are set.
func overrideFromEnv(cfg *Config) {
	if os.Getenv("COMMODITYAVG_API_BASE_URL") != "" {
		return
	}
	if u := os.Getenv(EnvBackendURL); u != "" {
		cfg.API.BaseURL = u
	}
}

var validate = validator.New()

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	return nil
}

func loadDotEnv() {
	// Missing .env is the common case.
	_ = godotenv.Load()
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
