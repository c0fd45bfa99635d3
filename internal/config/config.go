package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendLexical = "lexical"
	BackendOpenAI  = "openai"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Model  ModelConfig  `mapstructure:"model"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Client ClientConfig `mapstructure:"client"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type ModelConfig struct {
	// Backend selects the answer engine: "lexical" or "openai"
	Backend string `mapstructure:"backend"`

	// LoadOnStart attempts to load the backend before serving
	LoadOnStart bool `mapstructure:"load_on_start"`
}

type OpenAIConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	APIEndpoint string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	APIVersion  string  `mapstructure:"api_version"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type StoreConfig struct {
	// Path of the SQLite database; ":memory:" keeps everything in process
	Path string `mapstructure:"path"`

	// SeedFile is an optional YAML file with extra examples
	SeedFile string `mapstructure:"seed_file"`

	// DefaultExample is served when /api/load_example gets no id
	DefaultExample string `mapstructure:"default_example"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("model.backend", BackendLexical)
	v.SetDefault("model.load_on_start", true)

	v.SetDefault("openai.provider", "openai")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.api_version", "2023-05-15")
	v.SetDefault("openai.max_tokens", 256)
	v.SetDefault("openai.temperature", 0.0)

	v.SetDefault("store.path", "qa.db")
	v.SetDefault("store.seed_file", "")
	v.SetDefault("store.default_example", "mars-2020")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("client.base_url", "http://localhost:5000")
	v.SetDefault("client.timeout", 30*time.Second)
}

// LoadConfig reads defaults, an optional YAML file and QA_* environment
// variables, in increasing order of precedence.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the bare OpenAI variable is honored as well
	if err := v.BindEnv("openai.api_key", "QA_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("configuration loaded successfully", "file", configFile, "backend", cfg.Model.Backend)
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}

	switch c.Model.Backend {
	case BackendLexical, BackendOpenAI:
	default:
		return fmt.Errorf("unknown model.backend %q", c.Model.Backend)
	}

	switch c.OpenAI.Provider {
	case "openai", "azure":
	default:
		return fmt.Errorf("unknown openai.provider %q", c.OpenAI.Provider)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}

	if c.Client.BaseURL == "" {
		return errors.New("client.base_url is required")
	}
	return nil
}

// Address is the listen address of the HTTP server.
func (s ServerConfig) Address() string {
	return s.Host + ":" + s.Port
}
