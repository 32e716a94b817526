// Package config loads server settings from defaults, an optional YAML file, a .env file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Compiler Compiler `yaml:"compiler"`
	Analysis Analysis `yaml:"analysis"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Server struct {
	Addr           string        `yaml:"addr" validate:"required"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// Database is optional; without a URL the server keeps everything in memory.
type Database struct {
	URL string `yaml:"url"`
}

type Compiler struct {
	Mode           string `yaml:"mode" validate:"oneof=basic strict"`
	DefaultNetwork string `yaml:"default_network" validate:"oneof=devnet testnet mainnet"`
	CacheSize      int    `yaml:"cache_size" validate:"gte=0"`
}

// Analysis configures the Groq provider. Without an API key only heuristics are used.
type Analysis struct {
	GroqAPIKey  string        `yaml:"groq_api_key"`
	GroqBaseURL string        `yaml:"groq_base_url" validate:"omitempty,url"`
	GroqModel   string        `yaml:"groq_model"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":3000", RequestTimeout: 30 * time.Second},
		Compiler: Compiler{
			Mode:           "basic",
			DefaultNetwork: "devnet",
			CacheSize:      256,
		},
		Analysis: Analysis{
			GroqBaseURL: "https://api.groq.com/openai/v1",
			GroqModel:   "llama-3.1-70b-versatile",
			Timeout:     20 * time.Second,
		},
		Log:     Log{Level: "info"},
		Metrics: Metrics{Enabled: true, Namespace: "walletflow"},
	}
}

var validate = validator.New()

// Load builds the configuration. path names an optional YAML file; an empty path skips
// it. A .env file in the working directory is read if present and never overrides
// variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("WALLETFLOW_ADDR", &c.Server.Addr)
	str("DATABASE_URL", &c.Database.URL)
	str("COMPILER_MODE", &c.Compiler.Mode)
	str("DEFAULT_NETWORK", &c.Compiler.DefaultNetwork)
	str("GROQ_API_KEY", &c.Analysis.GroqAPIKey)
	str("GROQ_BASE_URL", &c.Analysis.GroqBaseURL)
	str("GROQ_MODEL", &c.Analysis.GroqModel)
	str("LOG_LEVEL", &c.Log.Level)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)

	var errs []error
	if v, ok := os.LookupEnv("COMPILER_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		errs = append(errs, envErr("COMPILER_CACHE_SIZE", err))
		c.Compiler.CacheSize = n
	}
	for key, dst := range map[string]*time.Duration{
		"ANALYSIS_TIMEOUT": &c.Analysis.Timeout,
		"REQUEST_TIMEOUT":  &c.Server.RequestTimeout,
	} {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			errs = append(errs, envErr(key, err))
			*dst = d
		}
	}
	for key, dst := range map[string]*bool{
		"LOG_DEVELOPMENT": &c.Log.Development,
		"METRICS_ENABLED": &c.Metrics.Enabled,
	} {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			errs = append(errs, envErr(key, err))
			*dst = b
		}
	}
	return errors.Join(errs...)
}

func envErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("config: %s: %w", key, err)
}

// Build creates the logger described by l.
func (l Log) Build() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}
