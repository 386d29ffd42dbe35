package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all runtime settings. Values come from the environment
// (optionally via .env), layered over the defaults below.
type Config struct {
	Port         string `koanf:"port"`
	MongoURI     string `koanf:"mongodb_uri"`
	DBName       string `koanf:"mongodb_db"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"` // "json" or "console"
	RateLimitRPM int    `koanf:"rate_limit_rpm"`
}

func defaultConfig() *Config {
	return &Config{
		Port:         "8080",
		MongoURI:     "mongodb://localhost:27017",
		DBName:       "livrarias",
		LogLevel:     "info",
		LogFormat:    "json",
		RateLimitRPM: 600,
	}
}

// Load builds the configuration with env vars taking precedence over defaults.
// PORT -> port, MONGODB_URI -> mongodb_uri, etc.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Empty env vars are skipped so they fall back to the defaults above.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.RateLimitRPM < 1 {
		cfg.RateLimitRPM = defaultConfig().RateLimitRPM
	}
	return cfg, nil
}
