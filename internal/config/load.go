package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CLARITY_SERVER_PORT.
const EnvPrefix = "CLARITY"

var defaults = map[string]any{
	"server.port":                      8080,
	"server.log_level":                 "info",
	"server.shutdown_timeout_seconds":  10,
	"database.backend":                 "memory",
	"database.url":                     "",
	"database.path":                    "clarity.db",
	"auth.jwt_secret":                  "",
	"auth.token_lifetime_minutes":      60,
	"auth.bcrypt_cost":                 10,
	"llm.provider":                     "canned",
	"llm.gemini_api_key":               "",
	"llm.gemini_base_url":              "",
	"llm.openai_api_key":               "",
	"llm.openai_base_url":              "",
	"llm.model_name":                   "gemini-2.0-flash",
	"llm.prompt_template_path":         "",
	"llm.timeout_seconds":              60,
	"llm.temperature":                  0.7,
	"llm.max_tokens":                   1000,
	"session.history_load_concurrency": 8,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
