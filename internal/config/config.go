package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Session  SessionConfig  `mapstructure:"session"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig selects and configures the history store backend.
type DatabaseConfig struct {
	// Backend is one of memory, postgres or sqlite.
	Backend string `mapstructure:"backend" validate:"required,oneof=memory postgres sqlite"`
	URL     string `mapstructure:"url"     validate:"required_if=Backend postgres"`
	Path    string `mapstructure:"path"    validate:"required_if=Backend sqlite"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	BCryptCost           int    `mapstructure:"bcrypt_cost"            validate:"required,gte=4,lte=31"`
}

// LLMConfig configures the separation analysis service.
type LLMConfig struct {
	// Provider is one of gemini, openai or canned. canned needs no network
	// access and is meant for local development.
	Provider      string `mapstructure:"provider"        validate:"required,oneof=gemini openai canned"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key"  validate:"required_if=Provider gemini"`
	GeminiBaseURL string `mapstructure:"gemini_base_url" validate:"omitempty,url"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"  validate:"required_if=Provider openai"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	ModelName     string `mapstructure:"model_name"      validate:"required"`
	// PromptTemplatePath overrides the built-in prompt when set.
	PromptTemplatePath string  `mapstructure:"prompt_template_path"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	Temperature        float64 `mapstructure:"temperature"     validate:"gte=0,lte=2"`
	MaxTokens          int     `mapstructure:"max_tokens"      validate:"required,gt=0"`
}

// SessionConfig tunes the per-user session controllers.
type SessionConfig struct {
	HistoryLoadConcurrency int `mapstructure:"history_load_concurrency" validate:"required,gt=0,lte=64"`
}
