package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	HTTPPort    string `envconfig:"http_port" default:"8080"`
	DatabaseURL string `envconfig:"database_url" required:"true"`

	JWTSecret          string `envconfig:"jwt_secret" required:"true"`
	JWTExpirationHours int    `envconfig:"jwt_expiration_hours" default:"24"`

	// 64 hex characters (32 bytes) for AES-256-GCM.
	EncryptionKeyHex string `envconfig:"encryption_key" required:"true"`

	AssistantAPIKey       string        `envconfig:"assistant_api_key" required:"true"`
	AssistantBaseURL      string        `envconfig:"assistant_base_url" default:"https://api.openai.com/v1"`
	AssistantPollInterval time.Duration `envconfig:"assistant_poll_interval" default:"1s"`
	AssistantRunTimeout   time.Duration `envconfig:"assistant_run_timeout" default:"120s"`

	EmailAPIKey  string `envconfig:"email_api_key"`
	EmailBaseURL string `envconfig:"email_base_url" default:"https://app.loops.so/api/v1"`

	LogLevel  string `envconfig:"log_level" default:"info"`
	LogPretty bool   `envconfig:"log_pretty" default:"false"`

	EncryptionKey   []byte        `ignored:"true"`
	TokenExpiration time.Duration `ignored:"true"`
}

// Load reads configuration from the environment, consulting a .env file first
// when one is present (development convenience; absence is not an error).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("supportline", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	key, err := hex.DecodeString(cfg.EncryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode ENCRYPTION_KEY from hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes (64 hex characters), got %d bytes", len(key))
	}
	cfg.EncryptionKey = key
	cfg.TokenExpiration = time.Duration(cfg.JWTExpirationHours) * time.Hour

	return &cfg, nil
}
