package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	AuthModeRemote = "remote"
	AuthModeHash   = "hash"
)

type Config struct {
	HTTP    HTTPConfig
	Log     LogConfig
	API     APIConfig
	Auth    AuthConfig
	Session SessionConfig
}

type HTTPConfig struct {
	Port string `env:"NOTEPAD_PORT" env-default:"8080"`
	// TrustProxy honors X-Forwarded-For when running behind a reverse proxy.
	TrustProxy bool `env:"NOTEPAD_TRUST_PROXY" env-default:"false"`
}

type LogConfig struct {
	Level  string `env:"NOTEPAD_LOG_LEVEL" env-default:"info"`
	Format string `env:"NOTEPAD_LOG_FORMAT" env-default:"text"`
}

type APIConfig struct {
	BaseURL string `env:"NOTEPAD_API_BASE_URL" env-default:"http://localhost:3000"`
	// MutationURL receives create, edit and delete calls. Empty means BaseURL.
	MutationURL string        `env:"NOTEPAD_API_MUTATION_URL" env-default:""`
	Timeout     time.Duration `env:"NOTEPAD_API_TIMEOUT" env-default:"10s"`
}

type AuthConfig struct {
	Mode        string `env:"NOTEPAD_AUTH_MODE" env-default:"remote"`
	PasskeyHash string `env:"NOTEPAD_PASSKEY_HASH" env-default:""`
}

type SessionConfig struct {
	DBPath       string        `env:"NOTEPAD_DB_PATH" env-default:"notepad.db"`
	TTL          time.Duration `env:"NOTEPAD_SESSION_TTL" env-default:"168h"`
	SecureCookie bool          `env:"NOTEPAD_SECURE_COOKIE" env-default:"false"`
}

// Load reads optional dotenv files, then the environment. Variables already
// set in the environment win over dotenv values.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Auth.Mode = strings.ToLower(strings.TrimSpace(c.Auth.Mode))
	switch c.Auth.Mode {
	case AuthModeRemote:
	case AuthModeHash:
		if strings.TrimSpace(c.Auth.PasskeyHash) == "" {
			return errors.New("NOTEPAD_PASSKEY_HASH is required when NOTEPAD_AUTH_MODE=hash")
		}
	default:
		return fmt.Errorf("NOTEPAD_AUTH_MODE must be %q or %q, got %q", AuthModeRemote, AuthModeHash, c.Auth.Mode)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("NOTEPAD_API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("NOTEPAD_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Usage describes every supported variable.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return desc
}
