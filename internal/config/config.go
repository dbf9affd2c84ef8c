// Package config loads the settings of both executables from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ServerConfig holds the settings of the snapshot backend (cmd/server).
type ServerConfig struct {
	Port           int      `env:"PORT" envDefault:"5000"`
	DataDir        string   `env:"DATA_DIR" envDefault:"databases"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT" envDefault:"text"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Password hashing schemes accepted in FITNESS_PASSWORD_HASHING.
const (
	HashingPlain  = "plain"
	HashingBcrypt = "bcrypt"
)

// ClientConfig holds the settings of the terminal client (cmd/fitness).
type ClientConfig struct {
	APIURL          string `env:"FITNESS_API_URL" envDefault:"http://localhost:5000/api"`
	StorePath       string `env:"FITNESS_STORE_PATH"`
	PasswordHashing string `env:"FITNESS_PASSWORD_HASHING" envDefault:"plain"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
}

// LoadServer reads ServerConfig from the environment.
func LoadServer() (*ServerConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := ServerConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing server environment: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, errors.New("config: DATA_DIR must not be empty")
	}
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)

	return &cfg, nil
}

// LoadClient reads ClientConfig from the environment. An empty store path
// defaults to fitness-tracker/store.db under the user's config directory.
func LoadClient() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := ClientConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing client environment: %w", err)
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.PasswordHashing = strings.ToLower(strings.TrimSpace(cfg.PasswordHashing))
	switch cfg.PasswordHashing {
	case HashingPlain, HashingBcrypt:
	default:
		return nil, fmt.Errorf("config: FITNESS_PASSWORD_HASHING must be %q or %q, got %q",
			HashingPlain, HashingBcrypt, cfg.PasswordHashing)
	}

	if cfg.StorePath == "" {
		path, err := DefaultStorePath()
		if err != nil {
			return nil, err
		}
		cfg.StorePath = path
	}

	return &cfg, nil
}

// DefaultStorePath is where the client keeps its local store when
// FITNESS_STORE_PATH is unset.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locating user config directory: %w", err)
	}
	return filepath.Join(dir, "fitness-tracker", "store.db"), nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("config: loading .env file: %w", err)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
