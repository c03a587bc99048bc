package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL     = "http://localhost:5001/api"
	defaultAddr       = ":5001"
	defaultUsersDSN   = "sqlite3://interprep.db"
	defaultEnvFile    = ".env"
	defaultTimeout    = 15 * time.Second
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

var ErrNoSecret = errors.New("JWT_SECRET is not set in environment")

type Config struct {
	// client
	APIURL      string
	HTTPTimeout time.Duration
	StorageDSN  string
	LogLevel    slog.Level

	// dev auth server
	Addr            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	UsersDSN        string
}

// Load reads the env file named by START (".env" when unset) and then the
// process environment. A missing default env file is not an error.
func Load() (*Config, error) {
	file := os.Getenv("START")
	if file == "" {
		file = defaultEnvFile
	}
	if err := godotenv.Load(file); err != nil {
		if file != defaultEnvFile || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file %s: %w", file, err)
		}
	}

	cfg := &Config{
		APIURL:     strings.TrimRight(getEnv("API_URL", defaultAPIURL), "/"),
		StorageDSN: os.Getenv("STORAGE_DSN"),
		Addr:       getEnv("ADDR", defaultAddr),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		UsersDSN:   getEnv("USERS_DSN", defaultUsersDSN),
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", defaultTimeout); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// RequireServer checks the settings only the dev auth server needs.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return ErrNoSecret
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL (%s) is shorter than ACCESS_TOKEN_TTL (%s)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
