package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is wrapped by every error Load returns.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration read from the environment.
type Config struct {
	Port            string        `env:"PORT" validate:"required,number"`
	DBDriver        string        `env:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL" validate:"required_if=DBDriver postgres"`
	SQLitePath      string        `env:"SQLITE_PATH" validate:"required_if=DBDriver sqlite"`
	AnomalyStrategy string        `env:"ANOMALY_STRATEGY" validate:"oneof=isolation_forest zscore"`
	AnomalySeed     int64         `env:"ANOMALY_SEED"`
	SalesFetchLimit int           `env:"SALES_FETCH_LIMIT" validate:"gt=0,lte=100000"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" validate:"gt=0"`
	CORSOrigins     string        `env:"CORS_ORIGINS"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=trace debug info warn warning error fatal panic"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}()

// Load reads the configuration from the environment, applying defaults for
// everything except the database credentials.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		AnomalyStrategy: getEnv("ANOMALY_STRATEGY", "isolation_forest"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
	}

	var err error
	if cfg.AnomalySeed, err = strconv.ParseInt(getEnv("ANOMALY_SEED", "42"), 10, 64); err != nil {
		return nil, fmt.Errorf("%w: ANOMALY_SEED: %v", ErrInvalidConfig, err)
	}
	if cfg.SalesFetchLimit, err = strconv.Atoi(getEnv("SALES_FETCH_LIMIT", "500")); err != nil {
		return nil, fmt.Errorf("%w: SALES_FETCH_LIMIT: %v", ErrInvalidConfig, err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "60s")); err != nil {
		return nil, fmt.Errorf("%w: REQUEST_TIMEOUT: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags and reports offending settings by env name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// InsightsEnabled reports whether a Gemini key is configured.
func (c *Config) InsightsEnabled() bool {
	return c.GeminiAPIKey != ""
}

// AllowedOrigins returns CORS_ORIGINS as fiber's comma separated list.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
