package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application level configuration loaded from environment variables
// and an optional .env file.
type Config struct {
	ServerPort          string        `mapstructure:"SERVER_PORT"`
	Env                 string        `mapstructure:"ENV"`
	DBDriver            string        `mapstructure:"DB_DRIVER"`
	DatabaseDSN         string        `mapstructure:"DATABASE_DSN"`
	RedisAddr           string        `mapstructure:"REDIS_ADDR"`
	RedisDB             int           `mapstructure:"REDIS_DB"`
	RedisPass           string        `mapstructure:"REDIS_PASSWORD"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL      time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RecordEncryptionKey string        `mapstructure:"RECORD_ENCRYPTION_KEY"`
	BcryptCost          int           `mapstructure:"BCRYPT_COST"`
	LoginRateLimit      int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow     time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
	SwaggerHost         string        `mapstructure:"SWAGGER_HOST"`
}

var keys = []string{
	"SERVER_PORT",
	"ENV",
	"DB_DRIVER",
	"DATABASE_DSN",
	"REDIS_ADDR",
	"REDIS_DB",
	"REDIS_PASSWORD",
	"JWT_SECRET",
	"ACCESS_TOKEN_TTL",
	"RECORD_ENCRYPTION_KEY",
	"BCRYPT_COST",
	"LOGIN_RATE_LIMIT",
	"LOGIN_RATE_WINDOW",
	"SWAGGER_HOST",
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "user:password@tcp(localhost:3306)/health?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ACCESS_TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_WINDOW", "15m")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the service runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EncryptionKey decodes RECORD_ENCRYPTION_KEY.
func (c *Config) EncryptionKey() ([]byte, error) {
	key, err := hex.DecodeString(c.RecordEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("RECORD_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("RECORD_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be \"mysql\", \"postgres\" or \"sqlite\", got %q", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}

	if c.RecordEncryptionKey == "" {
		return fmt.Errorf("RECORD_ENCRYPTION_KEY is required")
	}
	if _, err := c.EncryptionKey(); err != nil {
		return err
	}

	if c.IsProduction() && (c.BcryptCost < 10 || c.BcryptCost > 14) {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 14 in production, got %d", c.BcryptCost)
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}
	return nil
}
