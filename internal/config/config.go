package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application level configuration loaded from an optional YAML
// file and environment variables. Environment variables win over the file.
type Config struct {
	ServerPort  string `yaml:"server_port"`
	DBDriver    string `yaml:"db_driver"`
	MySQLDSN    string `yaml:"mysql_dsn"`
	SQLiteDSN   string `yaml:"sqlite_dsn"`
	MaxOpenConn int    `yaml:"max_open_conns"`
	MaxIdleConn int    `yaml:"max_idle_conns"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisDB     int    `yaml:"redis_db"`
	RedisPass   string `yaml:"redis_password"`
	SwaggerHost string `yaml:"swagger_host"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	OracleURL     string        `yaml:"oracle_url"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`

	OTPTTL          time.Duration `yaml:"otp_ttl"`
	MaxAuthAttempts int           `yaml:"max_auth_attempts"`
	AttemptWindow   time.Duration `yaml:"attempt_window"`

	CORSOrigins []string `yaml:"cors_origins"`
}

// Load builds Config from .env, CONFIG_FILE and the environment with sensible defaults.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		DBDriver:        "mysql",
		SQLiteDSN:       "file:events.db",
		MySQLDSN:        "user:password@tcp(localhost:3306)/events?charset=utf8mb4&parseTime=True&loc=UTC",
		MaxOpenConn:     25,
		MaxIdleConn:     5,
		RedisAddr:       "localhost:6379",
		JWTSecret:       "change-me",
		TokenTTL:        24 * time.Hour,
		OracleURL:       "http://127.0.0.1:5001/predict_feasibility",
		OracleTimeout:   3 * time.Second,
		OTPTTL:          10 * time.Minute,
		MaxAuthAttempts: 5,
		AttemptWindow:   15 * time.Minute,
		CORSOrigins:     []string{"*"},
	}
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.MySQLDSN = getEnv("MYSQL_DSN", c.MySQLDSN)
	c.SQLiteDSN = getEnv("SQLITE_DSN", c.SQLiteDSN)
	c.MaxOpenConn = getEnvInt("MYSQL_MAX_OPEN_CONNS", c.MaxOpenConn)
	c.MaxIdleConn = getEnvInt("MYSQL_MAX_IDLE_CONNS", c.MaxIdleConn)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPass = getEnv("REDIS_PASSWORD", c.RedisPass)
	c.SwaggerHost = getEnv("SWAGGER_HOST", c.SwaggerHost)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = getEnvDuration("TOKEN_TTL", c.TokenTTL)
	c.OracleURL = getEnv("ORACLE_URL", c.OracleURL)
	c.OracleTimeout = getEnvDuration("ORACLE_TIMEOUT", c.OracleTimeout)
	c.OTPTTL = getEnvDuration("OTP_TTL", c.OTPTTL)
	c.MaxAuthAttempts = getEnvInt("MAX_AUTH_ATTEMPTS", c.MaxAuthAttempts)
	c.AttemptWindow = getEnvDuration("AUTH_ATTEMPT_WINDOW", c.AttemptWindow)
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	// An unbounded oracle call would hold proposal creation hostage.
	if c.OracleTimeout <= 0 {
		return errors.New("ORACLE_TIMEOUT must be positive")
	}
	if c.OTPTTL <= 0 {
		return errors.New("OTP_TTL must be positive")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
