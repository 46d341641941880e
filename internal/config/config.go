package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Log      LogConfig
	Storage  StorageConfig
	Admin    AdminConfig
	Password PasswordConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	PrivateKeyPath    string
	PublicKeyPath     string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// EmailConfig selects how brokers are notified of inquiries.
// Provider is one of resend, relay or none.
type EmailConfig struct {
	Provider     string
	APIKey       string
	FromEmail    string
	FromName     string
	RelayURL     string
	DashboardURL string
	Timeout      time.Duration
}

type LogConfig struct {
	Level       string
	ServiceName string
}

// StorageConfig selects the system of record: postgres or memory
type StorageConfig struct {
	Driver string
}

// AdminConfig seeds a platform admin at startup when both fields are set
type AdminConfig struct {
	Email    string
	Password string
}

// PasswordConfig holds the argon2id cost for newly stored hashes. Raising it
// upgrades existing hashes as their owners log in.
type PasswordConfig struct {
	MemoryKiB   int
	Iterations  int
	Parallelism int
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	EmailProviderResend = "resend"
	EmailProviderRelay  = "relay"
	EmailProviderNone   = "none"
)

func Load() (*Config, error) {
	// .env is optional in production
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "realty"),
			Password: getEnv("DB_PASSWORD", "realty"),
			DBName:   getEnv("DB_NAME", "realtydb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxOpen:  getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdle:  getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			PrivateKeyPath:    getEnv("JWT_PRIVATE_KEY_PATH", "./keys/private.pem"),
			PublicKeyPath:     getEnv("JWT_PUBLIC_KEY_PATH", "./keys/public.pem"),
			AccessTokenExpiry: getDurationEnv("JWT_ACCESS_EXPIRY", 15*time.Minute),
			Issuer:            getEnv("JWT_ISSUER", "realty-core"),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderNone)),
			APIKey:       getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("EMAIL_FROM", "no-reply@example.com"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Realty"),
			RelayURL:     getEnv("EMAIL_RELAY_URL", ""),
			DashboardURL: getEnv("DASHBOARD_URL", "http://localhost:3000"),
			Timeout:      getDurationEnv("EMAIL_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			ServiceName: getEnv("SERVICE_NAME", "realty-core"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Password: PasswordConfig{
			MemoryKiB:   getIntEnv("ARGON2_MEMORY_KIB", 64*1024),
			Iterations:  getIntEnv("ARGON2_ITERATIONS", 3),
			Parallelism: getIntEnv("ARGON2_PARALLELISM", 2),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Email.Provider {
	case EmailProviderNone:
	case EmailProviderResend:
		if c.Email.APIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case EmailProviderRelay:
		if c.Email.RelayURL == "" {
			return fmt.Errorf("EMAIL_RELAY_URL is required when EMAIL_PROVIDER=relay")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}

	if c.Password.MemoryKiB <= 0 || c.Password.Iterations <= 0 || c.Password.Parallelism <= 0 || c.Password.Parallelism > 255 {
		return fmt.Errorf("ARGON2_* settings must be positive (parallelism at most 255)")
	}

	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
