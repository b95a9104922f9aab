package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port          string
	AppEnv        string
	StoreBackend  string
	DBUrl         string
	DirectoryFile string
	EnableMetrics bool
	LogLevel      string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AppEnv:        normalizeEnv(getEnv("APP_ENV", "production")),
		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreMemory))),
		DBUrl:         getEnv("DB_URL", ""),
		DirectoryFile: getEnv("DIRECTORY_FILE", ""),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		LogLevel:      strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DBUrl == "" {
			return fmt.Errorf("DB_URL is required when STORE_BACKEND=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
