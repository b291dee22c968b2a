package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from TEST_DB_* variables.
// If any of them is missing an empty Config is returned so tests can skip themselves.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")

	portStr := os.Getenv("TEST_DB_PORT")
	if cfg.Database.Host == "" || portStr == "" || cfg.Database.User == "" || cfg.Database.DBName == "" {
		return &Config{}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = port

	return cfg, nil
}

// HasDatabase reports whether a database connection is configured
func (c *Config) HasDatabase() bool {
	return c.Database.Host != "" && c.Database.Port != 0
}
