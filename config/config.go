package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port          string
	MongoURL      string
	MongoDatabase string
	StoreDriver   string
	SecretKey     string
	ReadyTimeout  time.Duration
	OpTimeout     time.Duration
	LogLevel      string
	LogFormat     string
	CORSOrigins   []string
}

// LoadEnvFile loads a .env file when it exists. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("%s not found, using process environment", path)
		return nil
	} else if err != nil {
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from v, which should already have flags bound.
func Load(v *viper.Viper) *Config {
	v.SetDefault("PORT", "8000")
	v.SetDefault("MONGODB_URL", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "restaurant")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("READY_TIMEOUT", "10s")
	v.SetDefault("OP_TIMEOUT", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:9000")
	v.AutomaticEnv()

	return &Config{
		Port:          v.GetString("PORT"),
		MongoURL:      v.GetString("MONGODB_URL"),
		MongoDatabase: v.GetString("MONGODB_DATABASE"),
		StoreDriver:   strings.ToLower(v.GetString("STORE_DRIVER")),
		SecretKey:     v.GetString("SECRET_KEY"),
		ReadyTimeout:  v.GetDuration("READY_TIMEOUT"),
		OpTimeout:     v.GetDuration("OP_TIMEOUT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the loaded values can run a server.
func (c *Config) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("MONGODB_URL is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("READY_TIMEOUT must be positive")
	}
	if c.OpTimeout <= 0 {
		return fmt.Errorf("OP_TIMEOUT must be positive")
	}
	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number '%s': must be a number", port)
	}
	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port number %d is out of range: must be between 1 and 65535", portNum)
	}
	return nil
}
