package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

type Config struct {
	MySQLHost            string
	MySQLPort            int
	MySQLUser            string
	MySQLPassword        string
	MySQLDatabaseName    string
	MySQLMaxOpenConns    int
	MySQLMaxIdleConns    int
	MySQLConnMaxLifetime time.Duration
	MySQLConnMaxIdleTime time.Duration
	MySQLTimeout         time.Duration
	MySQLReadTimeout     time.Duration
	MySQLWriteTimeout    time.Duration

	HTTPHost string
	HTTPPort int
	LogLevel string

	RabbitMQHostName string
	RabbitMQExchange string

	MongoDBConnectionString string
	MongoDBDatabaseName     string
}

// LoadConfig reads the process configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables only")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only, applying defaults for unset keys.
func FromEnv() (*Config, error) {
	config := &Config{
		MySQLHost:               getEnv("MYSQL_HOSTNAME", "localhost"),
		MySQLUser:               getEnv("MYSQL_USER", "root"),
		MySQLPassword:           os.Getenv("MYSQL_PASSWORD"),
		MySQLDatabaseName:       getEnv("MYSQL_DB", "sample_db"),
		HTTPHost:                getEnv("HTTP_HOST", "0.0.0.0"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RabbitMQHostName:        os.Getenv("RABBITMQ_HOSTNAME"),
		RabbitMQExchange:        getEnv("RABBITMQ_EXCHANGE", "order_events"),
		MongoDBConnectionString: os.Getenv("MONGODB_CONNECTION_STRING"),
		MongoDBDatabaseName:     getEnv("MONGODB_DATABASE_NAME", "order-db"),
	}

	var err error
	if config.MySQLPort, err = getPort("MYSQL_PORT", 3306); err != nil {
		return nil, err
	}
	if config.HTTPPort, err = getPort("HTTP_PORT", 8000); err != nil {
		return nil, err
	}
	if config.MySQLMaxOpenConns, err = getPositiveInt("MYSQL_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}
	if config.MySQLMaxIdleConns, err = getNonNegativeInt("MYSQL_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"MYSQL_CONN_MAX_LIFETIME", 5 * time.Minute, &config.MySQLConnMaxLifetime},
		{"MYSQL_CONN_MAX_IDLE_TIME", 30 * time.Second, &config.MySQLConnMaxIdleTime},
		{"MYSQL_TIMEOUT", 5 * time.Second, &config.MySQLTimeout},
		{"MYSQL_READ_TIMEOUT", 30 * time.Second, &config.MySQLReadTimeout},
		{"MYSQL_WRITE_TIMEOUT", 30 * time.Second, &config.MySQLWriteTimeout},
	}
	for _, d := range durations {
		if *d.target, err = getDuration(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// MySQLConfig returns the driver configuration for the order database. ParseTime is
// always on so order_date scans into time.Time.
func (c *Config) MySQLConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = c.MySQLUser
	cfg.Passwd = c.MySQLPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.MySQLHost, strconv.Itoa(c.MySQLPort))
	cfg.DBName = c.MySQLDatabaseName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = c.MySQLTimeout
	cfg.ReadTimeout = c.MySQLReadTimeout
	cfg.WriteTimeout = c.MySQLWriteTimeout
	return cfg
}

func (c *Config) HTTPAddress() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQHostName != ""
}

func (c *Config) MongoDBEnabled() bool {
	return c.MongoDBConnectionString != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getPort(key string, fallback int) (int, error) {
	port, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s: port %d is out of range 1-65535", key, port)
	}
	return port, nil
}

func getPositiveInt(key string, fallback int) (int, error) {
	value, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s: must be greater than 0, got %d", key, value)
	}
	return value, nil
}

// getNonNegativeInt allows zero, which database/sql reads as "keep no idle connections".
func getNonNegativeInt(key string, fallback int) (int, error) {
	value, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %d", key, value)
	}
	return value, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return value, nil
}
