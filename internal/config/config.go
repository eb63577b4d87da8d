// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/db"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	YouTube   YouTubeConfig
	Discovery DiscoveryConfig
	Refresh   RefreshConfig
	RabbitMQ  RabbitMQConfig
	Logging   LoggingConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	APIKeys         []string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig configures the channel cache and the refresh queue.
// An empty URL disables both.
type RedisConfig struct {
	URL        string
	ChannelTTL time.Duration
}

// YouTubeConfig contains Data API credentials and quota limits.
type YouTubeConfig struct {
	APIKey            string
	DailyQuota        int
	QuotaThreshold    int
	RequestsPerSecond float64
}

// DiscoveryConfig tunes the search pipeline.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DiscoveryConfig struct {
	Workers                 int
	CallTimeout             time.Duration
	MaxResults              int
	PromisingQuery          string
	PromisingMaxSubscribers int64
}

// RefreshConfig controls background re-fetching of stored channels.
type RefreshConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	BatchSize   int
	Concurrency int
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host     string
	User     string
	Password string
	Exchange string
	Port     int
	Enabled  bool
}

// URL returns the AMQP connection URL.
func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Password, c.Host, c.Port)
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables, APP_DATABASE_HOST -> database.host
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the binaries cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.YouTube.APIKey == "" {
		errs = append(errs, errors.New("youtube.apikey is required"))
	}
	if c.Discovery.Workers < 1 || c.Discovery.Workers > discovery.MaxWorkers {
		errs = append(errs, fmt.Errorf("discovery.workers must be between 1 and %d, got %d", discovery.MaxWorkers, c.Discovery.Workers))
	}
	if c.Discovery.MaxResults < 1 {
		errs = append(errs, fmt.Errorf("discovery.maxresults must be positive, got %d", c.Discovery.MaxResults))
	}
	if c.YouTube.QuotaThreshold < 1 || c.YouTube.QuotaThreshold > 100 {
		errs = append(errs, fmt.Errorf("youtube.quotathreshold must be between 1 and 100, got %d", c.YouTube.QuotaThreshold))
	}
	if c.Refresh.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("refresh.concurrency must be positive, got %d", c.Refresh.Concurrency))
	}

	return errors.Join(errs...)
}

// DBConfig converts the database section into a pool configuration.
func (c *Config) DBConfig() *db.Config {
	return &db.Config{
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		MaxConns:        int32(c.Database.MaxConnections),
		MinConns:        int32(c.Database.MinConnections),
		MaxConnLifetime: c.Database.MaxLifetime,
		MaxConnIdleTime: c.Database.MaxIdleTime,
	}
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.apikeys", []string{})

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "opportunity_finder")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.channelttl", 15*time.Minute)

	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.dailyquota", 10000)
	viper.SetDefault("youtube.quotathreshold", 90)
	viper.SetDefault("youtube.requestspersecond", 5.0)

	// Discovery
	viper.SetDefault("discovery.workers", discovery.DefaultWorkers)
	viper.SetDefault("discovery.calltimeout", discovery.DefaultCallTimeout)
	viper.SetDefault("discovery.maxresults", discovery.DefaultMaxResults)
	viper.SetDefault("discovery.promisingquery", "youtube strategy")
	viper.SetDefault("discovery.promisingmaxsubscribers", 100000)

	// Refresh
	viper.SetDefault("refresh.interval", 6*time.Hour)
	viper.SetDefault("refresh.staleafter", 24*time.Hour)
	viper.SetDefault("refresh.batchsize", 500)
	viper.SetDefault("refresh.concurrency", 2)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "opportunities")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
