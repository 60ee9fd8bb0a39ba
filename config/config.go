package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type ServerConfig struct {
	Port            string
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver  string
	DSN     string // "memory" or a file path for sqlite, a URL for postgres and mongo
	Name    string // mongo database name
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string // empty disables cross-instance fan-out
	Password string
	DB       int
	Channel  string
}

type RealtimeConfig struct {
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

type LogConfig struct {
	Level  string
	Format string
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Realtime RealtimeConfig
	Log      LogConfig
	Cors     CorsConfig
}

// LoadConfig reads configuration from an optional .env file, config.yaml and
// FORUM_* environment variables. configFile, when set, replaces the search paths.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithField("component", "Config").Warnf("Could not read .env file: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("../config") // For running from locations like tests
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading configuration file: %w", err)
		}
		logrus.WithField("component", "Config").Info("Configuration file not found. Using environment variables and defaults.")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_path", "/questions")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("database.name", "forum")
	v.SetDefault("database.timeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "forum:rooms")

	v.SetDefault("realtime.allowed_origins", []string{"*"})
	v.SetDefault("realtime.send_buffer", 16)
	v.SetDefault("realtime.write_timeout", 10*time.Second)
	v.SetDefault("realtime.pong_timeout", 60*time.Second)
	v.SetDefault("realtime.max_message_bytes", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate checks the values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres, DriverMongo:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.Timeout <= 0 {
		return errors.New("database.timeout must be positive")
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with '/', got %q", c.Server.BasePath)
	}
	if c.Realtime.SendBuffer <= 0 {
		return errors.New("realtime.send_buffer must be positive")
	}
	if c.Realtime.WriteTimeout <= 0 || c.Realtime.PongTimeout <= 0 {
		return errors.New("realtime timeouts must be positive")
	}
	return nil
}
