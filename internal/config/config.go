// Package config loads application configuration from a YAML file, a local
// .env file, and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// EngineConfig holds transition engine tuning.
type EngineConfig struct {
	SideEffectTimeout time.Duration `mapstructure:"side_effect_timeout"`
	AuditEnabled      bool          `mapstructure:"audit_enabled"`
}

// JobsConfig holds the schedules and windows of the automatic transitions.
type JobsConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	ArchiveSchedule  string        `mapstructure:"archive_schedule"`
	ArchiveRetention time.Duration `mapstructure:"archive_retention"`
	CloseSchedule    string        `mapstructure:"close_schedule"`
	CloseDormancy    time.Duration `mapstructure:"close_dormancy"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from the given YAML file, overlaid with
// environment variables. A .env file next to the process, if present, is
// loaded first.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ORDERFLOW")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/orderflow.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("engine.side_effect_timeout", 5*time.Second)
	viper.SetDefault("engine.audit_enabled", true)

	viper.SetDefault("jobs.enabled", true)
	viper.SetDefault("jobs.archive_schedule", "@hourly")
	viper.SetDefault("jobs.archive_retention", 72*time.Hour)
	viper.SetDefault("jobs.close_schedule", "@daily")
	viper.SetDefault("jobs.close_dormancy", 14*24*time.Hour)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// Validate checks the configuration for values the process cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir is required")
	}
	if c.Engine.SideEffectTimeout <= 0 {
		return fmt.Errorf("engine.side_effect_timeout must be positive")
	}
	if c.Jobs.Enabled {
		if c.Jobs.ArchiveSchedule == "" || c.Jobs.CloseSchedule == "" {
			return fmt.Errorf("job schedules are required when jobs are enabled")
		}
		if c.Jobs.ArchiveRetention <= 0 || c.Jobs.CloseDormancy <= 0 {
			return fmt.Errorf("job windows must be positive")
		}
	}
	return nil
}
