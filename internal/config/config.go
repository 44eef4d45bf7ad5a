package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Business  BusinessConfig  `mapstructure:"business"`
	Health    HealthConfig    `mapstructure:"health"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	OverdueCron string `mapstructure:"SCHEDULER_OVERDUE_CRON"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type BusinessConfig struct {
	MaxExposureRatio string `mapstructure:"MAX_EXPOSURE_RATIO"`
	MaxTenureMonths  int    `mapstructure:"MAX_TENURE_MONTHS"`
	Serialize        bool   `mapstructure:"UNDERWRITING_SERIALIZE"`
	LoanCacheTTL     string `mapstructure:"LOAN_CACHE_TTL"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MAX_EXPOSURE_RATIO", "0.33")
	viper.SetDefault("MAX_TENURE_MONTHS", 24)
	viper.SetDefault("UNDERWRITING_SERIALIZE", true)
	viper.SetDefault("LOAN_CACHE_TTL", "5m")
	viper.SetDefault("SCHEDULER_OVERDUE_CRON", "0 0 0 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Africa/Lagos")
	viper.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.MaxTenureMonths <= 0 {
		return fmt.Errorf("MAX_TENURE_MONTHS must be greater than 0")
	}

	ratio, err := decimal.NewFromString(c.Business.MaxExposureRatio)
	if err != nil {
		return fmt.Errorf("MAX_EXPOSURE_RATIO must be a valid decimal: %w", err)
	}
	if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("MAX_EXPOSURE_RATIO must be between 0 and 1")
	}

	if _, err := time.ParseDuration(c.Business.LoanCacheTTL); err != nil {
		return fmt.Errorf("LOAN_CACHE_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetMaxExposureRatio returns the borrowing ceiling ratio as decimal.
func (c *Config) GetMaxExposureRatio() decimal.Decimal {
	ratio, _ := decimal.NewFromString(c.Business.MaxExposureRatio)
	return ratio
}

// GetLoanCacheTTL returns the loan detail cache TTL as duration.
func (c *Config) GetLoanCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.LoanCacheTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}
