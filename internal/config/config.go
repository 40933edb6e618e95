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
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	ExpirySpec string `mapstructure:"SCHEDULER_EXPIRY_SPEC"`
}

type BusinessConfig struct {
	ExternalTransferFee string `mapstructure:"EXTERNAL_TRANSFER_FEE"`
	MaxLoanPrincipal    string `mapstructure:"MAX_LOAN_PRINCIPAL"`
	MaxLoanTermMonths   int    `mapstructure:"MAX_LOAN_TERM_MONTHS"`
	IBANMaxAttempts     int    `mapstructure:"IBAN_MAX_ATTEMPTS"`
	PendingTransferTTL  string `mapstructure:"PENDING_TRANSFER_TTL"`
	TransferCacheTTL    string `mapstructure:"TRANSFER_CACHE_TTL"`
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
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SCHEDULER_EXPIRY_SPEC", "0 0 0 * * *")
	viper.SetDefault("EXTERNAL_TRANSFER_FEE", "0.50")
	viper.SetDefault("MAX_LOAN_PRINCIPAL", "1000000")
	viper.SetDefault("MAX_LOAN_TERM_MONTHS", 360)
	viper.SetDefault("IBAN_MAX_ATTEMPTS", 10)
	viper.SetDefault("PENDING_TRANSFER_TTL", "720h")
	viper.SetDefault("TRANSFER_CACHE_TTL", "5m")
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

	// Validate configuration
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

	if c.Business.IBANMaxAttempts <= 0 {
		return fmt.Errorf("IBAN_MAX_ATTEMPTS must be greater than 0")
	}

	if c.Business.MaxLoanTermMonths <= 0 {
		return fmt.Errorf("MAX_LOAN_TERM_MONTHS must be greater than 0")
	}

	fee, err := decimal.NewFromString(c.Business.ExternalTransferFee)
	if err != nil {
		return fmt.Errorf("EXTERNAL_TRANSFER_FEE must be a valid decimal: %w", err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("EXTERNAL_TRANSFER_FEE must not be negative")
	}

	if _, err := decimal.NewFromString(c.Business.MaxLoanPrincipal); err != nil {
		return fmt.Errorf("MAX_LOAN_PRINCIPAL must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.PendingTransferTTL); err != nil {
		return fmt.Errorf("PENDING_TRANSFER_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.TransferCacheTTL); err != nil {
		return fmt.Errorf("TRANSFER_CACHE_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("DATABASE_CONN_MAX_LIFETIME must be a valid duration: %w", err)
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

// GetExternalTransferFee returns the flat fee charged on external transfers
func (c *Config) GetExternalTransferFee() decimal.Decimal {
	fee, _ := decimal.NewFromString(c.Business.ExternalTransferFee)
	return fee
}

// GetMaxLoanPrincipal returns the loan principal ceiling
func (c *Config) GetMaxLoanPrincipal() decimal.Decimal {
	ceiling, _ := decimal.NewFromString(c.Business.MaxLoanPrincipal)
	return ceiling
}

// GetPendingTransferTTL returns how long a transfer may stay pending
func (c *Config) GetPendingTransferTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.PendingTransferTTL)
	return ttl
}

// GetTransferCacheTTL returns the transfer list cache expiry
func (c *Config) GetTransferCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.TransferCacheTTL)
	return ttl
}

// GetHealthTimeout returns the health check timeout
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

// GetConnMaxLifetime returns the database connection lifetime
func (c *Config) GetConnMaxLifetime() time.Duration {
	lifetime, _ := time.ParseDuration(c.Database.ConnMaxLifetime)
	return lifetime
}
