package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Rewards   RewardsConfig
	Mediation MediationConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// StorageConfig selects the key-value backend
type StorageConfig struct {
	Driver    string // memory, mongo, redis or postgres
	KeyPrefix string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PostgresConfig holds the gorm postgres DSN
type PostgresConfig struct {
	DSN string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the master admin credentials
type AdminConfig struct {
	Email        string
	PasswordHash string // bcrypt
	Name         string
}

// RewardsConfig holds the points economy policy
type RewardsConfig struct {
	MinWithdrawalPoints int
	PointToCurrencyRate string
	StartingBalance     int
	ReferralBonus       int
	RefundRejected      bool
	WithdrawalMethods   []string
	AdWatchSeconds      int
	PTCWatchSeconds     int
	Timezone            string
}

// Rate parses PointToCurrencyRate
func (r RewardsConfig) Rate() (decimal.Decimal, error) {
	return decimal.NewFromString(r.PointToCurrencyRate)
}

// Location loads the timezone used for streak calendar dates
func (r RewardsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

// MediationConfig holds waterfall presentation settings
type MediationConfig struct {
	ProbeDelay time.Duration
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// A missing .env is fine, the process environment is used as is
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is not configured")
	}
	switch c.Storage.Driver {
	case "memory", "mongo", "redis", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	rate, err := c.Rewards.Rate()
	if err != nil {
		return fmt.Errorf("invalid point to currency rate: %w", err)
	}
	if rate.IsNegative() {
		return errors.New("point to currency rate must not be negative")
	}
	if _, err := c.Rewards.Location(); err != nil {
		return fmt.Errorf("invalid rewards timezone: %w", err)
	}
	if c.Rewards.MinWithdrawalPoints <= 0 {
		return errors.New("minimum withdrawal must be positive")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Storage.Driver", "memory")
	v.SetDefault("Storage.KeyPrefix", "easyEarning_")
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	v.SetDefault("MongoDB.Database", "easyearning")
	v.SetDefault("Redis.Addr", "localhost:6379")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Postgres.DSN", "host=localhost user=postgres password=postgres dbname=easyearning port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("Admin.Email", "admin@easyearning.local")
	v.SetDefault("Admin.PasswordHash", "")
	v.SetDefault("Admin.Name", "Master Admin")
	v.SetDefault("Rewards.MinWithdrawalPoints", 4000)
	v.SetDefault("Rewards.PointToCurrencyRate", "0.05")
	v.SetDefault("Rewards.StartingBalance", 100)
	v.SetDefault("Rewards.ReferralBonus", 100)
	v.SetDefault("Rewards.RefundRejected", true)
	v.SetDefault("Rewards.WithdrawalMethods", []string{"bkash", "nagad", "paypal"})
	v.SetDefault("Rewards.AdWatchSeconds", 15)
	v.SetDefault("Rewards.PTCWatchSeconds", 10)
	v.SetDefault("Rewards.Timezone", "UTC")
	v.SetDefault("Mediation.ProbeDelay", time.Second)
	v.SetDefault("LogLevel", "info")
}
