package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all configuration for our application
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Origin      string `mapstructure:"ORIGIN"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	MongoURI     string `mapstructure:"MONGODB_URI"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	Database DatabaseConfig `mapstructure:",squash"`

	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTExpirationMinutes  int    `mapstructure:"JWT_ACCESS_EXPIRES_MINUTES"`
	RefreshExpirationDays int    `mapstructure:"JWT_REFRESH_EXPIRES_IN_DAYS"`

	Mailer     MailerConfig     `mapstructure:",squash"`
	Google     GoogleConfig     `mapstructure:",squash"`
	Cloudinary CloudinaryConfig `mapstructure:",squash"`

	ReviewAutoApprove bool   `mapstructure:"REVIEW_AUTO_APPROVE"`
	DispatchWorkers   int    `mapstructure:"DISPATCH_WORKERS"`
	DispatchQueueSize int    `mapstructure:"DISPATCH_QUEUE_SIZE"`
	ReminderSchedule  string `mapstructure:"REMINDER_SCHEDULE"`
	MetricsEnabled    bool   `mapstructure:"METRICS_ENABLED"`
}

// DatabaseConfig holds MySQL connection details
type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	Username string `mapstructure:"DB_USERNAME"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
}

// MailerConfig holds SMTP settings. An empty Host disables outbound email.
type MailerConfig struct {
	Host     string `mapstructure:"SMTP_HOST"`
	Port     int    `mapstructure:"SMTP_PORT"`
	Username string `mapstructure:"SMTP_USER"`
	Password string `mapstructure:"SMTP_PASS"`
	From     string `mapstructure:"SMTP_FROM"`
}

// GoogleConfig holds the service account used for calendar sync.
type GoogleConfig struct {
	ClientEmail string `mapstructure:"GOOGLE_CLIENT_EMAIL"`
	PrivateKey  string `mapstructure:"GOOGLE_PRIVATE_KEY"`
	CalendarID  string `mapstructure:"GOOGLE_CALENDAR_ID"`
	TimeZone    string `mapstructure:"CALENDAR_TIMEZONE"`
}

// CloudinaryConfig holds file storage credentials.
type CloudinaryConfig struct {
	CloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	APISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "ORIGIN", "STORE_DRIVER",
	"MONGODB_URI", "DATABASE_NAME",
	"DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_NAME",
	"JWT_SECRET", "JWT_ACCESS_EXPIRES_MINUTES", "JWT_REFRESH_EXPIRES_IN_DAYS",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	"GOOGLE_CLIENT_EMAIL", "GOOGLE_PRIVATE_KEY", "GOOGLE_CALENDAR_ID", "CALENDAR_TIMEZONE",
	"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET",
	"REVIEW_AUTO_APPROVE", "DISPATCH_WORKERS", "DISPATCH_QUEUE_SIZE",
	"REMINDER_SCHEDULE", "METRICS_ENABLED",
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ORIGIN", "http://localhost:3000")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("DATABASE_NAME", "healthcare")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_NAME", "healthcare")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_EXPIRES_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_EXPIRES_IN_DAYS", 7)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")
	v.SetDefault("CALENDAR_TIMEZONE", "UTC")
	v.SetDefault("REVIEW_AUTO_APPROVE", true)
	v.SetDefault("DISPATCH_WORKERS", 4)
	v.SetDefault("DISPATCH_QUEUE_SIZE", 256)
	v.SetDefault("REMINDER_SCHEDULE", "0 * * * *")
	v.SetDefault("METRICS_ENABLED", true)

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	// PEM keys are usually passed with escaped newlines.
	cfg.Google.PrivateKey = strings.ReplaceAll(cfg.Google.PrivateKey, `\n`, "\n")

	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = "development_jwt_secret"
	}

	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER is %q", DriverMongo)
		}
	case DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q, %q or %q, got %q", DriverMongo, DriverMySQL, DriverMemory, c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.JWTExpirationMinutes <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRES_MINUTES must be positive")
	}
	if c.RefreshExpirationDays <= 0 {
		return fmt.Errorf("JWT_REFRESH_EXPIRES_IN_DAYS must be positive")
	}
	if c.DispatchWorkers <= 0 || c.DispatchQueueSize <= 0 {
		return fmt.Errorf("DISPATCH_WORKERS and DISPATCH_QUEUE_SIZE must be positive")
	}
	return nil
}
