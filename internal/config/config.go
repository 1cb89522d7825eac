package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OTP      OTPConfig
	Email    EmailConfig
	Storage  StorageConfig
	CORS     CORSConfig
	Security SecurityConfig
	Cron     CronConfig
	Booking  BookingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	BaseURL     string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	Driver             string // "postgres" (lib/pq) or "pgx"
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// OTPConfig holds signup OTP configuration
type OTPConfig struct {
	ExpiryMinutes     int
	MaxAttempts       int
	RateLimit         int
	RateWindowMinutes int
	IPRateLimit       int
}

// EmailConfig holds the outbound email gateway configuration
type EmailConfig struct {
	Mode        string // "dev" logs the code and returns it, "production" sends through SendGrid
	APIURL      string
	APIKey      string
	SenderEmail string
	SenderName  string
}

// StorageConfig selects where uploaded facility photos live
type StorageConfig struct {
	Backend     string // "local" or "s3"
	UploadDir   string
	URLPrefix   string
	MaxUploadMB int
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	EnableAuditLog   bool
}

// CronConfig controls the background jobs
type CronConfig struct {
	Enabled            bool
	AuditRetentionDays int
}

// BookingConfig holds facility and slot defaults
type BookingConfig struct {
	DefaultHourlyRate float64
	SlotOpenHour      int
	SlotCloseHour     int
	AllowedCities     []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Driver:             getEnv("DATABASE_DRIVER", "postgres"),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		OTP: OTPConfig{
			ExpiryMinutes:     getEnvAsInt("OTP_EXPIRY_MINUTES", 5),
			MaxAttempts:       getEnvAsInt("OTP_MAX_ATTEMPTS", 3),
			RateLimit:         getEnvAsInt("OTP_RATE_LIMIT", 3),
			RateWindowMinutes: getEnvAsInt("OTP_RATE_WINDOW_MINUTES", 10),
			IPRateLimit:       getEnvAsInt("OTP_IP_RATE_LIMIT", 10),
		},
		Email: EmailConfig{
			Mode:        getEnv("EMAIL_MODE", "dev"),
			APIURL:      getEnv("SENDGRID_API_URL", "https://api.sendgrid.com/v3/mail/send"),
			APIKey:      getEnv("SENDGRID_API_KEY", ""),
			SenderEmail: getEnv("SENDER_EMAIL", ""),
			SenderName:  getEnv("SENDER_NAME", "QuickCourt"),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			UploadDir:   getEnv("UPLOAD_DIR", "static/facility_photos"),
			URLPrefix:   getEnv("UPLOAD_URL_PREFIX", "/static/facility_photos"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 16),
			S3Region:    getEnv("S3_REGION", ""),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "X-User-ID"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
		Cron: CronConfig{
			Enabled:            getEnvAsBool("CRON_ENABLED", true),
			AuditRetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 90),
		},
		Booking: BookingConfig{
			DefaultHourlyRate: getEnvAsFloat("DEFAULT_HOURLY_RATE", 50.00),
			SlotOpenHour:      getEnvAsInt("SLOT_OPEN_HOUR", 7),
			SlotCloseHour:     getEnvAsInt("SLOT_CLOSE_HOUR", 23),
			AllowedCities:     getEnvAsSlice("ALLOWED_CITIES", []string{"Ahmedabad", "Bangalore", "Delhi", "Mumbai", "Hyderabad"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be 'postgres' or 'pgx')", c.Database.Driver)
	}

	if c.Email.Mode == "production" {
		if c.Email.APIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required in production email mode")
		}
		if c.Email.SenderEmail == "" {
			return fmt.Errorf("SENDER_EMAIL is required in production email mode")
		}
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for local storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION are required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %s (must be 'local' or 's3')", c.Storage.Backend)
	}

	if c.Booking.SlotOpenHour < 0 || c.Booking.SlotCloseHour > 24 || c.Booking.SlotOpenHour >= c.Booking.SlotCloseHour {
		return fmt.Errorf("invalid slot hours: %d-%d", c.Booking.SlotOpenHour, c.Booking.SlotCloseHour)
	}

	return nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %.2f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
