package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Log      LogConfig
	Billing  BillingConfig
	MinIO    MinIOConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN renders the libpq connection string used by the postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type JWTConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

type HTTPConfig struct {
	AllowedOrigins  string
	BodyLimitBytes  int
	RateLimitMax    int
	RateLimitWindow time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// BillingConfig carries the fallback tax rates (percent) and the invoice due-date offset.
type BillingConfig struct {
	InvoiceDueDays int
	TaxDefaults    map[string]decimal.Decimal
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether receipt storage is configured.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

var taxKeys = []string{"ISS", "INSS", "IRRF", "CSLL", "PIS", "COFINS"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_HOST", "db")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("BODY_LIMIT_MB", 4)
	v.SetDefault("RATE_LIMIT_MAX", 60)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("INVOICE_DUE_DAYS", 30)
	v.SetDefault("TAX_DEFAULT_ISS", "5.00")
	v.SetDefault("TAX_DEFAULT_INSS", "11.00")
	v.SetDefault("TAX_DEFAULT_IRRF", "1.50")
	v.SetDefault("TAX_DEFAULT_CSLL", "1.00")
	v.SetDefault("TAX_DEFAULT_PIS", "0.65")
	v.SetDefault("TAX_DEFAULT_COFINS", "3.00")
	v.SetDefault("MINIO_BUCKET", "receipts")
	v.SetDefault("MINIO_USE_SSL", false)
}

// NewConfig loads .env (if present), an optional config file and the environment, in that order of precedence.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	configName := "config"
	if name := os.Getenv("CONFIG_NAME"); name != "" {
		configName = name
	}
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("PORT"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET_KEY"),
			ExpiresIn: time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		},
		HTTP: HTTPConfig{
			AllowedOrigins:  v.GetString("ALLOWED_ORIGINS"),
			BodyLimitBytes:  v.GetInt("BODY_LIMIT_MB") * 1024 * 1024,
			RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
			RateLimitWindow: time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Billing: BillingConfig{
			InvoiceDueDays: v.GetInt("INVOICE_DUE_DAYS"),
			TaxDefaults:    make(map[string]decimal.Decimal, len(taxKeys)),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET_KEY is not set")
	}
	if cfg.Billing.InvoiceDueDays < 0 {
		return nil, fmt.Errorf("INVOICE_DUE_DAYS must not be negative, got %d", cfg.Billing.InvoiceDueDays)
	}

	for _, kind := range taxKeys {
		raw := v.GetString("TAX_DEFAULT_" + kind)
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("TAX_DEFAULT_%s must be a decimal value: %w", kind, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("TAX_DEFAULT_%s must be within 0..100, got %s", kind, raw)
		}
		cfg.Billing.TaxDefaults[kind] = rate
	}

	log.Info("config parsed")

	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(c LogConfig) *log.Logger {
	logger := log.New()
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(c.Format, "text") {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return logger
}
