package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Extractor ExtractorConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds object storage settings. Quarantine and processed areas are
// key prefixes within one bucket.
type S3Config struct {
	Region           string `mapstructure:"region"`
	Bucket           string `mapstructure:"bucket"`
	Endpoint         string `mapstructure:"endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	QuarantinePrefix string `mapstructure:"quarantine_prefix"`
	ProcessedPrefix  string `mapstructure:"processed_prefix"`
	PresignExpiry    int64  `mapstructure:"presign_expiry"`
}

// ExtractorConfig holds Document Intelligence client settings.
type ExtractorConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	APIKey           string `mapstructure:"api_key"`
	Model            string `mapstructure:"model"`
	TimeoutSecs      int    `mapstructure:"timeout_secs"`
	PollIntervalSecs int    `mapstructure:"poll_interval_secs"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the RECEIPTDESK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECEIPTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "receiptdesk")
	v.SetDefault("db.password", "receiptdesk_secret")
	v.SetDefault("db.name", "receiptdesk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "receiptdesk-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.quarantine_prefix", "receipts-quarantine")
	v.SetDefault("s3.processed_prefix", "receipts-processed")
	v.SetDefault("s3.presign_expiry", 3600)

	// Extractor defaults
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "prebuilt-receipt")
	v.SetDefault("extractor.timeout_secs", 120)
	v.SetDefault("extractor.poll_interval_secs", 2)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "RECEIPTDESK_SERVER_PORT",
		"server.read_timeout":          "RECEIPTDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "RECEIPTDESK_SERVER_WRITE_TIMEOUT",
		"server.environment":           "RECEIPTDESK_SERVER_ENVIRONMENT",
		"db.host":                      "RECEIPTDESK_DB_HOST",
		"db.port":                      "RECEIPTDESK_DB_PORT",
		"db.user":                      "RECEIPTDESK_DB_USER",
		"db.password":                  "RECEIPTDESK_DB_PASSWORD",
		"db.name":                      "RECEIPTDESK_DB_NAME",
		"db.sslmode":                   "RECEIPTDESK_DB_SSLMODE",
		"db.max_open":                  "RECEIPTDESK_DB_MAX_OPEN",
		"db.max_idle":                  "RECEIPTDESK_DB_MAX_IDLE",
		"s3.region":                    "RECEIPTDESK_S3_REGION",
		"s3.bucket":                    "RECEIPTDESK_S3_BUCKET",
		"s3.endpoint":                  "RECEIPTDESK_S3_ENDPOINT",
		"s3.access_key":                "RECEIPTDESK_S3_ACCESS_KEY",
		"s3.secret_key":                "RECEIPTDESK_S3_SECRET_KEY",
		"s3.quarantine_prefix":         "RECEIPTDESK_S3_QUARANTINE_PREFIX",
		"s3.processed_prefix":          "RECEIPTDESK_S3_PROCESSED_PREFIX",
		"s3.presign_expiry":            "RECEIPTDESK_S3_PRESIGN_EXPIRY",
		"extractor.endpoint":           "RECEIPTDESK_EXTRACTOR_ENDPOINT",
		"extractor.api_key":            "RECEIPTDESK_EXTRACTOR_API_KEY",
		"extractor.model":              "RECEIPTDESK_EXTRACTOR_MODEL",
		"extractor.timeout_secs":       "RECEIPTDESK_EXTRACTOR_TIMEOUT_SECS",
		"extractor.poll_interval_secs": "RECEIPTDESK_EXTRACTOR_POLL_INTERVAL_SECS",
		"log.level":                    "RECEIPTDESK_LOG_LEVEL",
		"log.format":                   "RECEIPTDESK_LOG_FORMAT",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if RECEIPTDESK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RECEIPTDESK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:           v.GetString("s3.region"),
		Bucket:           v.GetString("s3.bucket"),
		Endpoint:         v.GetString("s3.endpoint"),
		AccessKey:        v.GetString("s3.access_key"),
		SecretKey:        v.GetString("s3.secret_key"),
		QuarantinePrefix: v.GetString("s3.quarantine_prefix"),
		ProcessedPrefix:  v.GetString("s3.processed_prefix"),
		PresignExpiry:    v.GetInt64("s3.presign_expiry"),
	}
	cfg.Extractor = ExtractorConfig{
		Endpoint:         v.GetString("extractor.endpoint"),
		APIKey:           v.GetString("extractor.api_key"),
		Model:            v.GetString("extractor.model"),
		TimeoutSecs:      v.GetInt("extractor.timeout_secs"),
		PollIntervalSecs: v.GetInt("extractor.poll_interval_secs"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}
