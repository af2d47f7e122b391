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
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	Provider ProviderConfig
	Engine   EngineConfig
	CORS     CORSConfig
	Queue    QueueConfig
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderEntryConfig holds settings for a single document-intelligence provider.
type ProviderEntryConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Endpoint    string `mapstructure:"endpoint"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ProviderConfig holds document-intelligence provider settings with fallback support.
type ProviderConfig struct {
	Primary   ProviderEntryConfig `mapstructure:"primary"`
	Secondary ProviderEntryConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ProviderConfig) SecondaryConfig() *ProviderEntryConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// EngineConfig holds extraction engine tunables.
type EngineConfig struct {
	// ReconcileThreshold is the absolute currency difference beyond which
	// the text-pattern reading overrides the structured reading.
	ReconcileThreshold  string `mapstructure:"reconcile_threshold"`
	ProviderTimeoutSecs int    `mapstructure:"provider_timeout_secs"`
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

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the TAXLINE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TAXLINE")
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
	v.SetDefault("db.user", "taxline")
	v.SetDefault("db.password", "taxline_secret")
	v.SetDefault("db.name", "taxline_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "taxline-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 5)

	// Provider defaults
	v.SetDefault("provider.primary.provider", "formrec")
	v.SetDefault("provider.primary.api_key", "")
	v.SetDefault("provider.primary.endpoint", "")
	v.SetDefault("provider.primary.model", "")
	v.SetDefault("provider.primary.timeout_secs", 60)
	v.SetDefault("provider.secondary.provider", "")
	v.SetDefault("provider.secondary.api_key", "")
	v.SetDefault("provider.secondary.endpoint", "")
	v.SetDefault("provider.secondary.model", "")
	v.SetDefault("provider.secondary.timeout_secs", 60)

	// Engine defaults
	v.SetDefault("engine.reconcile_threshold", "1")
	v.SetDefault("engine.provider_timeout_secs", 60)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "TAXLINE_SERVER_PORT",
		"server.read_timeout":  "TAXLINE_SERVER_READ_TIMEOUT",
		"server.write_timeout": "TAXLINE_SERVER_WRITE_TIMEOUT",
		"server.environment":   "TAXLINE_SERVER_ENVIRONMENT",
		"db.host":              "TAXLINE_DB_HOST",
		"db.port":              "TAXLINE_DB_PORT",
		"db.user":              "TAXLINE_DB_USER",
		"db.password":          "TAXLINE_DB_PASSWORD",
		"db.name":              "TAXLINE_DB_NAME",
		"db.sslmode":           "TAXLINE_DB_SSLMODE",
		"db.max_open":          "TAXLINE_DB_MAX_OPEN",
		"db.max_idle":          "TAXLINE_DB_MAX_IDLE",
		"s3.region":            "TAXLINE_S3_REGION",
		"s3.bucket":            "TAXLINE_S3_BUCKET",
		"s3.endpoint":          "TAXLINE_S3_ENDPOINT",
		"s3.access_key":        "TAXLINE_S3_ACCESS_KEY",
		"s3.secret_key":        "TAXLINE_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "TAXLINE_S3_MAX_FILE_SIZE_MB",
		"log.level":            "TAXLINE_LOG_LEVEL",
		"log.format":           "TAXLINE_LOG_FORMAT",
		"cors.allowed_origins":             "TAXLINE_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":         "TAXLINE_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                "TAXLINE_QUEUE_MAX_RETRIES",
		"queue.concurrency":                "TAXLINE_QUEUE_CONCURRENCY",
		"provider.primary.provider":        "TAXLINE_PROVIDER_PRIMARY_PROVIDER",
		"provider.primary.api_key":         "TAXLINE_PROVIDER_PRIMARY_API_KEY",
		"provider.primary.endpoint":        "TAXLINE_PROVIDER_PRIMARY_ENDPOINT",
		"provider.primary.model":           "TAXLINE_PROVIDER_PRIMARY_MODEL",
		"provider.primary.timeout_secs":    "TAXLINE_PROVIDER_PRIMARY_TIMEOUT_SECS",
		"provider.secondary.provider":      "TAXLINE_PROVIDER_SECONDARY_PROVIDER",
		"provider.secondary.api_key":       "TAXLINE_PROVIDER_SECONDARY_API_KEY",
		"provider.secondary.endpoint":      "TAXLINE_PROVIDER_SECONDARY_ENDPOINT",
		"provider.secondary.model":         "TAXLINE_PROVIDER_SECONDARY_MODEL",
		"provider.secondary.timeout_secs":  "TAXLINE_PROVIDER_SECONDARY_TIMEOUT_SECS",
		"engine.reconcile_threshold":       "TAXLINE_ENGINE_RECONCILE_THRESHOLD",
		"engine.provider_timeout_secs":     "TAXLINE_ENGINE_PROVIDER_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TAXLINE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TAXLINE_SERVER_PORT") == "" {
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
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Provider = ProviderConfig{
		Primary: ProviderEntryConfig{
			Provider:    v.GetString("provider.primary.provider"),
			APIKey:      v.GetString("provider.primary.api_key"),
			Endpoint:    v.GetString("provider.primary.endpoint"),
			Model:       v.GetString("provider.primary.model"),
			TimeoutSecs: v.GetInt("provider.primary.timeout_secs"),
		},
		Secondary: ProviderEntryConfig{
			Provider:    v.GetString("provider.secondary.provider"),
			APIKey:      v.GetString("provider.secondary.api_key"),
			Endpoint:    v.GetString("provider.secondary.endpoint"),
			Model:       v.GetString("provider.secondary.model"),
			TimeoutSecs: v.GetInt("provider.secondary.timeout_secs"),
		},
	}

	cfg.Engine = EngineConfig{
		ReconcileThreshold:  v.GetString("engine.reconcile_threshold"),
		ProviderTimeoutSecs: v.GetInt("engine.provider_timeout_secs"),
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	return cfg, nil
}
