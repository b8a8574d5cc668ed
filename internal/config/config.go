package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Storage   StorageConfig
	Server    ServerConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// StorageConfig holds storage-related configuration
type StorageConfig struct {
	Type            string // "mongodb", "dynamodb", "postgresql", "memory"
	Region          string // For AWS DynamoDB
	TableName       string
	Endpoint        string // Custom endpoint for local testing
	MongoDBURI      string
	MongoDBDatabase string
	PostgresURI     string
	ConnectTimeout  time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Mode            string // gin mode: "debug", "release", "test"
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	APIKey          string
	APIKeyHeader    string
}

// MailConfig holds outbound email configuration
type MailConfig struct {
	Provider    string // "smtp", "ses", "log"
	SMTPHost    string
	SMTPPort    int
	Username    string
	Password    string
	AdminTo     string
	FromName    string
	SESRegion   string
	BannerPath  string
	SiteURL     string
	PhoneRegion string // assumed for contact phone numbers without a country code
}

// RateLimitConfig holds the Redis-backed request limiter settings.
// An empty RedisAddr disables rate limiting.
type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Requests      int64
	Window        time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

var storageTypes = map[string]bool{
	"mongodb":    true,
	"dynamodb":   true,
	"postgresql": true,
	"memory":     true,
}

var mailProviders = map[string]bool{
	"smtp": true,
	"ses":  true,
	"log":  true,
}

// Load loads configuration from the environment (and a .env file when present) with defaults
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Storage: StorageConfig{
			Type:            strings.ToLower(v.GetString("STORAGE_TYPE")),
			Region:          v.GetString("AWS_REGION"),
			TableName:       v.GetString("TABLE_NAME"),
			Endpoint:        v.GetString("DYNAMODB_ENDPOINT"),
			MongoDBURI:      v.GetString("MONGO_URI"),
			MongoDBDatabase: v.GetString("MONGO_DATABASE"),
			PostgresURI:     v.GetString("POSTGRES_URI"),
			ConnectTimeout:  v.GetDuration("STORAGE_CONNECT_TIMEOUT"),
		},
		Server: ServerConfig{
			Port:            v.GetInt("PORT"),
			Mode:            v.GetString("GIN_MODE"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			APIKey:          v.GetString("API_KEY"),
			APIKeyHeader:    v.GetString("API_KEY_HEADER"),
		},
		Mail: MailConfig{
			Provider:    strings.ToLower(v.GetString("MAIL_PROVIDER")),
			SMTPHost:    v.GetString("SMTP_HOST"),
			SMTPPort:    v.GetInt("SMTP_PORT"),
			Username:    v.GetString("EMAIL_USER"),
			Password:    v.GetString("EMAIL_PASS"),
			AdminTo:     v.GetString("EMAIL_TO"),
			FromName:    v.GetString("EMAIL_FROM_NAME"),
			SESRegion:   v.GetString("SES_REGION"),
			BannerPath:  v.GetString("EMAIL_BANNER_PATH"),
			SiteURL:     v.GetString("SITE_URL"),
			PhoneRegion: strings.ToUpper(v.GetString("PHONE_DEFAULT_REGION")),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			Requests:      v.GetInt64("RATE_LIMIT_REQUESTS"),
			Window:        v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("STORAGE_TYPE", "mongodb")
	v.SetDefault("AWS_REGION", "us-west-2")
	v.SetDefault("TABLE_NAME", "interns")
	v.SetDefault("MONGO_DATABASE", "accelrix")
	v.SetDefault("STORAGE_CONNECT_TIMEOUT", 10*time.Second)

	v.SetDefault("PORT", 5000)
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "https://accelrix-buildbeyond.web.app")
	v.SetDefault("API_KEY_HEADER", "x-api-key")

	v.SetDefault("MAIL_PROVIDER", "smtp")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM_NAME", "Accelrix Team")
	v.SetDefault("SES_REGION", "us-east-1")
	v.SetDefault("EMAIL_BANNER_PATH", "./assets/banner.png")
	v.SetDefault("SITE_URL", "https://accelrix-buildbeyond.web.app")
	v.SetDefault("PHONE_DEFAULT_REGION", "IN")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", 15*time.Minute)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if !storageTypes[c.Storage.Type] {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	switch c.Storage.Type {
	case "mongodb":
		if c.Storage.MongoDBURI == "" {
			return fmt.Errorf("MONGO_URI is required for mongodb storage")
		}
	case "postgresql":
		if c.Storage.PostgresURI == "" {
			return fmt.Errorf("POSTGRES_URI is required for postgresql storage")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GIN_MODE: %s", c.Server.Mode)
	}

	if !mailProviders[c.Mail.Provider] {
		return fmt.Errorf("unsupported mail provider: %s", c.Mail.Provider)
	}
	if c.Mail.Provider != "log" {
		if c.Mail.Username == "" {
			return fmt.Errorf("EMAIL_USER is required for %s mail", c.Mail.Provider)
		}
		if c.Mail.AdminTo == "" {
			return fmt.Errorf("EMAIL_TO is required for %s mail", c.Mail.Provider)
		}
	}
	if c.Mail.Provider == "smtp" && c.Mail.Password == "" {
		return fmt.Errorf("EMAIL_PASS is required for smtp mail")
	}

	if c.RateLimit.RedisAddr != "" && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}

	return nil
}

func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
