package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Mail providers understood by the credential sender.
const (
	MailProviderLog     = "log"
	MailProviderNoop    = "noop"
	MailProviderSMTP    = "smtp"
	MailProviderWebhook = "webhook"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Uploads      UploadsConfig
	Mail         MailConfig
	Registration RegistrationConfig
	Bootstrap    BootstrapConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls where profile photos land and what is accepted.
type UploadsConfig struct {
	Dir              string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	URLTTL           time.Duration
}

// MailConfig selects and configures the credential delivery provider.
type MailConfig struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	WebhookURL   string
	WebhookToken string
	Retry        MailRetryConfig
}

// MailRetryConfig governs background redelivery of failed credential emails.
type MailRetryConfig struct {
	Enabled  bool
	Attempts int
	Delay    time.Duration
}

// RegistrationConfig tunes the onboarding workflow.
type RegistrationConfig struct {
	PasswordPrefix string
	StatsCache     bool
	StatsCacheTTL  time.Duration
}

// BootstrapConfig seeds the first director account on an empty database.
type BootstrapConfig struct {
	DirectorEmail    string
	DirectorPassword string
	DirectorName     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:              v.GetString("UPLOADS_DIR"),
		MaxFileSizeBytes: maxUpload,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
		URLTTL:           parseDuration(v.GetString("UPLOADS_URL_TTL"), 15*time.Minute),
	}

	retryAttempts := v.GetInt("MAIL_RETRY_ATTEMPTS")
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	cfg.Mail = MailConfig{
		Provider:     strings.ToLower(strings.TrimSpace(v.GetString("MAIL_PROVIDER"))),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		From:         v.GetString("MAIL_FROM"),
		WebhookURL:   v.GetString("MAIL_WEBHOOK_URL"),
		WebhookToken: v.GetString("MAIL_WEBHOOK_TOKEN"),
		Retry: MailRetryConfig{
			Enabled:  v.GetBool("MAIL_RETRY_ENABLED"),
			Attempts: retryAttempts,
			Delay:    parseDuration(v.GetString("MAIL_RETRY_DELAY"), 30*time.Second),
		},
	}

	cfg.Registration = RegistrationConfig{
		PasswordPrefix: v.GetString("REGISTRATION_PASSWORD_PREFIX"),
		StatsCache:     v.GetBool("ENABLE_STATS_CACHE"),
		StatsCacheTTL:  parseDuration(v.GetString("REGISTRATION_STATS_CACHE_TTL"), time.Minute),
	}

	cfg.Bootstrap = BootstrapConfig{
		DirectorEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_DIRECTOR_EMAIL"))),
		DirectorPassword: v.GetString("BOOTSTRAP_DIRECTOR_PASSWORD"),
		DirectorName:     v.GetString("BOOTSTRAP_DIRECTOR_NAME"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "guardforce")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp")
	v.SetDefault("UPLOADS_URL_TTL", "15m")

	v.SetDefault("MAIL_PROVIDER", MailProviderLog)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 25)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@guardforce.local")
	v.SetDefault("MAIL_WEBHOOK_URL", "")
	v.SetDefault("MAIL_WEBHOOK_TOKEN", "")
	v.SetDefault("MAIL_RETRY_ENABLED", false)
	v.SetDefault("MAIL_RETRY_ATTEMPTS", 3)
	v.SetDefault("MAIL_RETRY_DELAY", "30s")

	v.SetDefault("REGISTRATION_PASSWORD_PREFIX", "Gf@")
	v.SetDefault("ENABLE_STATS_CACHE", false)
	v.SetDefault("REGISTRATION_STATS_CACHE_TTL", "1m")

	v.SetDefault("BOOTSTRAP_DIRECTOR_EMAIL", "")
	v.SetDefault("BOOTSTRAP_DIRECTOR_PASSWORD", "")
	v.SetDefault("BOOTSTRAP_DIRECTOR_NAME", "System Director")
}

// isMissingFile reports whether viper failed only because .env is absent;
// SetConfigFile surfaces that as a filesystem error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
