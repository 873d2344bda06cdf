// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode            string        `mapstructure:"GIN_MODE"`
	ServerHost         string        `mapstructure:"SERVER_HOST"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	ServerTimeout      time.Duration `mapstructure:"-"`
	CORSAllowedOrigins []string      `mapstructure:"-"`
	AppURL             string        `mapstructure:"APP_URL"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"-"`
	DBSQLitePath      string        `mapstructure:"DB_SQLITE_PATH"`
	DBAutoMigrate     bool          `mapstructure:"DB_AUTO_MIGRATE"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Language model
	GeminiAPIKey     string        `mapstructure:"GEMINI_API_KEY"`
	GeminiMatchModel string        `mapstructure:"GEMINI_MATCH_MODEL"`
	GeminiCoachModel string        `mapstructure:"GEMINI_COACH_MODEL"`
	LLMTimeout       time.Duration `mapstructure:"-"`

	// Matching
	MatchNotifyThreshold float64 `mapstructure:"MATCH_NOTIFY_THRESHOLD"`
	MatchStrategy        string  `mapstructure:"MATCH_STRATEGY"`
	MatchPromptVersion   string  `mapstructure:"MATCH_PROMPT_VERSION"`

	// Coaching
	CoachCacheTTL time.Duration `mapstructure:"-"`

	// Cron Jobs
	OutcomeExpiryJobSchedule string `mapstructure:"OUTCOME_EXPIRY_JOB_SCHEDULE"`
	OutcomeExpiryBatchSize   int    `mapstructure:"OUTCOME_EXPIRY_BATCH_SIZE"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebasePushEnabled           bool   `mapstructure:"FIREBASE_PUSH_ENABLED"`

	// Elasticsearch Configuration
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`

	// Kafka
	KafkaBrokers     []string `mapstructure:"-"`
	KafkaEventsTopic string   `mapstructure:"KAFKA_EVENTS_TOPIC"`

	// AWS
	AWSRegion         string `mapstructure:"AWS_REGION"`
	AWSEndpointURL    string `mapstructure:"AWS_ENDPOINT_URL"`
	S3ImageBucket     string `mapstructure:"S3_IMAGE_BUCKET"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`
	SQSEmailQueueName string `mapstructure:"SQS_EMAIL_QUEUE_NAME"`

	// Telegram
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}

	// Basic validation for critical configs
	if strings.TrimSpace(cfg.FirebaseServiceAccountKeyPath) == "" {
		return nil, fmt.Errorf("FATAL: FIREBASE_SERVICE_ACCOUNT_KEY_PATH is not set. This is required for Firebase Admin SDK initialization")
	}
	if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("APP_URL", "http://localhost:5173")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "shareaplate_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SQLITE_PATH", "shareaplate.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MATCH_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_COACH_MODEL", "gemini-2.5-flash-lite")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 30)

	v.SetDefault("MATCH_NOTIFY_THRESHOLD", 0.7)
	v.SetDefault("MATCH_STRATEGY", "proximity_priority")
	v.SetDefault("MATCH_PROMPT_VERSION", "v2_location_emphasis")

	v.SetDefault("COACH_CACHE_TTL_HOURS", 4)

	v.SetDefault("OUTCOME_EXPIRY_JOB_SCHEDULE", "@hourly")
	v.SetDefault("OUTCOME_EXPIRY_BATCH_SIZE", 500)

	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PUSH_ENABLED", false)

	v.SetDefault("ELASTICSEARCH_URL", "")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_EVENTS_TOPIC", "shareaplate.events")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT_URL", "")
	v.SetDefault("S3_IMAGE_BUCKET", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("SQS_EMAIL_QUEUE_NAME", "")

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
}

// fromViper unmarshals v, fills the derived fields and validates values that
// have no sensible fallback.
func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.LLMTimeout = time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second
	cfg.CoachCacheTTL = time.Duration(v.GetInt("COACH_CACHE_TTL_HOURS")) * time.Hour
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, fmt.Errorf("FATAL: GEMINI_API_KEY is not set")
	}
	if cfg.MatchNotifyThreshold < 0 || cfg.MatchNotifyThreshold > 1 {
		return nil, fmt.Errorf("MATCH_NOTIFY_THRESHOLD must be within [0,1], got %v", cfg.MatchNotifyThreshold)
	}
	if cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}
