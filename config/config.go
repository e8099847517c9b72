package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	Development = "development"
	Production  = "production"

	minSessionSecretLength = 32
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI             string
	MongoDatabase        string
	MongoConnectTimeout  time.Duration
	StoreWarmupMaxElapse time.Duration

	AdminUsername  string
	AdminPassword  string
	SessionSecret  string
	SessionTTL     time.Duration
	PublicBaseURL  string
	AdminStaticDir string

	NATSUrl           string
	NATSSubjectPrefix string

	SlackBotToken  string
	SlackChannelID string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables always win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", Development),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MongoURI:             os.Getenv("MONGODB_URI"),
		MongoDatabase:        os.Getenv("MONGODB_DB"),
		MongoConnectTimeout:  getDurationEnv("MONGODB_CONNECT_TIMEOUT", "10s"),
		StoreWarmupMaxElapse: getDurationEnv("STORE_WARMUP_MAX_ELAPSED", "2m"),

		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		SessionTTL:     getDurationEnv("SESSION_TTL", "168h"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		AdminStaticDir: os.Getenv("ADMIN_STATIC_DIR"),

		NATSUrl:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "portfolio"),

		SlackBotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID: os.Getenv("SLACK_CHANNEL_ID"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == Production
}

func (c *Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"MONGODB_URI", c.MongoURI},
		{"MONGODB_DB", c.MongoDatabase},
		{"ADMIN_USERNAME", c.AdminUsername},
		{"ADMIN_PASSWORD", c.AdminPassword},
		{"SESSION_SECRET", c.SessionSecret},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if len(c.SessionSecret) < minSessionSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.Env != Development && c.Env != Production {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", Development, Production, c.Env)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
