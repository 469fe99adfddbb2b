package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	DBPoolSize      int
	RedisURL        string
	RedisPoolSize   int
	KafkaBrokers    []string
	KafkaLogTopic   string
	KafkaPartitions int
	KafkaGroupID    string
	WebAppURL       string
	LogLevel        string
	AppSettings     string // path to the YAML app-settings file served by /api/config
	AppVersion      string
	SeedOnStartup   bool
	PasswordCost    int
	Tokens          TokenConfig
}

// TokenConfig configures bearer token issuance.
type TokenConfig struct {
	Key          string
	Issuer       string
	Audience     string
	Timeout      time.Duration
	RefreshGrace time.Duration
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env, after reading .env if present).
func Get() *Config {
	cfgOnce.Do(func() {
		_ = godotenv.Load()
		cfg = Load()
	})
	return cfg
}

// Load reads the configuration from the current environment without caching it.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBPoolSize:      getIntEnv("DB_POOL_SIZE", 20),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisPoolSize:   getIntEnv("REDIS_POOL_SIZE", 10),
		KafkaBrokers:    getSliceEnv("KAFKA_BROKERS"),
		KafkaLogTopic:   getEnv("KAFKA_LOG_TOPIC", "client-logs"),
		KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 3),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "client-log-workers"),
		WebAppURL:       os.Getenv("WEB_APP_URL"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AppSettings:     getEnv("APP_SETTINGS_FILE", "appsettings.yaml"),
		AppVersion:      getEnv("APP_VERSION", "1.0.0.0"),
		SeedOnStartup:   getBoolEnv("SEED_ON_STARTUP", true),
		PasswordCost:    getIntEnv("PASSWORD_COST", 10),
		Tokens: TokenConfig{
			Key:          os.Getenv("TOKENS_KEY"),
			Issuer:       getEnv("TOKENS_ISSUER", "todo-api"),
			Audience:     getEnv("TOKENS_AUDIENCE", "todo-web"),
			Timeout:      time.Duration(getIntEnv("TOKENS_TIMEOUT_MINUTES", 30)) * time.Minute,
			RefreshGrace: getDurationEnv("TOKENS_REFRESH_GRACE", 2*time.Hour),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getSliceEnv splits a comma-separated variable; an unset variable yields nil.
func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
