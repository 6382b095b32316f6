package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Reasoning ReasoningConfig
	Scheduler SchedulerConfig
	Catalog   CatalogConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReasoningConfig configures the external reasoning service used by the
// schedule optimizer.
type ReasoningConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SchedulerConfig tunes the draft builder defaults and pipeline limits.
type SchedulerConfig struct {
	WorkdayStart    string
	WorkdayEnd      string
	LessonMinutes   int
	MaxBatchSize    int
	GridCacheTTL    time.Duration
	ExcludeWeekends bool
	MaxConsecutive  int
	MinBreakMinutes int
}

// CatalogConfig governs catalog snapshot caching.
type CatalogConfig struct {
	CacheTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reasoning = ReasoningConfig{
		APIKey:  v.GetString("GEMINI_API_KEY"),
		Model:   v.GetString("GEMINI_MODEL"),
		Timeout: parseDuration(v.GetString("GEMINI_TIMEOUT"), 90*time.Second),
	}

	cfg.Scheduler = SchedulerConfig{
		WorkdayStart:    v.GetString("SCHEDULER_WORKDAY_START"),
		WorkdayEnd:      v.GetString("SCHEDULER_WORKDAY_END"),
		LessonMinutes:   v.GetInt("SCHEDULER_LESSON_MINUTES"),
		MaxBatchSize:    v.GetInt("SCHEDULER_MAX_BATCH_SIZE"),
		GridCacheTTL:    parseDuration(v.GetString("SCHEDULER_GRID_CACHE_TTL"), 5*time.Minute),
		ExcludeWeekends: v.GetBool("SCHEDULER_EXCLUDE_WEEKENDS"),
		MaxConsecutive:  v.GetInt("SCHEDULER_MAX_CONSECUTIVE_HOURS"),
		MinBreakMinutes: v.GetInt("SCHEDULER_MIN_BREAK_MINUTES"),
	}

	cfg.Catalog = CatalogConfig{
		CacheTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edupanel_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "edupanel")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GEMINI_TIMEOUT", "90s")

	v.SetDefault("SCHEDULER_WORKDAY_START", "08:00")
	v.SetDefault("SCHEDULER_WORKDAY_END", "18:00")
	v.SetDefault("SCHEDULER_LESSON_MINUTES", 60)
	v.SetDefault("SCHEDULER_MAX_BATCH_SIZE", 256)
	v.SetDefault("SCHEDULER_GRID_CACHE_TTL", "5m")
	v.SetDefault("SCHEDULER_EXCLUDE_WEEKENDS", true)
	v.SetDefault("SCHEDULER_MAX_CONSECUTIVE_HOURS", 4)
	v.SetDefault("SCHEDULER_MIN_BREAK_MINUTES", 30)

	v.SetDefault("CATALOG_CACHE_TTL", "10m")
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
