package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL string `validate:"required"`
	RedisURL    string

	CompaniesHouseAPIKey  string `validate:"required"`
	CompaniesHouseBaseURL string `validate:"required,url"`

	S3Bucket string `validate:"required"`
	S3Region string `validate:"required"`

	StagingDir      string `validate:"required"`
	KeepStagedFiles bool
	PageSize        int `validate:"gt=0"`

	RateLimitThreshold int           `validate:"gte=0"`
	RateLimitPause     time.Duration `validate:"gte=0"`

	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogPretty bool
	HTTPAddr  string
}

var defaults = map[string]any{
	"COMPANIES_HOUSE_BASE_URL": "https://api.companieshouse.gov.uk",
	"S3_BUCKET_NAME":           "company-data-ai",
	"AWS_S3_REGION":            "eu-north-1",
	"STAGING_DIR":              "./Accounts",
	"KEEP_STAGED_FILES":        true,
	"PAGE_SIZE":                300,
	"RATE_LIMIT_THRESHOLD":     10,
	"RATE_LIMIT_PAUSE":         "360s",
	"LOG_LEVEL":                "info",
	"LOG_PRETTY":               false,
	"HTTP_ADDR":                ":8080",
}

// LoadConfig reads configuration from environment variables (.env file)
func LoadConfig() (*Config, error) {
	// In production the variables are set directly, so a missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// AutomaticEnv only resolves keys viper already knows about.
	v.BindEnv("DATABASE_URL")
	v.BindEnv("REDIS_URL")
	v.BindEnv("COMPANIES_HOUSE_API_KEY")

	cfg := &Config{
		DatabaseURL:           v.GetString("DATABASE_URL"),
		RedisURL:              v.GetString("REDIS_URL"),
		CompaniesHouseAPIKey:  v.GetString("COMPANIES_HOUSE_API_KEY"),
		CompaniesHouseBaseURL: strings.TrimRight(v.GetString("COMPANIES_HOUSE_BASE_URL"), "/"),
		S3Bucket:              v.GetString("S3_BUCKET_NAME"),
		S3Region:              v.GetString("AWS_S3_REGION"),
		StagingDir:            v.GetString("STAGING_DIR"),
		KeepStagedFiles:       v.GetBool("KEEP_STAGED_FILES"),
		PageSize:              v.GetInt("PAGE_SIZE"),
		RateLimitThreshold:    v.GetInt("RATE_LIMIT_THRESHOLD"),
		RateLimitPause:        v.GetDuration("RATE_LIMIT_PAUSE"),
		LogLevel:              strings.ToLower(v.GetString("LOG_LEVEL")),
		LogPretty:             v.GetBool("LOG_PRETTY"),
		HTTPAddr:              v.GetString("HTTP_ADDR"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
