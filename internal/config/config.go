/**
 * @description
 * This file handles configuration management for the collections-service.
 * It loads settings from environment variables, providing defaults for the
 * batch runner tuning knobs and the cron schedule.
 */
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the collections service.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	ServerPort     string `mapstructure:"SERVER_PORT"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`
	BusinessName   string `mapstructure:"BUSINESS_NAME"`

	EmailProviderURL string `mapstructure:"EMAIL_PROVIDER_URL"`
	EmailAPIKey      string `mapstructure:"EMAIL_API_KEY"`
	EmailFromAddress string `mapstructure:"EMAIL_FROM_ADDRESS"`

	SMSProviderURL string `mapstructure:"SMS_PROVIDER_URL"`
	SMSAccountSID  string `mapstructure:"SMS_ACCOUNT_SID"`
	SMSAuthToken   string `mapstructure:"SMS_AUTH_TOKEN"`
	SMSFromNumber  string `mapstructure:"SMS_FROM_NUMBER"`

	CollectionsRunSchedule string        `mapstructure:"COLLECTIONS_RUN_SCHEDULE"`
	BatchSize              int           `mapstructure:"BATCH_SIZE"`
	BatchConcurrency       int           `mapstructure:"BATCH_CONCURRENCY"`
	RetryMaxAttempts       int           `mapstructure:"RETRY_MAX_ATTEMPTS"`
	RetryBaseDelay         time.Duration `mapstructure:"RETRY_BASE_DELAY"`
	RunLockTTL             time.Duration `mapstructure:"RUN_LOCK_TTL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8085")
	viper.SetDefault("BUSINESS_NAME", "Recoup")
	viper.SetDefault("COLLECTIONS_RUN_SCHEDULE", "0 * * * *") // hourly
	viper.SetDefault("BATCH_SIZE", 50)
	viper.SetDefault("BATCH_CONCURRENCY", 10)
	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_BASE_DELAY", "1s")
	viper.SetDefault("RUN_LOCK_TTL", "10m")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("BUSINESS_NAME")
	_ = viper.BindEnv("EMAIL_PROVIDER_URL")
	_ = viper.BindEnv("EMAIL_API_KEY")
	_ = viper.BindEnv("EMAIL_FROM_ADDRESS")
	_ = viper.BindEnv("SMS_PROVIDER_URL")
	_ = viper.BindEnv("SMS_ACCOUNT_SID")
	_ = viper.BindEnv("SMS_AUTH_TOKEN")
	_ = viper.BindEnv("SMS_FROM_NUMBER")
	_ = viper.BindEnv("COLLECTIONS_RUN_SCHEDULE")
	_ = viper.BindEnv("BATCH_SIZE")
	_ = viper.BindEnv("BATCH_CONCURRENCY")
	_ = viper.BindEnv("RETRY_MAX_ATTEMPTS")
	_ = viper.BindEnv("RETRY_BASE_DELAY")
	_ = viper.BindEnv("RUN_LOCK_TTL")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
