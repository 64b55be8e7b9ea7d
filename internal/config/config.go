/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Durable store: DATABASE_URL selects Postgres; otherwise documents are
	// kept as JSON files under DATA_DIR.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DataDir     string `mapstructure:"DATA_DIR"`

	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	TransferEventExchange string `mapstructure:"TRANSFER_EVENT_EXCHANGE"`

	// Identity provider token verification.
	GoogleJWKSURL  string `mapstructure:"GOOGLE_JWKS_URL"`
	GoogleAudience string `mapstructure:"GOOGLE_AUDIENCE"`
	GoogleIssuer   string `mapstructure:"GOOGLE_ISSUER"`

	StartingGrant              int64  `mapstructure:"STARTING_GRANT"`
	TransferRateLimitPerMinute int    `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
	AuditSchedule              string `mapstructure:"AUDIT_SCHEDULE"`
	CORSAllowedOrigins         string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("TRANSFER_EVENT_EXCHANGE", "atlas.events")
	viper.SetDefault("GOOGLE_JWKS_URL", "https://www.googleapis.com/oauth2/v3/certs")
	viper.SetDefault("GOOGLE_ISSUER", "https://accounts.google.com")
	viper.SetDefault("STARTING_GRANT", 1000)
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 0)
	viper.SetDefault("AUDIT_SCHEDULE", "@every 1m")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "atlas:rate_limit")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("DATA_DIR")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TRANSFER_EVENT_EXCHANGE")
	_ = viper.BindEnv("GOOGLE_JWKS_URL")
	_ = viper.BindEnv("GOOGLE_AUDIENCE")
	_ = viper.BindEnv("GOOGLE_ISSUER")
	_ = viper.BindEnv("STARTING_GRANT")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("AUDIT_SCHEDULE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "atlas:rate_limit"
	}

	if config.StartingGrant <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive starting grant configured; using default\" grant=%d", config.StartingGrant)
		config.StartingGrant = 1000
	}
	if config.TransferRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative transfer rate limit configured; disabling\" limit=%d", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}
	if strings.TrimSpace(config.AuditSchedule) == "" {
		config.AuditSchedule = "@every 1m"
	}

	return
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
