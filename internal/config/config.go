package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	ServiceName string `mapstructure:"SERVICE_NAME"`

	// Dataset
	DatasetPath        string  `mapstructure:"DATASET_PATH"`
	MaxInvalidFraction float64 `mapstructure:"MAX_INVALID_FRACTION"`

	// Redis (optional shared response store)
	RedisURL string `mapstructure:"REDIS_URL"`

	// AI Integration
	GeminiAPIKey     string        `mapstructure:"GEMINI_API_KEY"`
	AIModel          string        `mapstructure:"AI_MODEL"`
	AIRateLimit      int           `mapstructure:"AI_RATE_LIMIT"`
	AIRateWindow     time.Duration `mapstructure:"AI_RATE_WINDOW"`
	AIMaxRetries     int           `mapstructure:"AI_MAX_RETRIES"`
	AIRequestTimeout time.Duration `mapstructure:"AI_REQUEST_TIMEOUT"`
	AICacheTTL       time.Duration `mapstructure:"AI_CACHE_TTL"`

	// SWOT policy
	SWOTMinEntities         int     `mapstructure:"SWOT_MIN_ENTITIES"`
	SWOTDispersionThreshold float64 `mapstructure:"SWOT_DISPERSION_THRESHOLD"`

	// Prompt context
	TopPerformerMinBalls int `mapstructure:"TOP_PERFORMER_MIN_BALLS"`
	TopPerformerLimit    int `mapstructure:"TOP_PERFORMER_LIMIT"`
	MatchupEdgeLimit     int `mapstructure:"MATCHUP_EDGE_LIMIT"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("PORT", "8086")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVICE_NAME", "cricket-insights")

	viper.SetDefault("DATASET_PATH", "cricket_analytics_data.json")
	viper.SetDefault("MAX_INVALID_FRACTION", 0.5)

	viper.SetDefault("REDIS_URL", "")

	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("AI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("AI_RATE_LIMIT", 10)       // requests per window
	viper.SetDefault("AI_RATE_WINDOW", "1m")
	viper.SetDefault("AI_MAX_RETRIES", 3)
	viper.SetDefault("AI_REQUEST_TIMEOUT", "60s")
	viper.SetDefault("AI_CACHE_TTL", "24h")

	viper.SetDefault("SWOT_MIN_ENTITIES", 3)
	viper.SetDefault("SWOT_DISPERSION_THRESHOLD", 0.25)

	viper.SetDefault("TOP_PERFORMER_MIN_BALLS", 50)
	viper.SetDefault("TOP_PERFORMER_LIMIT", 5)
	viper.SetDefault("MATCHUP_EDGE_LIMIT", 5)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
