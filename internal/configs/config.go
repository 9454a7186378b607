package configs

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nimeshabuddhika/helix-alm-go/pkg"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/halm"
	"github.com/nimeshabuddhika/helix-alm-go/pkg/utils"
)

// Config carries everything the CLI needs to reach a Helix ALM REST API
// server. Values come from HALM_* environment variables, an optional yaml
// file, and defaults, in that order of precedence.
type Config struct {
	APIURL             string  `mapstructure:"API_URL" validate:"required,url"`
	Username           string  `mapstructure:"USERNAME" validate:"required"`
	Password           string  `mapstructure:"PASSWORD"`
	Project            string  `mapstructure:"PROJECT" validate:"required"`
	InsecureSkipVerify bool    `mapstructure:"INSECURE_SKIP_VERIFY"`
	TimeoutSeconds     int     `mapstructure:"TIMEOUT_SECONDS" validate:"min=1"`
	MaxRetries         int     `mapstructure:"MAX_RETRIES" validate:"min=-1"`
	RateLimit          float64 `mapstructure:"RATE_LIMIT" validate:"min=0"`
	RateBurst          int     `mapstructure:"RATE_BURST" validate:"min=0"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("halm") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("API_URL", halm.DefaultBaseURL)
	viper.SetDefault("USERNAME", "administrator")
	viper.SetDefault("PROJECT", "Traditional Template")
	viper.SetDefault("TIMEOUT_SECONDS", "30")
	viper.SetDefault("MAX_RETRIES", "2")
	viper.SetDefault("RATE_LIMIT", "0")
	viper.SetDefault("RATE_BURST", "1")

	// Optional: Read from config.yaml if exists
	if pkg.ModeRelease == pkg.Mode() {
		viper.SetConfigName("config")
	} else {
		logger.Warn("running in debug mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.halm")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}

// ClientConfig assembles the REST client settings from this configuration.
func (c *Config) ClientConfig(logger *zap.Logger) halm.Config {
	return halm.Config{
		BaseURL:            c.APIURL,
		Credentials:        halm.BasicAuth{Username: c.Username, Password: c.Password},
		Logger:             logger,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries:         c.MaxRetries,
		RateLimit:          c.RateLimit,
		RateBurst:          c.RateBurst,
	}
}
