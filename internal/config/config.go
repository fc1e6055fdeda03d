/**
 * @description
 * This package handles the configuration management for the console service.
 * It uses the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the console service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	MarketplaceAPIBaseURL    string `mapstructure:"MARKETPLACE_API_BASE_URL"`
	MarketplaceTimeoutSecs   int    `mapstructure:"MARKETPLACE_HTTP_TIMEOUT_SECONDS"`
	SessionFile              string `mapstructure:"SESSION_FILE"`
	SuccessNoticeDelayMillis int    `mapstructure:"SUCCESS_NOTICE_DELAY_MS"`
	DashboardRefreshSchedule string `mapstructure:"DASHBOARD_REFRESH_SCHEDULE"`
}

// MarketplaceTimeout returns the backend HTTP timeout as a duration.
func (c Config) MarketplaceTimeout() time.Duration {
	return time.Duration(c.MarketplaceTimeoutSecs) * time.Second
}

// SuccessNoticeDelay returns the pause between a success notice and the
// completion callbacks that follow it.
func (c Config) SuccessNoticeDelay() time.Duration {
	return time.Duration(c.SuccessNoticeDelayMillis) * time.Millisecond
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
	viper.SetDefault("MARKETPLACE_HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SESSION_FILE", ".console-session.json")
	viper.SetDefault("SUCCESS_NOTICE_DELAY_MS", 1500)
	viper.SetDefault("DASHBOARD_REFRESH_SCHEDULE", "@every 5m")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")
	_ = viper.BindEnv("MARKETPLACE_API_BASE_URL")
	_ = viper.BindEnv("MARKETPLACE_HTTP_TIMEOUT_SECONDS")
	_ = viper.BindEnv("SESSION_FILE")
	_ = viper.BindEnv("SUCCESS_NOTICE_DELAY_MS")
	_ = viper.BindEnv("DASHBOARD_REFRESH_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.MarketplaceAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.MarketplaceAPIBaseURL), "/")
	config.SessionFile = strings.TrimSpace(config.SessionFile)

	if config.MarketplaceTimeoutSecs <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive marketplace timeout configured; using default\" seconds=%d", config.MarketplaceTimeoutSecs)
		config.MarketplaceTimeoutSecs = 30
	}
	if config.SuccessNoticeDelayMillis < 0 {
		log.Printf("level=warn component=config msg=\"negative success notice delay configured; coercing to zero\" ms=%d", config.SuccessNoticeDelayMillis)
		config.SuccessNoticeDelayMillis = 0
	}
	if strings.TrimSpace(config.DashboardRefreshSchedule) == "" {
		config.DashboardRefreshSchedule = "@every 5m"
	}

	return
}
