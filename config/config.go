package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	v := viper.New()
	v.AutomaticEnv()
	goEnv := v.GetString("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_DRIVER    string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// CORS
	ALLOWED_ORIGINS string
	// Logging
	LOG_LEVEL string
	LOG_FILE  string
	// Background jobs and realtime relay
	CRON_ENABLED      bool
	REALTIME_PG_RELAY bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("JWT_ISSUER", "educonnect-api")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("REALTIME_PG_RELAY", false)

	return v
}

func Get() (*EnviornmentVariable, error) {
	v := newViper()

	envVariables := &EnviornmentVariable{
		GO_ENV:       v.GetString("GO_ENV"),
		DB_DRIVER:    v.GetString("DB_DRIVER"),
		DB_USER_NAME: v.GetString("DB_USER_NAME"),
		DB_PASSWORD:  v.GetString("DB_PASSWORD"),
		DB_NAME:      v.GetString("DB_NAME"),
		DB_HOST:      v.GetString("DB_HOST"),
		DB_PORT:      v.GetString("DB_PORT"),
		DB_SSL_MODE:  v.GetString("DB_SSL_MODE"),
		PORT:         v.GetInt("PORT"),
		// JWT
		JWT_SECRET: v.GetString("JWT_SECRET"),
		JWT_ISSUER: v.GetString("JWT_ISSUER"),
		// Redis
		REDIS_URL: v.GetString("REDIS_URL"),
		// CORS
		ALLOWED_ORIGINS: v.GetString("ALLOWED_ORIGINS"),
		// Logging
		LOG_LEVEL: v.GetString("LOG_LEVEL"),
		LOG_FILE:  v.GetString("LOG_FILE"),
		// Jobs
		CRON_ENABLED:      v.GetBool("CRON_ENABLED"),
		REALTIME_PG_RELAY: v.GetBool("REALTIME_PG_RELAY"),
	}

	if envVariables.PORT == 0 {
		envVariables.PORT = 8080
	}

	return envVariables, nil
}
