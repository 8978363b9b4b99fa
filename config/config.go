package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

// IsConfigured returns true if all required SMTP configuration is present
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" &&
		c.Port != "" &&
		c.From != ""
	// Note: Username and Password are optional (open relays in dev)
}

type SMSConfig struct {
	GatewayURL string
	APIKey     string
	SenderID   string
}

// IsConfigured returns true if all required SMS gateway configuration is present
func (c SMSConfig) IsConfigured() bool {
	return c.GatewayURL != "" &&
		c.APIKey != ""
}

type RedisConfig struct {
	URL string
}

// IsConfigured returns true if the live-call registry is reachable via Redis
func (c RedisConfig) IsConfigured() bool {
	return c.URL != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL        string
	DatabaseSchema     string
	Port               string // Optional with default "8080"
	CORSAllowedOrigins string // Optional with default "*"
	Environment        string
	JWTSecret          string
	AlertWebhookURL    string // Optional ops webhook for error alerts
	UseStrictConfig    bool // If true, error when any integration is not fully configured

	// Timing knobs
	OTPTTL         time.Duration // validity window for one-time codes
	WrapupCooldown time.Duration // cool-down before the next auto-dial claim

	// Integration configurations (grouped)
	SMTPConfig  SMTPConfig
	SMSConfig   SMSConfig
	RedisConfig RedisConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	jwtSecret, err := getEnvRequired("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	otpTTL, err := getEnvDuration("OTP_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}

	wrapupCooldown, err := getEnvDuration("WRAPUP_COOLDOWN_SECONDS", 120)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:        databaseURL,
		DatabaseSchema:     databaseSchema,
		Port:               getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins: getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "dev"),
		JWTSecret:          jwtSecret,
		AlertWebhookURL:    os.Getenv("ALERT_WEBHOOK_URL"),
		UseStrictConfig:    getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",

		OTPTTL:         otpTTL,
		WrapupCooldown: wrapupCooldown,

		// SMTP configuration (optional)
		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			From:     os.Getenv("SMTP_FROM"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},

		// SMS gateway configuration (optional)
		SMSConfig: SMSConfig{
			GatewayURL: os.Getenv("SMS_GATEWAY_URL"),
			APIKey:     os.Getenv("SMS_API_KEY"),
			SenderID:   os.Getenv("SMS_SENDER_ID"),
		},

		// Redis live-call registry (optional)
		RedisConfig: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
	}

	// Log which integrations are configured
	if config.SMTPConfig.IsConfigured() {
		log.Printf("✅ SMTP delivery configured")
	} else {
		log.Printf("⚠️ SMTP delivery not configured - OTP emails will be logged only")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("SMTP delivery is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.SMSConfig.IsConfigured() {
		log.Printf("✅ SMS gateway configured")
	} else {
		log.Printf("⚠️ SMS gateway not configured - OTP texts will be logged only")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("SMS gateway is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.RedisConfig.IsConfigured() {
		log.Printf("✅ Live-call registry configured")
	} else {
		log.Printf("⚠️ Live-call registry not configured - every agent is assumed off-call")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("live-call registry is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%s must be a positive number of seconds", key)
	}
	return time.Duration(seconds) * time.Second, nil
}
