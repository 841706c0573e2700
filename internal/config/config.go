package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	// Paynow gateway credentials. All four must be present for the
	// gateway to be considered configured.
	PaynowIntegrationID  string
	PaynowIntegrationKey string
	PaynowReturnURL      string
	PaynowResultURL      string

	// SMTP settings for order notifications. When SMTPHost is empty the
	// server falls back to a no-op dispatcher.
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	AdminEmail   string

	SessionSecret string

	// Site-wide delivery fee applied to delivery orders, decimal string.
	DeliveryFee string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		PaynowIntegrationID:  os.Getenv("PAYNOW_INTEGRATION_ID"),
		PaynowIntegrationKey: os.Getenv("PAYNOW_INTEGRATION_KEY"),
		PaynowReturnURL:      os.Getenv("PAYNOW_RETURN_URL"),
		PaynowResultURL:      os.Getenv("PAYNOW_RESULT_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    os.Getenv("FROM_EMAIL"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		DeliveryFee:   os.Getenv("DELIVERY_FEE"),
	}

	if cfg.DeliveryFee == "" {
		cfg.DeliveryFee = "0.00"
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// PaynowConfigured reports whether every credential the gateway needs is set.
func (c *Config) PaynowConfigured() bool {
	return c.PaynowIntegrationID != "" &&
		c.PaynowIntegrationKey != "" &&
		c.PaynowReturnURL != "" &&
		c.PaynowResultURL != ""
}
