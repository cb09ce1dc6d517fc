package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Pricing  PricingConfig
	Payment  PaymentConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// PricingConfig holds the platform's cut and the renter-side service fee.
// Both rates are fractions of the rental subtotal and must be in [0, 1).
type PricingConfig struct {
	CommissionRate float64
	ServiceFeeRate float64
}

type PaymentConfig struct {
	WebhookSecret string
}

var AppConfig *Config

func Load() error {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DB_URL", ""),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Pricing: PricingConfig{
			CommissionRate: getEnvAsFloat("COMMISSION_RATE", 0.10),
			ServiceFeeRate: getEnvAsFloat("SERVICE_FEE_RATE", 0.05),
		},
		Payment: PaymentConfig{
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
	}

	if err := validateRate("COMMISSION_RATE", AppConfig.Pricing.CommissionRate); err != nil {
		return err
	}
	if err := validateRate("SERVICE_FEE_RATE", AppConfig.Pricing.ServiceFeeRate); err != nil {
		return err
	}
	return nil
}

func validateRate(name string, rate float64) error {
	if rate < 0 || rate >= 1 {
		return fmt.Errorf("%s must be in [0, 1), got %v", name, rate)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
