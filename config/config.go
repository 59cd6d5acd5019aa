package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redsys   RedsysConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// RedsysConfig configures the card gateway adapter. The secret is the base64
// of the 24-byte 3DES key shared with the processor.
type RedsysConfig struct {
	MerchantCode    string
	Terminal        string // 3-digit zero-padded
	SecretKeyB64    string
	EndpointURL     string // redirect form target at the processor
	PublicBaseURL   string // builds notification/success/failure URLs
	Currency        string // numeric ISO 4217
	FreshnessWindow time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "tenerife:tenerife@tcp(localhost:3306)/tenerife_tours?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "tenerife-paradise-tours",
		},
		Redsys: RedsysConfig{
			MerchantCode:    os.Getenv("REDSYS_MERCHANT_CODE"),
			Terminal:        getenv("REDSYS_TERMINAL", "001"),
			SecretKeyB64:    os.Getenv("REDSYS_SECRET_KEY"),
			EndpointURL:     getenv("REDSYS_ENDPOINT_URL", "https://sis-t.redsys.es:25443/sis/realizarPago"),
			PublicBaseURL:   os.Getenv("PUBLIC_BASE_URL"),
			Currency:        getenv("REDSYS_CURRENCY", "978"),
			FreshnessWindow: getenvDuration("REDSYS_FRESHNESS_WINDOW", 5*time.Minute),
		},
	}
}

var terminalRe = regexp.MustCompile(`^[0-9]{3}$`)

// Validate fails fast on gateway misconfiguration, before any network call.
func (c *Config) Validate() error {
	if c.Redsys.MerchantCode == "" {
		return fmt.Errorf("config: REDSYS_MERCHANT_CODE is required")
	}
	if !terminalRe.MatchString(c.Redsys.Terminal) {
		return fmt.Errorf("config: REDSYS_TERMINAL must be a 3-digit zero-padded string")
	}
	if c.Redsys.SecretKeyB64 == "" {
		return fmt.Errorf("config: REDSYS_SECRET_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(c.Redsys.SecretKeyB64)
	if err != nil {
		return fmt.Errorf("config: REDSYS_SECRET_KEY is not valid base64")
	}
	if len(key) != 24 {
		return fmt.Errorf("config: REDSYS_SECRET_KEY must decode to 24 bytes, got %d", len(key))
	}
	if c.Redsys.PublicBaseURL == "" {
		return fmt.Errorf("config: PUBLIC_BASE_URL is required")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
