package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	StoreDriver string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	NavbarVariant      string
	NavbarProfilesPath string
	FeedLocation       *time.Location

	AWSRegion        string
	SESFromEmail     string
	SESFromName      string
	ReportRecipients []string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:               fallback(os.Getenv("PORT"), "8080"),
		StoreDriver:        strings.ToLower(fallback(os.Getenv("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:          fallback(os.Getenv("JWT_ISSUER"), "carecrate"),
		CORSOrigins:        parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		NavbarVariant:      fallback(os.Getenv("NAVBAR_VARIANT"), "pantry"),
		NavbarProfilesPath: strings.TrimSpace(os.Getenv("NAVBAR_PROFILES_PATH")),
		AWSRegion:          fallback(os.Getenv("AWS_REGION"), "us-east-1"),
		SESFromEmail:       strings.TrimSpace(os.Getenv("SES_FROM_EMAIL")),
		SESFromName:        fallback(os.Getenv("SES_FROM_NAME"), "CareCrate"),
		ReportRecipients:   parseList(os.Getenv("REPORT_RECIPIENTS")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "720")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 720 * time.Minute
	}

	loc, err := time.LoadLocation(fallback(os.Getenv("FEED_TIMEZONE"), "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("FEED_TIMEZONE: %w", err)
	}
	cfg.FeedLocation = loc

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	out := parseList(input)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseList(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
