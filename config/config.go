package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the service.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	DiscordToken string
	JWTSecretKey string
	ServerPort   int

	// OrganizerPasswordHash is the bcrypt hash checked by the login endpoint.
	OrganizerPasswordHash string

	// SweepInterval is the cadence of the registration open/close sweeps.
	SweepInterval time.Duration

	// R2 archive storage. Optional: when AccountID is empty the roster
	// archive on scrim deletion is skipped.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	token := os.Getenv("DISCORD_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	sweepInterval := 10 * time.Second
	if s := os.Getenv("SWEEP_INTERVAL"); s != "" {
		sweepInterval, err = time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL environment variable: %w", err)
		}
		if sweepInterval <= 0 {
			return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", sweepInterval)
		}
	}

	cfg := &Config{
		DatabaseURL:           dbURL,
		RedisURL:              os.Getenv("REDIS_URL"),
		DiscordToken:          token,
		JWTSecretKey:          jwtKey,
		ServerPort:            port,
		OrganizerPasswordHash: os.Getenv("ORGANIZER_PASSWORD_HASH"),
		SweepInterval:         sweepInterval,
		R2AccountID:           os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:         os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:          os.Getenv("R2_BUCKET_NAME"),
	}

	return cfg, nil
}
