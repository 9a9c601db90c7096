// Package config reads environment-based settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-based settings.
type Config struct {
	ServerAddress  string
	DatabasePath   string
	MigrationsPath string
	JWTSecret      string

	// StationTimezone is the IANA location all schedule times are
	// interpreted in. Injected here instead of hard-coded so DST and
	// non-Chilean deployments just work.
	StationTimezone string

	AzuraCastURL       string
	AzuraCastAPIKey    string
	AzuraCastStationID int

	TTSBaseURL string
	TTSAPIKey  string
	TTSVoice   string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string

	UploadDir     string
	PublicBaseURL string

	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

// Load reads configuration from the environment, consulting a local .env
// file first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/cartwall.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		StationTimezone: getEnv("STATION_TIMEZONE", "America/Santiago"),

		AzuraCastURL:    os.Getenv("AZURACAST_URL"),
		AzuraCastAPIKey: os.Getenv("AZURACAST_API_KEY"),

		TTSBaseURL: os.Getenv("TTS_BASE_URL"),
		TTSAPIKey:  os.Getenv("TTS_API_KEY"),
		TTSVoice:   getEnv("TTS_VOICE", "es-CL-standard-a"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AzuraCastURL == "" {
		return nil, fmt.Errorf("AZURACAST_URL is required")
	}

	if raw := os.Getenv("AZURACAST_STATION_ID"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AZURACAST_STATION_ID %q: %w", raw, err)
		}
		cfg.AzuraCastStationID = id
	} else {
		cfg.AzuraCastStationID = 1
	}

	return cfg, nil
}

// Location resolves the configured station timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StationTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid STATION_TIMEZONE %q: %w", c.StationTimezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
