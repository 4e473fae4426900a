package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Routing RoutingConfig
	Cache   CacheConfig
	Paths   PathsConfig
	App     AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedHosts   []string
	TrustedOrigins []string
}

type RoutingConfig struct {
	ORSAPIKey string
	ORSBase   string
}

type CacheConfig struct {
	// RedisURL empty means caching is disabled; the app must still run.
	RedisURL string
}

type PathsConfig struct {
	StaticSrc  string
	StaticRoot string
	DataDir    string
	TmpDir     string
}

type AppConfig struct {
	Environment string
	SecretKey   string
	Debug       bool
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			AllowedHosts:   getEnvAsList("ALLOWED_HOSTS", "*"),
			TrustedOrigins: getEnvAsList("TRUSTED_ORIGINS", ""),
		},
		Routing: RoutingConfig{
			ORSAPIKey: getEnv("ORS_API_KEY", ""),
			ORSBase:   getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Paths: PathsConfig{
			StaticSrc:  getEnv("STATIC_SRC", "/app/static"),
			StaticRoot: getEnv("STATIC_ROOT", "/app/staticfiles"),
			DataDir:    getEnv("DATA_DIR", "data"),
			TmpDir:     getEnv("TMP_DIR", "/app/tmp"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			SecretKey:   getEnv("SECRET_KEY", ""),
			Debug:       getEnvAsBool("DEBUG", false),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.App.Environment == "production" && c.App.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required in production")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	if valueStr == "" {
		return nil
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
