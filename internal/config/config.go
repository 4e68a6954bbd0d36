package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSessionSecret = "default-secret-key-change-me"
	defaultJWTSecret     = "default-jwt-secret-change-me"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost string
	RedisPort string

	SessionSecret string
	JWTSecret     string
	BcryptCost    int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	Cloudinary CloudinaryConfig

	OpenWeatherAPIKey string
	WeatherCacheTTL   time.Duration
}

// CloudinaryConfig holds the object storage credentials. It is passed
// explicitly to the gallery's object store at construction time.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all required Cloudinary credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   driver,
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", defaultPort),
		DBUser:     getEnv("DB_USER", "tripmate"),
		DBPassword: getEnv("DB_PASSWORD", "tripmate"),
		DBName:     getEnv("DB_NAME", "tripmate"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost: getEnv("REDIS_HOST", "localhost"),
		RedisPort: getEnv("REDIS_PORT", "6379"),

		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@tripmate.local"),

		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "tripmate_gallery"),
		},

		OpenWeatherAPIKey: getEnv("OPENWEATHER_API_KEY", ""),
		WeatherCacheTTL:   getEnvDuration("WEATHER_CACHE_TTL", 5*time.Minute),
	}
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	var problems []string

	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.GinMode == "release" {
		if c.SessionSecret == defaultSessionSecret {
			problems = append(problems, "SESSION_SECRET must be set in release mode")
		}
		if c.JWTSecret == defaultJWTSecret {
			problems = append(problems, "JWT_SECRET must be set in release mode")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RedisAddr returns host:port for the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}
