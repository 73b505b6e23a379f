package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StorageLocal = "local"
	StorageGCS   = "gcs"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	JWTSecret string
	JWTTTL    time.Duration

	ServerPort  string
	CORSOrigins string
	LogFormat   string
	MaxUploadMB int

	StorageMode         string
	StorageDir          string
	StoragePublicURL    string
	GCSBucket           string
	GCSCredentialsFile  string
	StorageEmulatorHost string

	RedisAddr    string
	RedisChannel string

	SendgridAPIKey    string
	SendgridFromEmail string
	SendgridFromName  string

	NotifyPollInterval time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	cfg := &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "learnify"),
		DBPath:     getEnv("DB_PATH", "learnify.db"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),
		JWTTTL:    getEnvDuration("JWT_TTL", 72*time.Hour),

		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 512),

		StorageMode:         strings.ToLower(getEnv("STORAGE_MODE", StorageLocal)),
		StorageDir:          getEnv("STORAGE_DIR", "uploads"),
		StoragePublicURL:    getEnv("STORAGE_PUBLIC_URL", ""),
		GCSBucket:           getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:  getEnv("GCS_CREDENTIALS_FILE", ""),
		StorageEmulatorHost: getEnv("STORAGE_EMULATOR_HOST", ""),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisChannel: getEnv("REDIS_CHANNEL", "learnify:notifications"),

		SendgridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendgridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@learnify.local"),
		SendgridFromName:  getEnv("SENDGRID_FROM_NAME", "Learnify"),

		NotifyPollInterval: getEnvDuration("NOTIFY_POLL_INTERVAL", 15*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that would make the server fail later at runtime.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageMode {
	case StorageLocal:
	case StorageGCS:
		if strings.TrimSpace(c.GCSBucket) == "" {
			return fmt.Errorf("GCS_BUCKET is required when STORAGE_MODE=gcs")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_MODE %q", c.StorageMode)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.NotifyPollInterval <= 0 {
		return fmt.Errorf("NOTIFY_POLL_INTERVAL must be positive")
	}
	return nil
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.DBPath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
