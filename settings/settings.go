package settings

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var config Config

type Config struct {
	Postgres  PostgresConfig
	Supabase  SupabaseConfig
	Overture  OvertureConfig
	Server    ServerConfig
	BatchSize int
}

type PostgresConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
}

// ConnectionString returns the pgx connection string for the places database.
func (p PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
}

type OvertureConfig struct {
	Release  string
	S3Region string
}

// DatasetPath returns the S3 glob for the places theme of the configured release.
func (o OvertureConfig) DatasetPath() string {
	return fmt.Sprintf("s3://overturemaps-us-west-2/release/%s/theme=places/*/*", o.Release)
}

type ServerConfig struct {
	Port int
}

// InitializeConfig loads the configuration
// returns an error if there was a problem loading the configuration.
func InitializeConfig() error {
	return loadConfig()
}

// loadConfig reads the .env file when present and falls back to process
// environment variables, then to defaults.
func loadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	config = Config{
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			Database: getEnv("POSTGRES_DB", "mapier"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		},
		Overture: OvertureConfig{
			Release:  getEnv("OVERTURE_RELEASE", "2025-11-19.0"),
			S3Region: getEnv("S3_REGION", "us-west-2"),
		},
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		BatchSize: getEnvInt("BATCH_SIZE", 1000),
	}

	return nil
}

// GetConfig returns the current configuration.
func GetConfig() Config {
	return config
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
