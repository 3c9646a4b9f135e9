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

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

// Load reads configuration from the environment. A .env file is honored
// when present so local runs don't need exported variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY is required")
	}

	return Config{
		Server: ServerConfig{
			Port:           getenv("API_PORT", "8080"),
			AllowedOrigins: strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ","),
		},
		Auth: AuthConfig{
			JWTSecret: secret,
			TokenTTL:  time.Duration(getenvInt("TOKEN_TTL_SECONDS", 3600)) * time.Second,
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
	}, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}
	return fallback
}
