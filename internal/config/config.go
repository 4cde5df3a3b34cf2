package config

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	StorageBackend  string // file | sqlite | postgres
	GoalsFile       string
	MilestonesFile  string
	CategoriesFile  string
	SQLitePath      string
	PostgresDSN     string

	JWTSecret   string
	MockToken   string
	CORSOrigins []string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Port:     getEnv("PORT", "8080"),

			StorageBackend: getEnv("STORAGE_BACKEND", "file"),
			GoalsFile:      getEnv("GOALS_FILE", "data/goals.json"),
			MilestonesFile: getEnv("MILESTONES_FILE", "data/milestones.json"),
			CategoriesFile: getEnv("CATEGORIES_FILE", "data/categories.json"),
			SQLitePath:     getEnv("SQLITE_PATH", "data/milestone-manager.db"),
			PostgresDSN:    getEnv("POSTGRES_DSN", ""),

			JWTSecret:   getEnv("JWT_SECRET", ""),
			MockToken:   getEnv("MOCK_TOKEN", "MOCK-TOKEN"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "file":
		if c.GoalsFile == "" || c.MilestonesFile == "" || c.CategoriesFile == "" {
			return errors.New("file storage requires GOALS_FILE, MILESTONES_FILE and CATEGORIES_FILE to be set")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	default:
		return errors.New("STORAGE_BACKEND must be one of: file, sqlite, postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Env != "development" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside development")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
