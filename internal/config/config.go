package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	DatabaseName string
	SQLitePath   string
	// SessionSecret signs the session cookies. When not configured a
	// fresh secret is generated per boot, which invalidates all existing
	// sessions on restart.
	SessionSecret string
	AdminUsername string
	AdminPassword string
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment still applies
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		databaseName = "catalogo"
	}

	sqlitePath := os.Getenv("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = filepath.Join("data", fmt.Sprintf("%s.db", databaseName))
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = uuid.NewString()
	}

	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	return &Config{
		Port:          port,
		DatabaseName:  databaseName,
		SQLitePath:    sqlitePath,
		SessionSecret: sessionSecret,
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
	}, nil
}
