package shared

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by [ApplyEnv].
const (
	EnvDeveloperToken = "AMX_DEVELOPER_TOKEN"
	EnvUserToken      = "AMX_USER_TOKEN"
	EnvStorefront     = "AMX_STOREFRONT"
	EnvBaseURL        = "AMX_BASE_URL"
	EnvDatabasePath   = "AMX_DATABASE_PATH"
)

// LoadDotEnv loads variables from a .env file in the working directory when one exists.
//
// A missing file is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overlays AMX_* environment variables onto the config.
//
// Environment values win over file values so tokens can stay out of config.toml.
func ApplyEnv(config *Config) {
	if v := os.Getenv(EnvDeveloperToken); v != "" {
		config.Credentials.AppleMusic.DeveloperToken = v
	}
	if v := os.Getenv(EnvUserToken); v != "" {
		config.Credentials.AppleMusic.UserToken = v
	}
	if v := os.Getenv(EnvStorefront); v != "" {
		config.Credentials.AppleMusic.Storefront = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		config.Database.Path = v
	}
}
