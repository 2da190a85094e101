package config

import (
	"os"
	"strings"
)

const (
	appNameVar   = "APP_NAME"
	folderEnvVar = "FOLDER"
	baseURLVar   = "BASE_URL"
	logLevelVar  = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Rafiq")
}

// GetBaseURL returns the backend base URL (e.g., "https://api.rafiq.org").
// Endpoint paths such as /account/register/ are appended to it, so any
// trailing slash is dropped.
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:8000"), "/")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
