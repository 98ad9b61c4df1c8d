package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                string
	Env                 string
	DBPath              string
	LogLevel            string
	LogFile             string
	CORSOrigins         string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURL   string
	DefaultOrganization string

	// Mirror integrations. Empty values disable the target.
	NotionToken           string
	NotionDatabaseID      string
	NotionRateLimit       float64
	N8NWebhookURL         string
	N8NWebhookSecret      string
	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
	SheetsRange           string

	// PWA manifest
	AppName      string
	AppShortName string
	ThemeColor   string
}

var AppConfig *Config

var ErrMissingClientID = errors.New("GOOGLE_CLIENT_ID is required")

// Load reads .env (if present) and the process environment into AppConfig.
func Load() error {
	_ = godotenv.Load()

	AppConfig = &Config{
		Port:                GetEnv("PORT", "3000"),
		Env:                 GetEnv("ENV", "development"),
		DBPath:              GetEnv("DB_PATH", "./data/checkquest.db"),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFile:             GetEnv("LOG_FILE", ""),
		CORSOrigins:         GetEnv("CORS_ORIGINS", "*"),
		GoogleClientID:      GetEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  GetEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:   GetEnv("GOOGLE_REDIRECT_URL", "postmessage"),
		DefaultOrganization: GetEnv("DEFAULT_ORGANIZATION", "default"),

		NotionToken:           GetEnv("NOTION_TOKEN", ""),
		NotionDatabaseID:      GetEnv("NOTION_DATABASE_ID", ""),
		NotionRateLimit:       GetEnvFloat("NOTION_RATE_LIMIT", 3),
		N8NWebhookURL:         GetEnv("N8N_WEBHOOK_URL", ""),
		N8NWebhookSecret:      GetEnv("N8N_WEBHOOK_SECRET", ""),
		SheetsSpreadsheetID:   GetEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsFile: GetEnv("SHEETS_CREDENTIALS_FILE", ""),
		SheetsRange:           GetEnv("SHEETS_RANGE", "Checklists!A1"),

		AppName:      GetEnv("APP_NAME", "CheckQuest"),
		AppShortName: GetEnv("APP_SHORT_NAME", "CheckQuest"),
		ThemeColor:   GetEnv("THEME_COLOR", "#e4572e"),
	}

	if AppConfig.GoogleClientID == "" {
		return ErrMissingClientID
	}
	return nil
}

// IsProduction reports whether the app runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NotionEnabled reports whether both Notion credentials are configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}

// SheetsEnabled reports whether the Sheets mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.SheetsCredentialsFile != ""
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}
