package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Missing client ID fails", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "")
		err := Load()
		assert.ErrorIs(t, err, ErrMissingClientID)
	})

	t.Run("Defaults applied", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("PORT", "")
		t.Setenv("NOTION_TOKEN", "")
		require.NoError(t, Load())

		assert.Equal(t, "3000", AppConfig.Port)
		assert.Equal(t, "default", AppConfig.DefaultOrganization)
		assert.Equal(t, 3.0, AppConfig.NotionRateLimit)
		assert.False(t, AppConfig.NotionEnabled())
		assert.False(t, AppConfig.IsProduction())
	})

	t.Run("Integrations enabled by env", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("NOTION_TOKEN", "secret")
		t.Setenv("NOTION_DATABASE_ID", "db")
		t.Setenv("SHEETS_SPREADSHEET_ID", "sheet")
		t.Setenv("SHEETS_CREDENTIALS_FILE", "/tmp/creds.json")
		require.NoError(t, Load())

		assert.True(t, AppConfig.NotionEnabled())
		assert.True(t, AppConfig.SheetsEnabled())
	})
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("RATE", "not-a-number")
	assert.Equal(t, 2.5, GetEnvFloat("RATE", 2.5))

	t.Setenv("RATE", "-1")
	assert.Equal(t, 2.5, GetEnvFloat("RATE", 2.5))

	t.Setenv("RATE", "7")
	assert.Equal(t, 7.0, GetEnvFloat("RATE", 2.5))
}
