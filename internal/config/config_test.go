package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "PUNCH_SOURCE", "REFRESH_INTERVAL", "CORS_ALLOWED_ORIGINS", "TIMEZONE", "DB_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, SourceAirtable, cfg.Punch.Source)
	assert.Equal(t, 15*time.Minute, cfg.Punch.RefreshInterval)
	assert.Empty(t, cfg.App.CORSAllowedOrigins)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PUNCH_SOURCE", "XLSX")
	t.Setenv("PUNCH_XLSX_PATH", "/data/punches.xlsx")
	t.Setenv("REFRESH_INTERVAL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, SourceXLSX, cfg.Punch.Source)
	assert.Equal(t, time.Hour, cfg.Punch.RefreshInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSAllowedOrigins)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")

	_, err := FromEnv()

	assert.ErrorContains(t, err, "APP_PORT")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "airtable requires token",
			cfg:     Config{Punch: PunchConfig{Source: SourceAirtable}},
			wantErr: "AIRTABLE_TOKEN",
		},
		{
			name: "airtable complete",
			cfg: Config{
				Punch:    PunchConfig{Source: SourceAirtable},
				Airtable: AirtableConfig{Token: "t", BaseID: "b", EmployeesTable: "e", AttendanceTable: "a"},
			},
		},
		{
			name:    "postgres requires password",
			cfg:     Config{Punch: PunchConfig{Source: SourcePostgres}},
			wantErr: "DB_PASSWORD",
		},
		{
			name:    "xlsx requires path",
			cfg:     Config{Punch: PunchConfig{Source: SourceXLSX}},
			wantErr: "PUNCH_XLSX_PATH",
		},
		{
			name:    "unknown source",
			cfg:     Config{Punch: PunchConfig{Source: "csv"}},
			wantErr: "unsupported PUNCH_SOURCE",
		},
		{
			name: "bad timezone",
			cfg: Config{
				Punch: PunchConfig{Source: SourceXLSX, XLSXPath: "p.xlsx"},
				App:   AppConfig{Timezone: "Mars/Olympus"},
			},
			wantErr: "TIMEZONE",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, c.wantErr)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := Config{Database: DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}}

	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", cfg.DatabaseURL())
}
