package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-ledger-go/internal/pkg/validator"
	"github.com/joho/godotenv"
)

// Punch sources
const (
	SourceAirtable = "airtable"
	SourcePostgres = "postgres"
	SourceXLSX     = "xlsx"
)

var supportedSources = []string{SourceAirtable, SourcePostgres, SourceXLSX}

type Config struct {
	Database DatabaseConfig
	Airtable AirtableConfig
	App      AppConfig
	Punch    PunchConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// AirtableConfig holds the Airtable base and table ids
type AirtableConfig struct {
	Token           string
	BaseID          string
	EmployeesTable  string
	AttendanceTable string
	BaseURL         string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	Timezone           string
}

// PunchConfig selects where punch rows come from and how often they are reloaded
type PunchConfig struct {
	Source          string
	XLSXPath        string
	RefreshInterval time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() (*Config, error) {
	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_ledger"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Airtable configuration
	config.Airtable = AirtableConfig{
		Token:           getEnv("AIRTABLE_TOKEN", ""),
		BaseID:          getEnv("AIRTABLE_BASE_ID", ""),
		EmployeesTable:  getEnv("AIRTABLE_EMPLOYEES_TABLE", ""),
		AttendanceTable: getEnv("AIRTABLE_ATTENDANCE_TABLE", ""),
		BaseURL:         getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		Timezone:           getEnv("TIMEZONE", "Local"),
	}

	// Punch source configuration
	interval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}

	config.Punch = PunchConfig{
		Source:          strings.ToLower(getEnv("PUNCH_SOURCE", SourceAirtable)),
		XLSXPath:        getEnv("PUNCH_XLSX_PATH", ""),
		RefreshInterval: interval,
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !validator.IsInSlice(c.Punch.Source, supportedSources) {
		return fmt.Errorf("unsupported PUNCH_SOURCE %q", c.Punch.Source)
	}

	switch c.Punch.Source {
	case SourceAirtable:
		if c.Airtable.Token == "" {
			return fmt.Errorf("AIRTABLE_TOKEN is required")
		}
		if c.Airtable.BaseID == "" {
			return fmt.Errorf("AIRTABLE_BASE_ID is required")
		}
		if c.Airtable.EmployeesTable == "" {
			return fmt.Errorf("AIRTABLE_EMPLOYEES_TABLE is required")
		}
		if c.Airtable.AttendanceTable == "" {
			return fmt.Errorf("AIRTABLE_ATTENDANCE_TABLE is required")
		}
	case SourcePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case SourceXLSX:
		if c.Punch.XLSXPath == "" {
			return fmt.Errorf("PUNCH_XLSX_PATH is required")
		}
	}

	if c.Punch.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return nil
}

// Location resolves TIMEZONE; "Local" and "" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
