package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tasteit/internal/i18n"
)

// Config holds all configuration for the bot.
type Config struct {
	Dev     bool
	Console bool
	HomeDir string // ~/.tasteit unless overridden

	Telegram TelegramConfig
	Places   PlacesConfig
	Database DatabaseConfig
	Server   ServerConfig
	Bot      BotConfig
	Logging  LoggingConfig
}

// TelegramConfig holds Bot API credentials and delivery mode.
type TelegramConfig struct {
	Token          string
	DevToken       string
	OperatorChatID int64
	Mode           string // polling or webhook
	WebhookURL     string
	WebhookSecret  string
}

// PlacesConfig holds the places provider settings.
type PlacesConfig struct {
	APIKey           string
	APIBase          string
	Timeout          int // seconds
	GeocodeCacheSize int
}

// DatabaseConfig holds repository settings for both drivers.
type DatabaseConfig struct {
	Driver             string // sqlite or postgres
	Path               string
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	AllowedOrigins string
}

// BotConfig holds conversation policy values.
type BotConfig struct {
	FlowTimeout        int // seconds
	PollDuration       int // seconds
	DefaultWalkRadius  int
	DefaultDriveRadius int
	DefaultLanguage    string
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ModePolling = "polling"
	ModeWebhook = "webhook"

	// MaxRadius is the largest accepted search radius in meters.
	MaxRadius = 50000
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// .env files are optional; values already in the environment win.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	home, err := DefaultHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Dev:     getEnvAsBool("TASTEIT_DEV", false),
		HomeDir: getEnv("TASTEIT_HOME", home),
		Telegram: TelegramConfig{
			Token:          getEnv("TELEGRAM_TOKEN", ""),
			DevToken:       getEnv("TELEGRAM_DEV_TOKEN", ""),
			OperatorChatID: getEnvAsInt64("TELEGRAM_OPERATOR_CHAT_ID", 0),
			Mode:           strings.ToLower(getEnv("TELEGRAM_MODE", ModePolling)),
			WebhookURL:     getEnv("TELEGRAM_WEBHOOK_URL", ""),
			WebhookSecret:  getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
		},
		Places: PlacesConfig{
			APIKey:           getEnv("GOOGLE_PLACES_API_KEY", ""),
			APIBase:          strings.TrimRight(getEnv("GOOGLE_API_BASE", "https://maps.googleapis.com/maps/api"), "/"),
			Timeout:          getEnvAsInt("PROVIDER_TIMEOUT", 10),
			GeocodeCacheSize: getEnvAsInt("GEOCODE_CACHE_SIZE", 256),
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:               getEnv("DB_PATH", ""),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "tasteit"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Bot: BotConfig{
			FlowTimeout:        getEnvAsInt("FLOW_TIMEOUT", 300),
			PollDuration:       getEnvAsInt("POLL_DURATION", 300),
			DefaultWalkRadius:  getEnvAsInt("DEFAULT_WALK_RADIUS", 1000),
			DefaultDriveRadius: getEnvAsInt("DEFAULT_DRIVE_RADIUS", 10000),
			DefaultLanguage:    strings.ToLower(getEnv("DEFAULT_LANGUAGE", i18n.Fallback)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if cfg.Telegram.WebhookSecret == "" {
		cfg.Telegram.WebhookSecret = uuid.NewString()
	}
	return cfg, nil
}

// DefaultHomeDir returns ~/.tasteit.
func DefaultHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".tasteit"), nil
}

// Validate reports every invalid setting. Console mode needs no bot token.
func (c *Config) Validate() error {
	var errs []error
	if !c.Console && c.BotToken() == "" {
		if c.Dev {
			errs = append(errs, errors.New("TELEGRAM_DEV_TOKEN must be set in dev mode"))
		} else {
			errs = append(errs, errors.New("TELEGRAM_TOKEN must be set"))
		}
	}
	if c.Places.APIKey == "" {
		errs = append(errs, errors.New("GOOGLE_PLACES_API_KEY must be set"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" && !c.Console {
			errs = append(errs, errors.New("TELEGRAM_WEBHOOK_URL must be set in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("TELEGRAM_MODE %q is not polling or webhook", c.Telegram.Mode))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not sqlite or postgres", c.Database.Driver))
	}
	if c.Places.Timeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if c.Places.GeocodeCacheSize <= 0 {
		errs = append(errs, errors.New("GEOCODE_CACHE_SIZE must be positive"))
	}
	if c.Bot.FlowTimeout <= 0 {
		errs = append(errs, errors.New("FLOW_TIMEOUT must be positive"))
	}
	if c.Bot.PollDuration < 5 || c.Bot.PollDuration > 600 {
		errs = append(errs, errors.New("POLL_DURATION must be between 5 and 600 seconds"))
	}
	if !validRadius(c.Bot.DefaultWalkRadius) {
		errs = append(errs, fmt.Errorf("DEFAULT_WALK_RADIUS must be in (0, %d]", MaxRadius))
	}
	if !validRadius(c.Bot.DefaultDriveRadius) {
		errs = append(errs, fmt.Errorf("DEFAULT_DRIVE_RADIUS must be in (0, %d]", MaxRadius))
	}
	if !i18n.IsSupported(c.Bot.DefaultLanguage) {
		errs = append(errs, fmt.Errorf("DEFAULT_LANGUAGE %q is not one of %v", c.Bot.DefaultLanguage, i18n.Codes()))
	}
	return errors.Join(errs...)
}

func validRadius(r int) bool {
	return r > 0 && r <= MaxRadius
}

// BotToken returns the token for the active environment.
func (c *Config) BotToken() string {
	if c.Dev {
		return c.Telegram.DevToken
	}
	return c.Telegram.Token
}

// DBPath returns the sqlite file, defaulting to tasteit.db in HomeDir.
func (c *Config) DBPath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.HomeDir, "tasteit.db")
}

// LogFile returns the console-mode log file, defaulting to tasteit.log in HomeDir.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.HomeDir, "tasteit.log")
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.Database.Driver != DriverPostgres {
		return c.DBPath()
	}
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// ServerAddr returns host:port for the HTTP server.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer value, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		slog.Warn("invalid integer value, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
