package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretKeyLength = 32
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":           {},
	"changeme":                          {},
	"secret":                            {},
	"replace_with_a_long_random_secret": {},
}

type Config struct {
	Port            string        `yaml:"port"`
	Timezone        string        `yaml:"timezone"`
	SecretKey       string        `yaml:"secret_key"`
	DefaultLanguage string        `yaml:"default_language"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	Database        Database      `yaml:"database"`
	Log             Log           `yaml:"log"`
	Notifications   Notifications `yaml:"notifications"`
	Realtime        Realtime      `yaml:"realtime"`
	Telegram        Telegram      `yaml:"telegram"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
}

type Database struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Notifications struct {
	RetentionDays    int           `yaml:"retention_days"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	ReminderInterval time.Duration `yaml:"reminder_interval"`
}

type Realtime struct {
	SendBuffer       int           `yaml:"send_buffer"`
	NATSURL          string        `yaml:"nats_url"`
	NATSSubject      string        `yaml:"nats_subject"`
	PresenceInterval time.Duration `yaml:"presence_interval"`
}

type Telegram struct {
	BotToken string `yaml:"bot_token"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		Timezone:        "UTC",
		DefaultLanguage: "en",
		Database: Database{
			Driver: DriverSQLite,
			Path:   filepath.Join("data", "tandem.db"),
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Notifications: Notifications{
			RetentionDays:    30,
			SweepInterval:    6 * time.Hour,
			ReminderInterval: time.Hour,
		},
		Realtime: Realtime{
			SendBuffer:       64,
			NATSSubject:      "tandem.fanout",
			PresenceInterval: 15 * time.Second,
		},
		MetricsEnabled: true,
	}
}

// Load layers defaults, the optional TANDEM_CONFIG yaml file and environment
// variables, in that order, and validates the result.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("TANDEM_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Timezone, "TZ")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setString(&cfg.DefaultLanguage, "DEFAULT_LANGUAGE")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Path, "DB_PATH")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Realtime.NATSURL, "NATS_URL")
	setString(&cfg.Realtime.NATSSubject, "NATS_SUBJECT")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")

	if err := setBool(&cfg.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}
	if err := setBool(&cfg.MetricsEnabled, "METRICS_ENABLED"); err != nil {
		return err
	}
	if err := setInt(&cfg.Notifications.RetentionDays, "NOTIFICATION_RETENTION_DAYS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Realtime.SendBuffer, "REALTIME_SEND_BUFFER"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Notifications.SweepInterval, "NOTIFICATION_SWEEP_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Notifications.ReminderInterval, "DDAY_REMINDER_INTERVAL"); err != nil {
		return err
	}
	return setDuration(&cfg.Realtime.PresenceInterval, "REALTIME_PRESENCE_INTERVAL")
}

func (cfg Config) Validate() error {
	if err := ValidateSecretKey(cfg.SecretKey); err != nil {
		return err
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Database.Path) == "" {
			return errors.New("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Database.URL) == "" {
			return errors.New("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.Notifications.RetentionDays <= 0 {
		return errors.New("NOTIFICATION_RETENTION_DAYS must be positive")
	}
	if cfg.Notifications.SweepInterval <= 0 {
		return errors.New("NOTIFICATION_SWEEP_INTERVAL must be positive")
	}
	if cfg.Notifications.ReminderInterval <= 0 {
		return errors.New("DDAY_REMINDER_INTERVAL must be positive")
	}
	if cfg.Realtime.SendBuffer <= 0 {
		return errors.New("REALTIME_SEND_BUFFER must be positive")
	}
	if cfg.Realtime.PresenceInterval <= 0 {
		return errors.New("REALTIME_PRESENCE_INTERVAL must be positive")
	}
	return nil
}

func ValidateSecretKey(secret string) error {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return errors.New("SECRET_KEY is required")
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(trimmed)]; insecure {
		return errors.New("SECRET_KEY uses an insecure placeholder value")
	}
	if len(trimmed) < minSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return nil
}

func (cfg Config) RetentionAge() time.Duration {
	return time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour
}

func (cfg Config) Location() (*time.Location, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", cfg.Timezone, err)
	}
	return location, nil
}

func setString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func setBool(target *bool, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = parsed
	return nil
}

func setInt(target *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = parsed
	return nil
}

func setDuration(target *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = parsed
	return nil
}
