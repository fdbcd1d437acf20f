package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const appName = "daydesk"

// Config holds all daydesk configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	Timezone string

	Log     LogConfig
	Planner PlannerConfig
	Store   StoreConfig
	Blobs   BlobsConfig
	Notes   NotesConfig
	CalDAV  CalDAVConfig
	Google  GoogleConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type PlannerConfig struct {
	DayStart    string `mapstructure:"day_start"`
	DayEnd      string `mapstructure:"day_end"`
	StepMinutes int    `mapstructure:"step_minutes"`
}

type StoreConfig struct {
	Debounce time.Duration
}

type BlobsConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

type NotesConfig struct {
	Keywords []string
}

// CalDAVConfig points at the calendar tasks are published to.
type CalDAVConfig struct {
	Endpoint string
	Username string
	Password string
	Calendar string
}

// Enabled reports whether publishing is configured.
func (c CalDAVConfig) Enabled() bool {
	return c.Endpoint != "" && c.Calendar != ""
}

type GoogleConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	CalendarIDs  []string `mapstructure:"calendar_ids"`
	Days         int
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads .env (if present), then daydesk.yaml from ./, $HOME/.config/daydesk
// or the explicit path, then DAYDESK_* environment variables.
func Load(path string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	// Comma-separated lists from the environment arrive as one element.
	cfg.Google.CalendarIDs = splitList(cfg.Google.CalendarIDs)
	cfg.Notes.Keywords = splitList(cfg.Notes.Keywords)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := ".daydesk"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", appName)
	}
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("timezone", "Local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("planner.day_start", "08:00")
	v.SetDefault("planner.day_end", "20:00")
	v.SetDefault("planner.step_minutes", 30)

	v.SetDefault("store.debounce", 120*time.Millisecond)
	v.SetDefault("blobs.cache_size", 32)
	v.SetDefault("notes.keywords", []string{})

	v.SetDefault("caldav.endpoint", "")
	v.SetDefault("caldav.username", "")
	v.SetDefault("caldav.password", "")
	v.SetDefault("caldav.calendar", "")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.calendar_ids", []string{})
	v.SetDefault("google.days", 1)
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.Planner.StepMinutes <= 0 {
		return fmt.Errorf("planner.step_minutes must be positive, got %d", c.Planner.StepMinutes)
	}
	if c.Google.Days <= 0 {
		c.Google.Days = 1
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
