// Package config loads pdfchat settings from defaults, an optional YAML
// file, .env and PDFCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jwulff/pdfchat/internal/db"
	"github.com/jwulff/pdfchat/internal/speech"
)

// Config holds all pdfchat configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Speech  SpeechConfig  `yaml:"speech"`
}

// ServerConfig locates the chat backend.
type ServerConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// RequestTimeout bounds each call; "0" or empty means no timeout.
	RequestTimeout string `yaml:"request_timeout"`
}

// StorageConfig configures the local sqlite store.
type StorageConfig struct {
	DBPath string `yaml:"db_path" validate:"required"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	File       string `yaml:"file" validate:"required"`
	Verbose    bool   `yaml:"verbose"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// SpeechConfig configures speech input and output.
type SpeechConfig struct {
	Enabled      bool    `yaml:"enabled"`
	DaemonSocket string  `yaml:"daemon_socket"`
	Locale       string  `yaml:"locale" validate:"required"`
	Synthesizer  string  `yaml:"synthesizer"`
	Rate         float64 `yaml:"rate" validate:"gt=0,lte=4"`
	SpeakHistory bool    `yaml:"speak_history"`
}

// Dir is the per-user pdfchat directory.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "pdfchat")
}

// DefaultPath is where Load looks when no file is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://127.0.0.1:5000",
			RequestTimeout: "0",
		},
		Storage: StorageConfig{
			DBPath: db.DefaultDBPath(),
		},
		Log: LogConfig{
			File:       filepath.Join(Dir(), "pdfchat.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Speech: SpeechConfig{
			Enabled:      true,
			DaemonSocket: speech.DefaultSocketPath(),
			Locale:       "en-US",
			Rate:         1.06,
			SpeakHistory: true,
		},
	}
}

// Load builds the configuration. A missing file at the default path is not
// an error; a missing file the user named explicitly is. The result is not
// validated so callers can apply flag overrides first; call Validate.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// .env is optional; real environment variables take precedence over it.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.BaseURL = getEnv("PDFCHAT_URL", c.Server.BaseURL)
	c.Server.RequestTimeout = getEnv("PDFCHAT_TIMEOUT", c.Server.RequestTimeout)
	c.Storage.DBPath = getEnv("PDFCHAT_DB", c.Storage.DBPath)
	c.Log.File = getEnv("PDFCHAT_LOG_FILE", c.Log.File)
	c.Log.Verbose = getEnvAsBool("PDFCHAT_VERBOSE", c.Log.Verbose)
	c.Speech.Enabled = getEnvAsBool("PDFCHAT_SPEECH", c.Speech.Enabled)
	c.Speech.DaemonSocket = getEnv("PDFCHAT_SPEECH_SOCKET", c.Speech.DaemonSocket)
	c.Speech.Locale = getEnv("PDFCHAT_SPEECH_LOCALE", c.Speech.Locale)
	c.Speech.Synthesizer = getEnv("PDFCHAT_TTS", c.Speech.Synthesizer)
	c.Speech.Rate = getEnvAsFloat("PDFCHAT_TTS_RATE", c.Speech.Rate)
	c.Speech.SpeakHistory = getEnvAsBool("PDFCHAT_SPEAK_HISTORY", c.Speech.SpeakHistory)
}

var validate = validator.New()

// Validate checks field constraints and the timeout syntax.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("invalid config: server.request_timeout: %w", err)
	}
	return nil
}

// Timeout returns the per-request timeout; zero means none.
func (c *Config) Timeout() (time.Duration, error) {
	switch c.Server.RequestTimeout {
	case "", "0":
		return 0, nil
	}
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", d)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}
