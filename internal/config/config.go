// Package config loads the studio configuration from the environment,
// optionally overlaid by a YAML file for deployments that prefer files
// over env vars.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GeminiAPIKey string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	ListenAddr   string
	DatabasePath string

	MaxConcurrentRenders int
	DraftDebounce        time.Duration
	GalleryDebounce      time.Duration
	RequestTimeout       time.Duration
	HTTPTimeout          time.Duration

	GeminiBaseURL    string
	GeminiAPIVersion string
	TextModel        string
	ImageModel       string
}

// fileConfig mirrors the YAML overlay. Every field is optional; zero
// values leave the env-derived value in place.
type fileConfig struct {
	LogLevel             string `yaml:"log_level"`
	ListenAddr           string `yaml:"listen_addr"`
	DatabasePath         string `yaml:"database_path"`
	MaxConcurrentRenders int    `yaml:"max_concurrent_renders"`
	DraftDebounceMs      int    `yaml:"draft_debounce_ms"`
	GalleryDebounceMs    int    `yaml:"gallery_debounce_ms"`
	GeminiBaseURL        string `yaml:"gemini_base_url"`
	GeminiAPIVersion     string `yaml:"gemini_api_version"`
	TextModel            string `yaml:"text_model"`
	ImageModel           string `yaml:"image_model"`
}

// Load reads the environment and, when path is non-empty, overlays the
// YAML file on top. The API key only ever comes from the environment.
func Load(path string) (Config, error) {
	cfg, err := LoadLocal(path)
	if err != nil {
		return Config{}, err
	}
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

// LoadLocal is Load without the API key requirement, for commands that
// only touch the local database.
func LoadLocal(path string) (Config, error) {
	cfg := Config{
		LogLevel:             strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:                getEnvBool("DEBUG", false),
		PreferIPv4:           getEnvBool("PREFER_IPV4", true),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		DatabasePath:         getEnv("DATABASE_PATH", "studio.db"),
		MaxConcurrentRenders: getEnvInt("MAX_CONCURRENT_RENDERS", 1),
		DraftDebounce:        time.Duration(getEnvInt("DRAFT_DEBOUNCE_MS", 1000)) * time.Millisecond,
		GalleryDebounce:      time.Duration(getEnvInt("GALLERY_DEBOUNCE_MS", 1500)) * time.Millisecond,
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		GeminiBaseURL:        strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:     strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		TextModel:            strings.TrimSpace(getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview")),
		ImageModel:           strings.TrimSpace(getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image")),
	}

	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if cfg.MaxConcurrentRenders < 1 {
		cfg.MaxConcurrentRenders = 1
	}
	if cfg.DraftDebounce <= 0 {
		cfg.DraftDebounce = time.Second
	}
	if cfg.GalleryDebounce <= 0 {
		cfg.GalleryDebounce = 1500 * time.Millisecond
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(fc.LogLevel))
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.MaxConcurrentRenders > 0 {
		cfg.MaxConcurrentRenders = fc.MaxConcurrentRenders
	}
	if fc.DraftDebounceMs > 0 {
		cfg.DraftDebounce = time.Duration(fc.DraftDebounceMs) * time.Millisecond
	}
	if fc.GalleryDebounceMs > 0 {
		cfg.GalleryDebounce = time.Duration(fc.GalleryDebounceMs) * time.Millisecond
	}
	if fc.GeminiBaseURL != "" {
		cfg.GeminiBaseURL = strings.TrimSpace(fc.GeminiBaseURL)
	}
	if fc.GeminiAPIVersion != "" {
		cfg.GeminiAPIVersion = strings.TrimSpace(fc.GeminiAPIVersion)
	}
	if fc.TextModel != "" {
		cfg.TextModel = strings.TrimSpace(fc.TextModel)
	}
	if fc.ImageModel != "" {
		cfg.ImageModel = strings.TrimSpace(fc.ImageModel)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
