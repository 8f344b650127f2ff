package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings invoicer needs to reach the backend and run locally.
type Config struct {
	APIURL          string
	UserID          string
	PageSize        int
	RequestTimeout  time.Duration
	LogFile         string
	LogLevel        string
	ExportDir       string
	RefreshInterval time.Duration

	// Issuer fills the "From" block of printed invoices. Both fields are
	// optional.
	IssuerName    string
	IssuerAddress string
}

const (
	defaultConfigPath      = "~/.config/invoicer/config.toml"
	defaultAPIURL          = "http://127.0.0.1:8000/api"
	defaultPageSize        = 10
	defaultRequestTimeout  = 10 * time.Second
	defaultLogFile         = "~/.local/share/invoicer/invoicer.log"
	defaultLogLevel        = "info"
	defaultExportDir       = "~/Documents/invoices"
	defaultRefreshInterval = 60 * time.Second

	envPrefix = "INVOICER_"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		PageSize:        defaultPageSize,
		RequestTimeout:  defaultRequestTimeout,
		LogFile:         mustExpand(defaultLogFile),
		LogLevel:        defaultLogLevel,
		ExportDir:       mustExpand(defaultExportDir),
		RefreshInterval: defaultRefreshInterval,
	}
}

// Load parses the TOML config at path, then applies .env and INVOICER_*
// environment overrides. A missing file yields defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.merge(bytes); err != nil {
			return Config{}, err
		}
	}

	// A .env next to the working directory fills in variables that are not
	// already set in the real environment.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	var raw struct {
		APIURL          string `toml:"api_url"`
		UserID          string `toml:"user_id"`
		PageSize        int    `toml:"page_size"`
		RequestTimeout  string `toml:"request_timeout"`
		LogFile         string `toml:"log_file"`
		LogLevel        string `toml:"log_level"`
		ExportDir       string `toml:"export_dir"`
		RefreshInterval string `toml:"refresh_interval"`
		IssuerName      string `toml:"issuer_name"`
		IssuerAddress   string `toml:"issuer_address"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	c.APIURL = orDefault(raw.APIURL, c.APIURL)
	c.UserID = strings.TrimSpace(raw.UserID)
	if raw.PageSize != 0 {
		c.PageSize = raw.PageSize
	}
	c.LogFile = orDefault(raw.LogFile, c.LogFile)
	c.LogLevel = orDefault(raw.LogLevel, c.LogLevel)
	c.ExportDir = orDefault(raw.ExportDir, c.ExportDir)
	c.IssuerName = strings.TrimSpace(raw.IssuerName)
	c.IssuerAddress = strings.TrimSpace(raw.IssuerAddress)

	var err error
	if c.RequestTimeout, err = parseDuration("request_timeout", raw.RequestTimeout, c.RequestTimeout); err != nil {
		return err
	}
	if c.RefreshInterval, err = parseDuration("refresh_interval", raw.RefreshInterval, c.RefreshInterval); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("API_URL"); ok {
		c.APIURL = v
	}
	if v, ok := lookupEnv("USER_ID"); ok {
		c.UserID = v
	}
	if v, ok := lookupEnv("PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sPAGE_SIZE: %w", envPrefix, err)
		}
		c.PageSize = n
	}
	if v, ok := lookupEnv("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookupEnv("EXPORT_DIR"); ok {
		c.ExportDir = v
	}
	if v, ok := lookupEnv("ISSUER_NAME"); ok {
		c.IssuerName = v
	}
	if v, ok := lookupEnv("ISSUER_ADDRESS"); ok {
		c.IssuerAddress = v
	}
	var err error
	if v, ok := lookupEnv("REQUEST_TIMEOUT"); ok {
		if c.RequestTimeout, err = parseDuration(envPrefix+"REQUEST_TIMEOUT", v, c.RequestTimeout); err != nil {
			return err
		}
	}
	if v, ok := lookupEnv("REFRESH_INTERVAL"); ok {
		if c.RefreshInterval, err = parseDuration(envPrefix+"REFRESH_INTERVAL", v, c.RefreshInterval); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) normalize() {
	switch c.PageSize {
	case 10, 20, 50:
	default:
		c.PageSize = defaultPageSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFile = mustExpand(c.LogFile)
	c.ExportDir = mustExpand(c.ExportDir)
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
