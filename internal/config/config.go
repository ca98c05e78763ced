// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Reports ReportsConfig
	Auth    AuthConfig
	Watcher WatcherConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the location of the backing files.
type DataConfig struct {
	// BaseDir is the directory holding students.json and users.txt.
	BaseDir string
}

// ReportsConfig holds report output configuration.
type ReportsConfig struct {
	// OutputDir is where generated report documents are written.
	OutputDir string
	// IncludePhotos controls whether photos are inlined by default.
	IncludePhotos bool
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// LoginRPS is the sustained per-username login attempt rate.
	LoginRPS float64
	// LoginBurst is the number of attempts allowed before throttling starts.
	LoginBurst int
}

// WatcherConfig holds data-directory watcher configuration.
type WatcherConfig struct {
	// SettleDelay is how long a file must be quiet before an event fires.
	SettleDelay time.Duration
}

// Load reads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataDir := flag.String("data-dir", "", "Directory holding the record and credential files")
	reportDir := flag.String("report-dir", "", "Directory for generated reports")
	includePhotos := flag.String("include-photos", "", "Inline photos in reports by default (default: true)")
	loginRPS := flag.String("login-rps", "", "Per-username login attempts per second (default: 1)")
	loginBurst := flag.String("login-burst", "", "Login attempt burst size (default: 5)")
	settleDelay := flag.String("watch-settle", "", "Watcher settle delay (default: 200ms)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BaseDir: getConfigValue(*dataDir, "ROSTER_DATA_DIR", ""),
		},
		Reports: ReportsConfig{
			OutputDir:     getConfigValue(*reportDir, "ROSTER_REPORT_DIR", ""),
			IncludePhotos: getBoolConfigValue(*includePhotos, "ROSTER_INCLUDE_PHOTOS", true),
		},
		Auth: AuthConfig{
			LoginRPS:   getFloatConfigValue(*loginRPS, "ROSTER_LOGIN_RPS", 1),
			LoginBurst: getIntConfigValue(*loginBurst, "ROSTER_LOGIN_BURST", 5),
		},
	}

	settleStr := getConfigValue(*settleDelay, "ROSTER_WATCH_SETTLE", "200ms")
	settle, err := time.ParseDuration(settleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid watcher settle delay %q: %w", settleStr, err)
	}
	cfg.Watcher.SettleDelay = settle

	if err := cfg.expandDataDir(); err != nil {
		return nil, fmt.Errorf("invalid data dir: %w", err)
	}
	if err := cfg.expandReportDir(); err != nil {
		return nil, fmt.Errorf("invalid report dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BaseDir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	if c.Auth.LoginRPS <= 0 {
		return fmt.Errorf("login rps must be positive, got %v", c.Auth.LoginRPS)
	}
	if c.Auth.LoginBurst < 1 {
		return fmt.Errorf("login burst must be at least 1, got %d", c.Auth.LoginBurst)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataDir expands ~ and makes the path absolute.
// Defaults to ~/Roster/data.
func (c *Config) expandDataDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Roster", "data")

	expanded, err := expandPath(c.Data.BaseDir, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BaseDir = expanded
	return nil
}

// expandReportDir expands ~ and makes the path absolute.
// Defaults to {data}/reports.
func (c *Config) expandReportDir() error {
	defaultPath := filepath.Join(c.Data.BaseDir, "reports")

	expanded, err := expandPath(c.Reports.OutputDir, defaultPath)
	if err != nil {
		return err
	}
	c.Reports.OutputDir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
