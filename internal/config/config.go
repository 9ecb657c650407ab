// Package config loads the server configuration from environment variables.
//
// Every key is prefixed with DIGIT_MCP_. Unset or unparsable values fall back
// to their defaults; Validate rejects values the pipeline cannot run with.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/ironsheep/digit-sign-mcp/internal/logging"
	"github.com/ironsheep/digit-sign-mcp/internal/ocr"
	"github.com/ironsheep/digit-sign-mcp/internal/pipeline"
)

// AugmentAngles are the rotations, in degrees, classified when augmentation
// is enabled.
var AugmentAngles = []float64{-5, -4, -3, -2, -1, 1, 2, 3, 4, 5}

// Config holds server configuration.
type Config struct {
	// Logging
	LogLevel string

	// Tesseract configuration
	Language       string
	TessdataPrefix string

	// Pipeline configuration
	Model         string
	Mode          string
	MinDigitWidth int
	Workers       int
	Augment       bool

	// Sign filters
	SignMinPixels int
	SignMinAspect float64
	SignMinFill   float64

	// Digit zone
	MarginDivisor int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		LogLevel:       getEnvOrDefault("DIGIT_MCP_LOG_LEVEL", "info"),
		Language:       getEnvOrDefault("DIGIT_MCP_LANGUAGE", "eng"),
		TessdataPrefix: getEnvOrDefault("DIGIT_MCP_TESSDATA_PREFIX", ""),
		Model:          getEnvOrDefault("DIGIT_MCP_MODEL", "kaggle"),
		Mode:           getEnvOrDefault("DIGIT_MCP_MODE", "sign"),
		MinDigitWidth:  getEnvAsIntOrDefault("DIGIT_MCP_MIN_DIGIT_WIDTH", 10),
		Workers:        getEnvAsIntOrDefault("DIGIT_MCP_WORKERS", runtime.NumCPU()),
		Augment:        getEnvAsBoolOrDefault("DIGIT_MCP_AUGMENT", false),
		SignMinPixels:  getEnvAsIntOrDefault("DIGIT_MCP_SIGN_MIN_PIXELS", 2500),
		SignMinAspect:  getEnvAsFloatOrDefault("DIGIT_MCP_SIGN_MIN_ASPECT", 1.25),
		SignMinFill:    getEnvAsFloatOrDefault("DIGIT_MCP_SIGN_MIN_FILL", 0.5),
		MarginDivisor:  getEnvAsIntOrDefault("DIGIT_MCP_MARGIN_DIVISOR", 7),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("DIGIT_MCP_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.Language == "" {
		return fmt.Errorf("DIGIT_MCP_LANGUAGE is required")
	}

	if _, err := pipeline.ModelByName(c.Model); err != nil {
		return fmt.Errorf("DIGIT_MCP_MODEL: %w", err)
	}

	if _, err := pipeline.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("DIGIT_MCP_MODE: %w", err)
	}

	if c.MinDigitWidth < 0 {
		return fmt.Errorf("DIGIT_MCP_MIN_DIGIT_WIDTH must not be negative, got %d", c.MinDigitWidth)
	}

	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("DIGIT_MCP_WORKERS must be between 1 and 256, got %d", c.Workers)
	}

	if c.SignMinPixels < 1 {
		return fmt.Errorf("DIGIT_MCP_SIGN_MIN_PIXELS must be positive, got %d", c.SignMinPixels)
	}

	if c.SignMinAspect <= 0 {
		return fmt.Errorf("DIGIT_MCP_SIGN_MIN_ASPECT must be positive, got %v", c.SignMinAspect)
	}

	if c.SignMinFill < 0 || c.SignMinFill > 1 {
		return fmt.Errorf("DIGIT_MCP_SIGN_MIN_FILL must be between 0 and 1, got %v", c.SignMinFill)
	}

	if c.MarginDivisor < 1 {
		return fmt.Errorf("DIGIT_MCP_MARGIN_DIVISOR must be positive, got %d", c.MarginDivisor)
	}

	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// PipelineOptions builds reader options from the configuration, starting
// from the pipeline defaults.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	model, err := pipeline.ModelByName(c.Model)
	if err != nil {
		return opts, err
	}
	mode, err := pipeline.ParseMode(c.Mode)
	if err != nil {
		return opts, err
	}

	opts.Model = model
	opts.Mode = mode
	opts.MinDigitWidth = c.MinDigitWidth
	opts.Workers = c.Workers
	opts.Sign.MinPixels = c.SignMinPixels
	opts.Sign.MinAspect = c.SignMinAspect
	opts.Sign.MinFill = c.SignMinFill
	opts.Zone.MarginDivisor = c.MarginDivisor
	if c.Augment {
		opts.Rotations = append([]float64(nil), AugmentAngles...)
	}

	return opts, opts.Validate()
}

// OCROptions builds classifier options from the configuration.
func (c *Config) OCROptions() ocr.Options {
	opts := ocr.DefaultOptions()
	opts.Language = c.Language
	opts.TessdataPrefix = c.TessdataPrefix
	return opts
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}

	return value
}
