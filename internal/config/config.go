// Package config loads application settings from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "TRACKER_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OCRConfig holds recognition engine settings.
type OCRConfig struct {
	Tesseract           string `yaml:"tesseract"`
	Pdftotext           string `yaml:"pdftotext"`
	Language            string `yaml:"language"`
	TessdataDir         string `yaml:"tessdataDir"`
	EnableTSVConfidence bool   `yaml:"enableTsvConfidence"`
}

// PipelineConfig bounds the extraction pipeline.
type PipelineConfig struct {
	Workers    int           `yaml:"workers"`
	JobTimeout time.Duration `yaml:"jobTimeout"`
	SpoolDir   string        `yaml:"spoolDir"`
}

// WatchConfig describes optional drop directories to ingest from.
type WatchConfig struct {
	Roots       []string      `yaml:"roots"`
	InitialScan bool          `yaml:"initialScan"`
	Debounce    time.Duration `yaml:"debounce"`
}

// Load reads the YAML file at path (or $TRACKER_CONFIG, or none) and
// applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Addr: ":8080"},
		OCR: OCRConfig{
			Language: "eng",
		},
		Pipeline: PipelineConfig{
			Workers:    4,
			JobTimeout: 3 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.Server.Addr = getEnv("TRACKER_ADDR", cfg.Server.Addr)
	cfg.OCR.Tesseract = getEnv("TESSERACT_PATH", cfg.OCR.Tesseract)
	cfg.OCR.Pdftotext = getEnv("PDFTOTEXT_PATH", cfg.OCR.Pdftotext)
	cfg.OCR.Language = getEnv("TRACKER_OCR_LANG", cfg.OCR.Language)
	cfg.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataDir)
	cfg.Pipeline.Workers = getEnvAsInt("TRACKER_WORKERS", cfg.Pipeline.Workers)
	cfg.Pipeline.JobTimeout = getEnvAsDuration("TRACKER_JOB_TIMEOUT", cfg.Pipeline.JobTimeout)
	cfg.Pipeline.SpoolDir = getEnv("TRACKER_SPOOL_DIR", cfg.Pipeline.SpoolDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be positive")
	}
	if c.Pipeline.JobTimeout <= 0 {
		return fmt.Errorf("pipeline.jobTimeout must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
