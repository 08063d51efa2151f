package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	Decode DecodeConfig `json:"decode"`
	Model  ModelConfig  `json:"model"`
	Report ReportConfig `json:"report"`
}

// DecodeConfig holds configuration for image decoding
type DecodeConfig struct {
	// HeifSupported records whether a HEIF pixel decoder was
	// registered at startup; decoding HEIF files without it fails
	// with a format-unsupported error.
	HeifSupported bool `json:"heif_supported"`
	AllowFallback bool `json:"allow_fallback"`
	MaxPixels     int  `json:"max_pixels"`
}

// ModelConfig holds configuration for model artifact fetching
type ModelConfig struct {
	BaseURL  string `json:"base_url"`
	CacheDir string `json:"cache_dir"`
}

// ReportConfig holds configuration for gallery generation
type ReportConfig struct {
	Title     string `json:"title"`
	OutputDir string `json:"output_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Decode: DecodeConfig{
			HeifSupported: false,
			AllowFallback: true,
			MaxPixels:     256_000_000,
		},
		Model: ModelConfig{
			BaseURL:  "https://models.ente.io/",
			CacheDir: "./models",
		},
		Report: ReportConfig{
			Title:     "Decode Preview",
			OutputDir: "./out",
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Decode.MaxPixels < 0 {
		return fmt.Errorf("decode.max_pixels must not be negative")
	}

	if c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url cannot be empty")
	}

	if c.Model.CacheDir == "" {
		return fmt.Errorf("model.cache_dir cannot be empty")
	}

	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir cannot be empty")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "parity-decoder", "config.json")
}
