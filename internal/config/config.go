// Package config provides configuration loading and validation for the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Paths
	Template  string `json:"template,omitempty" validate:"omitempty,file"` // Path to the branded template package
	InputDir  string `json:"input_dir,omitempty" validate:"omitempty,dir"` // Directory of documents to brand
	OutputDir string `json:"output_dir,omitempty"`                         // Directory for branded outputs

	// Behavior
	Workers        int    `json:"workers,omitempty" validate:"min=0"` // Worker pool size (0 = number of CPUs)
	ConvertCommand string `json:"convert_command,omitempty"`          // External PDF converter command line
	Verbose        bool   `json:"verbose,omitempty"`                  // Print detailed per-file information
}

// Load reads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills unset fields from environment variables. A .env file, when
// present, is loaded by the CLI entry point before this runs.
func (c *Config) FromEnv() {
	if c.Template == "" {
		c.Template = os.Getenv("DOCBRAND_TEMPLATE")
	}
	if c.ConvertCommand == "" {
		c.ConvertCommand = os.Getenv("DOCBRAND_CONVERT_COMMAND")
	}
}

// Validate checks that the configuration has valid values. Required fields
// are enforced by CLI flag validation after merging, not here.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}
