// Package config provides YAML configuration loading for maestro binaries.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/maestrohq/maestro/pkg/models"
)

// Config is the root configuration document shared by the API server and
// the CLI.
type Config struct {
	Log      LogConfig     `yaml:"log"`
	API      APIConfig     `yaml:"api"`
	Autonomy string        `yaml:"autonomy" validate:"omitempty,oneof=manual semi_supervised autonomous"`
	Workers  WorkersConfig `yaml:"workers"`
	Tracing  TracingConfig `yaml:"tracing"`
}

type LogConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type APIConfig struct {
	Port int `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

type WorkersConfig struct {
	Provider string `yaml:"provider" validate:"omitempty,oneof=openai callable"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	// APIKey is normally left empty in the file and supplied via the
	// OPENAI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		API:      APIConfig{Port: 9091},
		Autonomy: string(models.AutonomySemiSupervised),
		Workers:  WorkersConfig{Provider: "openai", Model: "gpt-4o-mini"},
	}
}

// Load reads and validates a YAML config file, filling unset fields with
// defaults.
func Load(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML config document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg.applyEnv()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the config file when the path is set and the file
// exists, otherwise returns defaults with environment overrides applied.
func LoadOrDefault(filepath string) *Config {
	if filepath != "" {
		if cfg, err := Load(filepath); err == nil {
			return cfg
		}
	}

	cfg := Default()
	cfg.applyEnv()

	return cfg
}

// AutonomyLevel returns the configured autonomy level as a typed value.
func (c *Config) AutonomyLevel() models.AutonomyLevel {
	return models.AutonomyLevel(c.Autonomy)
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Workers.APIKey = key
	}
}
