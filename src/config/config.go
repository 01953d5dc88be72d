package config

import (
	"fmt"
	"os"
	"strconv"

	"stockpulse/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides validation
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file. A PORT
// environment variable (optionally loaded from .env) overrides the
// configured port.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment overrides (.env is optional)
	_ = godotenv.Load()
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT environment variable '%s': %w", port, err)
		}
		config.Port = p
	}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d", c.Port)
	}

	// Validate Engine configuration
	if c.Engine.PriceFloor <= 0 {
		return fmt.Errorf("price floor must be greater than 0")
	}
	if c.Engine.SeedJitter < 0 {
		return fmt.Errorf("seed jitter cannot be negative")
	}
	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	seen := make(map[string]bool)
	for i, sym := range c.Engine.Symbols {
		if sym.Symbol == "" {
			return fmt.Errorf("symbol %d must have a ticker", i)
		}
		if seen[sym.Symbol] {
			return fmt.Errorf("duplicate symbol '%s'", sym.Symbol)
		}
		seen[sym.Symbol] = true
		if sym.BasePrice < c.Engine.PriceFloor {
			return fmt.Errorf("symbol '%s' base price %.2f is below the price floor %.2f",
				sym.Symbol, sym.BasePrice, c.Engine.PriceFloor)
		}
	}

	// Validate Broadcast configuration
	if c.Broadcast.IntervalMs <= 0 {
		return fmt.Errorf("broadcast interval must be greater than 0")
	}

	return nil
}
