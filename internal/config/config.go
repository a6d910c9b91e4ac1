package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/anas-shakeel/go-bmp-filter/internal/bmp"
)

const (
	EnvFile     = "BMPFILTER_CONFIG"
	EnvPolicy   = "BMPFILTER_POLICY"
	EnvDebug    = "BMPFILTER_DEBUG"
	EnvWorkers  = "BMPFILTER_WORKERS"
	EnvMaxBytes = "BMPFILTER_MAX_BYTES"

	DefaultMaxBytes = 1 << 30
)

// Config holds the runtime settings of the filter. The filter mode itself
// comes from the command line, not from here.
type Config struct {
	Policy   string `yaml:"policy"`    // trust or strict
	Debug    int    `yaml:"debug"`     // 0 off, 1 header, 2 every pixel
	Workers  int    `yaml:"workers"`   // row workers, 1 is sequential
	MaxBytes int64  `yaml:"max_bytes"` // largest accepted input

	HeaderPolicy bmp.Policy `yaml:"-"` // Policy, parsed by Load
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Policy:       bmp.Trust.String(),
		Debug:        0,
		Workers:      1,
		MaxBytes:     DefaultMaxBytes,
		HeaderPolicy: bmp.Trust,
	}
}

// Load builds a Config from defaults, then the YAML file named by
// BMPFILTER_CONFIG (if set), then the individual BMPFILTER_* variables.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv(EnvFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read configuration file '%s': %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse configuration file '%s': %w", path, err)
		}
	}

	if v := getenv(EnvPolicy); v != "" {
		cfg.Policy = v
	}
	if v := getenv(EnvDebug); v != "" {
		n, err := parseDebug(v)
		if err != nil {
			return cfg, err
		}
		cfg.Debug = n
	}
	if v := getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}
	if v := getenv(EnvMaxBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvMaxBytes, err)
		}
		cfg.MaxBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	policy, err := bmp.ParsePolicy(cfg.Policy)
	if err != nil {
		return cfg, err
	}
	cfg.HeaderPolicy = policy

	return cfg, nil
}

// parseDebug accepts a level number, or a boolean-ish word meaning level 1.
func parseDebug(v string) (int, error) {
	switch strings.ToLower(v) {
	case "true", "yes", "on":
		return 1, nil
	case "false", "no", "off":
		return 0, nil
	case "pixel", "pixels":
		return 2, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", EnvDebug, err)
	}
	return n, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := bmp.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.Debug < 0 || c.Debug > 2 {
		return fmt.Errorf("debug level %d out of range 0-2", c.Debug)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("max_bytes must not be negative, got %d", c.MaxBytes)
	}
	return nil
}
