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

// ConfigEnv names the environment variable holding the YAML config path
const ConfigEnv = "SLSCOLLECT_CONFIG"

var ErrInvalid = errors.New("invalid configuration")

// Config holds everything about a collection run that is not a CLI argument
type Config struct {
	Capture   CaptureConfig   `yaml:"capture"`
	Projector ProjectorConfig `yaml:"projector"`
	Preview   PreviewConfig   `yaml:"preview"`
	Keys      KeyConfig       `yaml:"keys"`
	Trigger   TriggerConfig   `yaml:"trigger"`
	Log       LogConfig       `yaml:"log"`
}

type CaptureConfig struct {
	// Width and Height are requested from the camera; 0 keeps the device default
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
	Settle time.Duration `yaml:"settle"`
	// MinFreeMB warns before a session when less space is left after it
	MinFreeMB int `yaml:"min_free_mb"`
}

type ProjectorConfig struct {
	Window     string `yaml:"window"`
	Fullscreen bool   `yaml:"fullscreen"`
}

type PreviewConfig struct {
	Window string `yaml:"window"`
	Height int    `yaml:"height"`
	// Interval is the host loop tick
	Interval time.Duration `yaml:"interval"`
}

// KeyConfig maps single characters to host loop actions; Quit is ESC by default
type KeyConfig struct {
	Start string `yaml:"start"`
	Stop  string `yaml:"stop"`
	Quit  int    `yaml:"quit"`
}

type TriggerConfig struct {
	// SerialDevice enables the serial key source when set, e.g. /dev/ttyUSB0
	SerialDevice string `yaml:"serial_device"`
	BaudRate     int    `yaml:"baud_rate"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Settle:    500 * time.Millisecond,
			MinFreeMB: 256,
		},
		Projector: ProjectorConfig{
			Window:     "slscollect projector",
			Fullscreen: true,
		},
		Preview: PreviewConfig{
			Window:   "slscollect preview",
			Height:   240,
			Interval: 10 * time.Millisecond,
		},
		Keys: KeyConfig{
			Start: "c ",
			Stop:  "x",
			Quit:  27,
		},
		Trigger: TriggerConfig{
			BaudRate: 115200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnvironment loads the file named by SLSCOLLECT_CONFIG, applies
// SLSCOLLECT_* overrides and validates the result.
func FromEnvironment() (*Config, error) {
	cfg, err := Load(os.Getenv(ConfigEnv))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SLSCOLLECT_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v)
		}
		*dst = d
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v)
		}
		*dst = b
		return nil
	}

	str("SLSCOLLECT_LOG_LEVEL", &c.Log.Level)
	str("SLSCOLLECT_LOG_FILE", &c.Log.File)
	str("SLSCOLLECT_TRIGGER_DEVICE", &c.Trigger.SerialDevice)
	str("SLSCOLLECT_PROJECTOR_WINDOW", &c.Projector.Window)

	return errors.Join(
		num("SLSCOLLECT_WIDTH", &c.Capture.Width),
		num("SLSCOLLECT_HEIGHT", &c.Capture.Height),
		num("SLSCOLLECT_TRIGGER_BAUD", &c.Trigger.BaudRate),
		dur("SLSCOLLECT_SETTLE", &c.Capture.Settle),
		flag("SLSCOLLECT_FULLSCREEN", &c.Projector.Fullscreen),
	)
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error
	if c.Capture.Settle <= 0 {
		errs = append(errs, fmt.Errorf("%w: capture.settle must be positive", ErrInvalid))
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		errs = append(errs, fmt.Errorf("%w: capture resolution must not be negative", ErrInvalid))
	}
	if c.Capture.MinFreeMB < 0 {
		errs = append(errs, fmt.Errorf("%w: capture.min_free_mb must not be negative", ErrInvalid))
	}
	if strings.TrimSpace(c.Projector.Window) == "" {
		errs = append(errs, fmt.Errorf("%w: projector.window is required", ErrInvalid))
	}
	if strings.TrimSpace(c.Preview.Window) == "" {
		errs = append(errs, fmt.Errorf("%w: preview.window is required", ErrInvalid))
	}
	if c.Preview.Window == c.Projector.Window {
		errs = append(errs, fmt.Errorf("%w: preview and projector windows must differ", ErrInvalid))
	}
	if c.Preview.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: preview.height must be positive", ErrInvalid))
	}
	if c.Preview.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: preview.interval must be positive", ErrInvalid))
	}
	if c.Keys.Start == "" {
		errs = append(errs, fmt.Errorf("%w: keys.start is required", ErrInvalid))
	}
	if c.Keys.Quit <= 0 {
		errs = append(errs, fmt.Errorf("%w: keys.quit must be a key code", ErrInvalid))
	}
	if strings.ContainsAny(c.Keys.Start, c.Keys.Stop) && c.Keys.Stop != "" {
		errs = append(errs, fmt.Errorf("%w: keys.start and keys.stop overlap", ErrInvalid))
	}
	if c.Trigger.SerialDevice != "" && c.Trigger.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("%w: trigger.baud_rate must be positive", ErrInvalid))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
