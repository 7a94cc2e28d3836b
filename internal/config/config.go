// Package config loads framer settings from a JSON file, a .env file and
// FRAMER_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/framer/internal/guidance"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAMER_"

// Config is the framer configuration.
type Config struct {
	// Capture
	CameraID        int     `json:"camera_id" validate:"gte=0"`
	FrameIntervalMs int     `json:"frame_interval_ms" validate:"gte=250,lte=500"`
	ShakeThreshold  float64 `json:"shake_threshold" validate:"gt=0,lte=1"`

	// Storage and serving
	DBPath    string `json:"db_path" validate:"required"`
	Addr      string `json:"addr" validate:"required"`
	StaticDir string `json:"static_dir,omitempty"`

	// Guidance
	Style        string `json:"style" validate:"oneof=center rule-of-thirds golden-ratio leading-line symmetric"`
	Aspect       string `json:"aspect" validate:"oneof=9:16 3:4"`
	Orientation  string `json:"orientation" validate:"oneof=bottom-left bottom-right top-left top-right"`
	RestoreStyle bool   `json:"restore_style"`

	// Perception
	SaliencyScript string `json:"saliency_script,omitempty"`
	MaxScanPixels  int    `json:"max_scan_pixels" validate:"gte=0"`

	LogLevel string `json:"log_level" validate:"oneof=debug info warn error"`
	Tray     bool   `json:"tray"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		CameraID:        0,
		FrameIntervalMs: 250,
		ShakeThreshold:  0.35,
		DBPath:          filepath.Join(home, ".framer", "framer.db"),
		Addr:            ":8080",
		Style:           guidance.StyleRuleOfThirds.String(),
		Aspect:          "3:4",
		Orientation:     guidance.BottomLeft.String(),
		RestoreStyle:    true,
		LogLevel:        "info",
		Tray:            true,
	}
}

// Load returns the defaults overlaid with the JSON file at path and then
// the environment. A missing file is not an error; an empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config JSON: %w", err)
			}
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from FRAMER_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v := getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v := getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	integer("CAMERA_ID", &c.CameraID)
	integer("FRAME_INTERVAL_MS", &c.FrameIntervalMs)
	if v := getenv(EnvPrefix + "SHAKE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSHAKE_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.ShakeThreshold = f
		}
	}
	str("DB_PATH", &c.DBPath)
	str("ADDR", &c.Addr)
	str("STATIC_DIR", &c.StaticDir)
	str("STYLE", &c.Style)
	str("ASPECT", &c.Aspect)
	str("ORIENTATION", &c.Orientation)
	boolean("RESTORE_STYLE", &c.RestoreStyle)
	str("SALIENCY_SCRIPT", &c.SaliencyScript)
	integer("MAX_SCAN_PIXELS", &c.MaxScanPixels)
	str("LOG_LEVEL", &c.LogLevel)
	boolean("TRAY", &c.Tray)

	return errors.Join(errs...)
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	c.Style = strings.ToLower(strings.TrimSpace(c.Style))
	c.Orientation = strings.ToLower(strings.TrimSpace(c.Orientation))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// FrameInterval returns the pipeline frame interval.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// GuidanceStyle returns the configured style and its parameters.
func (c *Config) GuidanceStyle() (guidance.Style, guidance.Params, error) {
	style, err := guidance.ParseStyle(c.Style)
	if err != nil {
		return 0, guidance.Params{}, err
	}
	orientation, err := guidance.ParseOrientation(c.Orientation)
	if err != nil {
		return 0, guidance.Params{}, err
	}

	params := guidance.Params{Aspect: guidance.Aspect3x4, Orientation: orientation}
	if c.Aspect == "9:16" {
		params.Aspect = guidance.Aspect9x16
	}
	return style, params, nil
}
