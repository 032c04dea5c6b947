// Package config loads the application tuning configuration. Fields omitted
// from the JSON file keep their defaults through the Get* accessors, so
// partial configs are safe. Environment variables override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the root tuning configuration. The pointer fields distinguish
// "unset" from zero values; use the Get* accessors for resolved values.
type Config struct {
	// Tracker params
	IoUThreshold       *float64 `json:"iou_threshold,omitempty"`
	MaxMissingFrames   *int     `json:"max_missing_frames,omitempty"`
	MinSessionDuration *float64 `json:"min_session_duration,omitempty"`
	FPS                *float64 `json:"fps,omitempty"`

	// Pipeline params
	FrameSkip *int `json:"frame_skip,omitempty"`

	// Output params
	ConsoleOutput  *bool   `json:"console_output,omitempty"`
	Verbose        *bool   `json:"verbose,omitempty"`
	DatabaseOutput *bool   `json:"database_output,omitempty"`
	DBPath         *string `json:"db_path,omitempty"`
	JSONOutput     *bool   `json:"json_output,omitempty"`
	JSONOutputDir  *string `json:"json_output_dir,omitempty"`

	// Zone mapper params
	ZoneConfigPath *string `json:"zone_config_path,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file, applies environment overrides and
// validates the result. The file must have a .json extension and be under
// 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads a .env file if present (missing files are not an error) and
// returns a Config built purely from environment variables.
func LoadEnv() *Config {
	_ = godotenv.Load()
	cfg := Empty()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overlays environment variables onto the config. Unparseable
// values are ignored, keeping the previous setting.
func (c *Config) ApplyEnv() {
	overlayFloat(&c.IoUThreshold, "IOU_THRESHOLD")
	overlayInt(&c.MaxMissingFrames, "MAX_MISSING_FRAMES")
	overlayFloat(&c.MinSessionDuration, "MIN_SESSION_DURATION")
	overlayFloat(&c.FPS, "FPS")
	overlayInt(&c.FrameSkip, "FRAME_SKIP")
	overlayBool(&c.ConsoleOutput, "CONSOLE_OUTPUT")
	overlayBool(&c.Verbose, "VERBOSE")
	overlayBool(&c.DatabaseOutput, "DATABASE_OUTPUT")
	overlayString(&c.DBPath, "DB_PATH")
	overlayBool(&c.JSONOutput, "JSON_OUTPUT")
	overlayString(&c.JSONOutputDir, "JSON_OUTPUT_DIR")
	overlayString(&c.ZoneConfigPath, "ZONE_CONFIG_PATH")
}

func overlayFloat(dst **float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = &f
		}
	}
}

func overlayInt(dst **int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = &i
		}
	}
}

func overlayBool(dst **bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = &b
		}
	}
}

func overlayString(dst **string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = &v
	}
}

// Validate checks that set values are within their operating ranges.
func (c *Config) Validate() error {
	if c.IoUThreshold != nil {
		if *c.IoUThreshold < 0 || *c.IoUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", *c.IoUThreshold)
		}
	}
	if c.MaxMissingFrames != nil && *c.MaxMissingFrames < 0 {
		return fmt.Errorf("max_missing_frames must be non-negative, got %d", *c.MaxMissingFrames)
	}
	if c.MinSessionDuration != nil && *c.MinSessionDuration < 0 {
		return fmt.Errorf("min_session_duration must be non-negative, got %f", *c.MinSessionDuration)
	}
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %f", *c.FPS)
	}
	if c.FrameSkip != nil && *c.FrameSkip < 1 {
		return fmt.Errorf("frame_skip must be >= 1, got %d", *c.FrameSkip)
	}
	return nil
}

// GetIoUThreshold returns the iou_threshold value or the default.
func (c *Config) GetIoUThreshold() float64 {
	if c.IoUThreshold == nil {
		return 0.3
	}
	return *c.IoUThreshold
}

// GetMaxMissingFrames returns the max_missing_frames value or the default.
func (c *Config) GetMaxMissingFrames() int {
	if c.MaxMissingFrames == nil {
		return 20
	}
	return *c.MaxMissingFrames
}

// GetMinSessionDuration returns the min_session_duration value or the default.
func (c *Config) GetMinSessionDuration() float64 {
	if c.MinSessionDuration == nil {
		return 0.5
	}
	return *c.MinSessionDuration
}

// GetFPS returns the fps value or the default.
func (c *Config) GetFPS() float64 {
	if c.FPS == nil {
		return 30.0
	}
	return *c.FPS
}

// GetFrameSkip returns the frame_skip value or the default.
func (c *Config) GetFrameSkip() int {
	if c.FrameSkip == nil {
		return 1
	}
	return *c.FrameSkip
}

// GetConsoleOutput returns the console_output value or the default.
func (c *Config) GetConsoleOutput() bool {
	if c.ConsoleOutput == nil {
		return true
	}
	return *c.ConsoleOutput
}

// GetVerbose returns the verbose value or the default.
func (c *Config) GetVerbose() bool {
	if c.Verbose == nil {
		return true
	}
	return *c.Verbose
}

// GetDatabaseOutput returns the database_output value or the default.
func (c *Config) GetDatabaseOutput() bool {
	if c.DatabaseOutput == nil {
		return false
	}
	return *c.DatabaseOutput
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "gaze_analytics.db"
	}
	return *c.DBPath
}

// GetJSONOutput returns the json_output value or the default.
func (c *Config) GetJSONOutput() bool {
	if c.JSONOutput == nil {
		return false
	}
	return *c.JSONOutput
}

// GetJSONOutputDir returns the json_output_dir value or the default.
func (c *Config) GetJSONOutputDir() string {
	if c.JSONOutputDir == nil || *c.JSONOutputDir == "" {
		return "analytics_output"
	}
	return *c.JSONOutputDir
}

// GetZoneConfigPath returns the zone_config_path value or "" when the
// built-in layout mapper should be used.
func (c *Config) GetZoneConfigPath() string {
	if c.ZoneConfigPath == nil {
		return ""
	}
	return *c.ZoneConfigPath
}
