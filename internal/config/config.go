// Package config provides environment-based configuration for the hand tracking service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FlipVertical compensates for the coordinate-origin mismatch between the
// renderer convention (origin bottom-left) and the graph engine convention
// (origin top-left). It is a fixed constant read by both the texture
// converter and the graph processor so the two can never diverge.
const FlipVertical = true

// Default logical stream names. These are the contract surface between this
// service and the graph definition; changing them requires a graph that
// exposes matching stream names.
const (
	DefaultInputStream    = "input_video"
	DefaultOutputStream   = "output_video"
	DefaultLandmarkStream = "hand_landmarks"
)

// Config holds configuration options for the whole application.
type Config struct {
	// Server settings.
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Camera settings. CameraID selects the capture device (the
	// front-facing camera on a typical laptop is device 0).
	CameraID      int
	CaptureWidth  int
	CaptureHeight int
	CaptureFPS    int

	// Graph settings.
	GraphPath      string
	InputStream    string
	OutputStream   string
	LandmarkStream string

	// DBPath is the SQLite detection log location. Empty disables
	// persistence.
	DBPath string

	// StopCameraOnPause stops the capture device when the pipeline is
	// paused instead of only releasing the texture converter. Saves power
	// while backgrounded at the cost of a slower resume.
	StopCameraOnPause bool
}

// Load reads configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Host:         getEnvOrDefault("HANDTRACK_HOST", "0.0.0.0"),
		Port:         getEnvAsIntOrDefault("HANDTRACK_PORT", 8080),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // streaming responses must not time out

		CameraID:      getEnvAsIntOrDefault("HANDTRACK_CAMERA_ID", 0),
		CaptureWidth:  getEnvAsIntOrDefault("HANDTRACK_CAPTURE_WIDTH", 640),
		CaptureHeight: getEnvAsIntOrDefault("HANDTRACK_CAPTURE_HEIGHT", 480),
		CaptureFPS:    getEnvAsIntOrDefault("HANDTRACK_CAPTURE_FPS", 15),

		GraphPath:      getEnvOrDefault("HANDTRACK_GRAPH", "graphs/hand_tracking.binarypb"),
		InputStream:    getEnvOrDefault("HANDTRACK_INPUT_STREAM", DefaultInputStream),
		OutputStream:   getEnvOrDefault("HANDTRACK_OUTPUT_STREAM", DefaultOutputStream),
		LandmarkStream: getEnvOrDefault("HANDTRACK_LANDMARK_STREAM", DefaultLandmarkStream),

		DBPath: getEnvOrDefault("HANDTRACK_DB", defaultDBPath()),

		StopCameraOnPause: getEnvAsBoolOrDefault("HANDTRACK_STOP_CAMERA_ON_PAUSE", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		return fmt.Errorf("invalid capture size: %dx%d", c.CaptureWidth, c.CaptureHeight)
	}
	if c.CaptureFPS <= 0 {
		return fmt.Errorf("invalid capture fps: %d", c.CaptureFPS)
	}
	if c.GraphPath == "" {
		return fmt.Errorf("graph path must not be empty")
	}
	if c.InputStream == "" || c.OutputStream == "" || c.LandmarkStream == "" {
		return fmt.Errorf("stream names must not be empty")
	}
	return nil
}

// ServerAddress returns the host:port the HTTP server listens on.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "handtrack.db"
	}
	return homeDir + "/.handtrack/handtrack.db"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
