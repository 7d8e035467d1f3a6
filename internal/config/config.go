// Package config provides configuration structures, defaults and loading
// for the WattsUp logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Meter      MeterConfig      `mapstructure:"meter"`      // Meter connection and sampling
	Simulation SimulationConfig `mapstructure:"simulation"` // Replay of captured raw files
	Output     OutputConfig     `mapstructure:"output"`     // Log and raw capture files
	Display    DisplayConfig    `mapstructure:"display"`    // Live view
	Metrics    MetricsConfig    `mapstructure:"metrics"`    // Prometheus endpoint
	Logging    LoggingConfig    `mapstructure:"logging"`    // Diagnostic logging
}

// MeterConfig contains meter connection parameters
type MeterConfig struct {
	Port              string        `mapstructure:"port"`                 // Serial device, or raw file when simulating
	BaudRate          int           `mapstructure:"baud_rate"`            // Serial speed
	Interval          int           `mapstructure:"interval"`             // Sample interval in whole seconds
	SilenceTimeout    time.Duration `mapstructure:"silence_timeout"`      // Give up on a device silent this long
	InternalModeAtEnd bool          `mapstructure:"internal_mode_at_end"` // Switch meter to internal logging on exit
}

// SimulationConfig contains replay parameters
type SimulationConfig struct {
	Enabled bool    `mapstructure:"enabled"` // Replay Meter.Port instead of opening a device
	Speedup float64 `mapstructure:"speedup"` // Replay speed factor
}

// OutputConfig contains output file parameters
type OutputConfig struct {
	File string `mapstructure:"file"` // Decoded sample log, empty disables logging
	Raw  bool   `mapstructure:"raw"`  // Also capture accepted lines next to File
}

// DisplayConfig contains live view parameters
type DisplayConfig struct {
	Chart  bool `mapstructure:"chart"`  // Draw a live power chart
	Buffer int  `mapstructure:"buffer"` // Samples queued between acquisition and display
}

// MetricsConfig contains Prometheus exporter parameters
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // host:port for /metrics, empty disables
}

// LoggingConfig contains logging configuration parameters
type LoggingConfig struct {
	Level string `mapstructure:"level"` // Log level (debug, info, warn, error)
	File  string `mapstructure:"file"`  // Log file path, empty for stderr
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Meter: MeterConfig{
			Port:              DefaultPort(runtime.GOOS), // Platform USB serial adapter
			BaudRate:          115200,                    // WattsUp fixed speed
			Interval:          1,                         // One sample per second
			SilenceTimeout:    30 * time.Second,          // Well above any sane interval
			InternalModeAtEnd: false,                     // Leave meter mode alone on exit
		},
		Simulation: SimulationConfig{
			Enabled: false, // Real hardware by default
			Speedup: 1.0,   // Replay at recorded cadence
		},
		Output: OutputConfig{
			File: "log.out", // Log next to where we run
			Raw:  false,     // No raw capture by default
		},
		Display: DisplayConfig{
			Chart:  false, // Text status only
			Buffer: 64,    // Samples queued for the chart view
		},
		Metrics: MetricsConfig{
			Listen: "", // Exporter disabled
		},
		Logging: LoggingConfig{
			Level: "warn", // Keep the live display uncluttered
			File:  "",     // stderr
		},
	}
}

// DefaultPort returns the usual device path of the meter's USB serial
// adapter on goos.
func DefaultPort(goos string) string {
	switch goos {
	case "darwin":
		return "/dev/tty.usbserial-A1000wT3"
	case "windows":
		return "COM3"
	default:
		return "/dev/ttyUSB0"
	}
}

// Load overlays the values known to v onto the defaults and validates the
// result. Durations may be given as strings such as "30s".
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the logger cannot run with.
func (c *Config) Validate() error {
	if c.Meter.Interval <= 0 {
		return fmt.Errorf("invalid interval %d: must be a positive number of seconds", c.Meter.Interval)
	}
	if c.Meter.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Meter.BaudRate)
	}
	if c.Meter.Port == "" {
		return fmt.Errorf("meter port not specified")
	}
	if c.Simulation.Speedup <= 0 {
		return fmt.Errorf("invalid speedup %g: must be greater than zero", c.Simulation.Speedup)
	}
	if c.Meter.SilenceTimeout < 0 {
		return fmt.Errorf("invalid silence timeout %v", c.Meter.SilenceTimeout)
	}
	if c.Meter.SilenceTimeout > 0 && c.Meter.SilenceTimeout <= time.Duration(c.Meter.Interval)*time.Second {
		return fmt.Errorf("silence timeout %v must exceed the %ds sample interval", c.Meter.SilenceTimeout, c.Meter.Interval)
	}
	if c.Display.Buffer < 1 {
		return fmt.Errorf("invalid display buffer %d", c.Display.Buffer)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", name)
	}
	return level, nil
}

// NewLogger builds the diagnostic logger. The returned closer releases the
// log file, if one was opened.
func NewLogger(fs afero.Fs, l LoggingConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if l.File != "" {
		f, err := fs.OpenFile(l.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", l.File, err)
		}
		out, closer = f, f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
