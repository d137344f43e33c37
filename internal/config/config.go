// Package config holds runtime configuration: defaults, file and
// environment loading, flag binding, presets and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/backmassage/vidconv/internal/spec"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then a config file ([LoadFile]), the environment ([ApplyEnv]) and CLI
// flags ([BindGlobalFlags], [BindEncodeFlags]), in that order, and finally checked by [Validate].
type Config struct {
	// External tools.
	FFmpeg      string        `toml:"ffmpeg" yaml:"ffmpeg"`             // Default: "ffmpeg".
	FFprobe     string        `toml:"ffprobe" yaml:"ffprobe"`           // Default: "ffprobe".
	ScaleFlags  string        `toml:"scale_flags" yaml:"scale_flags"`   // Default: "bicubic".
	VAAPIDevice string        `toml:"vaapi_device" yaml:"vaapi_device"` // Default: "/dev/dri/renderD128".
	HWAccel     spec.HWVendor `toml:"hwaccel" yaml:"hwaccel"`           // Default: none.
	LogLevel    string        `toml:"loglevel" yaml:"loglevel"`         // ffmpeg -loglevel; empty omits it.

	// Output.
	OutputDir string `toml:"output_dir" yaml:"output_dir"`
	Overwrite bool   `toml:"overwrite" yaml:"overwrite"`
	DryRun    bool   `toml:"dry_run" yaml:"dry_run"`
	Preset    string `toml:"preset" yaml:"preset"` // Default: "default".

	// Per-encode debug log (<LogDir>/<input stem>.log).
	Debug     bool   `toml:"debug" yaml:"debug"`
	LogDir    string `toml:"log_dir" yaml:"log_dir"`
	DeleteLog bool   `toml:"delete_log" yaml:"delete_log"`

	// Display and logging.
	Progress  bool      `toml:"progress" yaml:"progress"` // Default: true.
	Verbose   bool      `toml:"verbose" yaml:"verbose"`
	ColorMode ColorMode `toml:"color" yaml:"color"` // Default: "auto".
	LogFile   string    `toml:"log_file" yaml:"log_file"`

	// MetricsTextfile, when set, receives the run's Prometheus metrics in
	// text exposition format (node_exporter textfile collector).
	MetricsTextfile string `toml:"metrics_textfile" yaml:"metrics_textfile"`

	// Presets from the config file. They extend and override the built-in set.
	Presets map[string]Preset `toml:"presets" yaml:"presets"`
}

// DefaultConfig returns the base Config before any file, env or flag
// overrides are applied.
func DefaultConfig() Config {
	return Config{
		FFmpeg:      "ffmpeg",
		FFprobe:     "ffprobe",
		ScaleFlags:  "bicubic",
		VAAPIDevice: "/dev/dri/renderD128",
		HWAccel:     spec.HWNone,
		Preset:      DefaultPreset,
		Progress:    true,
		ColorMode:   ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and normalizes paths. It must run after
// every override has been applied.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if !slices.Contains(spec.HWVendors, c.HWAccel) {
		return fmt.Errorf("invalid hwaccel %q (use nvenc, qsv, vaapi, videotoolbox, amf or auto)", c.HWAccel)
	}
	if c.LogLevel != "" && !slices.Contains(spec.LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid loglevel %q", c.LogLevel)
	}
	if c.FFmpeg == "" || c.FFprobe == "" {
		return errors.New("ffmpeg and ffprobe binaries must not be empty")
	}
	if c.DeleteLog && c.LogDir == "" {
		return errors.New("delete_log needs log_dir")
	}

	for name, p := range c.Presets {
		if err := p.validate(); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	if _, err := c.ResolvePreset(c.Preset); err != nil {
		return err
	}

	c.OutputDir = NormalizeDirArg(c.OutputDir)
	c.LogDir = NormalizeDirArg(c.LogDir)
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. This prevents a batch run from
// recursively discovering its own output files. Both arguments must be
// absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// SpecParams returns the encode parameters of the selected preset with the
// config-level tool settings applied.
func (c *Config) SpecParams() (spec.Params, error) {
	p, err := c.ResolvePreset(c.Preset)
	if err != nil {
		return spec.Params{}, err
	}
	params := p.Params()
	params.HWAccel = c.HWAccel
	params.LogLevel = c.LogLevel
	params.Overwrite = c.Overwrite
	params.Debug = c.Debug
	params.LogDir = c.LogDir
	params.DeleteLog = c.DeleteLog
	params.Progress = c.Progress
	if c.OutputDir != "" {
		params.OutputDir = c.OutputDir
	}
	return params, nil
}

// normalizeBitrate validates and canonicalizes bitrate input.
// Accepted forms: "256", "256k", "256K", "256kbps". Output is "<n>k".
func normalizeBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid bitrate %q (use positive Kbps value, e.g. 128k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}
