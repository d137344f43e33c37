package config

// This file binds Config fields to command-line flags. Flags are grouped
// into global (display, logging, config) and encode (tools, output,
// debug log) sets; cobra owns parsing and help.
// Negated flags (--no-color, --no-progress) are applied after parsing so
// Config defaults hold unless the user passes the flag.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/backmassage/vidconv/internal/spec"
)

// Version is shown by --version; override at build time with
// -ldflags "-X github.com/backmassage/vidconv/internal/config.Version=...".
var Version = "0.1.0-dev"

// Negated holds boolean flags applied by [ApplyNegated] after parsing.
type Negated struct {
	ForceColor bool
	NoColor    bool
	NoProgress bool
}

// BindGlobalFlags registers --verbose, --color, --no-color, --log and
// --metrics-textfile.
func BindGlobalFlags(fs *pflag.FlagSet, cfg *Config, n *Negated) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	fs.BoolVar(&n.ForceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.NoColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append JSON logs to file")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write Prometheus metrics to this file after the run")
}

// BindEncodeFlags registers the tool, output and debug-log flags shared by
// encode, screenshot and concat.
func BindEncodeFlags(fs *pflag.FlagSet, cfg *Config, n *Negated) {
	fs.StringVar(&cfg.FFmpeg, "ffmpeg", cfg.FFmpeg, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobe, "ffprobe", cfg.FFprobe, "ffprobe binary")
	fs.StringVar(&cfg.ScaleFlags, "scale-flags", cfg.ScaleFlags, "Scaler flags (e.g. bicubic, lanczos)")
	fs.Var(&hwVendorValue{&cfg.HWAccel}, "hwaccel", "Hardware encoder: nvenc | qsv | vaapi | videotoolbox | amf | auto")
	fs.StringVar(&cfg.VAAPIDevice, "vaapi-device", cfg.VAAPIDevice, "VAAPI render device")
	fs.StringVar(&cfg.LogLevel, "loglevel", cfg.LogLevel, "ffmpeg -loglevel")

	fs.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Output directory (default: next to the input)")
	fs.BoolVarP(&cfg.Overwrite, "force", "f", cfg.Overwrite, "Overwrite existing output files")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", cfg.DryRun, "Print the ffmpeg command; do not run it")
	fs.StringVarP(&cfg.Preset, "preset", "p", cfg.Preset, "Encode preset (see 'vidconv presets')")

	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Keep ffmpeg output in <log-dir>/<input>.log")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for per-file debug logs")
	fs.BoolVar(&cfg.DeleteLog, "delete-log", cfg.DeleteLog, "Remove the debug log after a successful run")
	fs.BoolVar(&n.NoProgress, "no-progress", false, "Hide the progress bar")
}

// ApplyNegated copies negated and override flag values into cfg.
func ApplyNegated(cfg *Config, n *Negated) {
	if n.NoColor {
		cfg.ColorMode = ColorNever
	} else if n.ForceColor {
		cfg.ColorMode = ColorAlways
	}
	if n.NoProgress {
		cfg.Progress = false
	}
}

// pflag.Value adapter so HWVendor can be used with fs.Var.

type hwVendorValue struct{ p *spec.HWVendor }

func (h *hwVendorValue) String() string { return string(*h.p) }
func (h *hwVendorValue) Type() string   { return "vendor" }
func (h *hwVendorValue) Set(s string) error {
	v := spec.HWVendor(strings.ToLower(strings.TrimSpace(s)))
	if v == "none" {
		v = spec.HWNone
	}
	for _, known := range spec.HWVendors {
		if v == known {
			*h.p = v
			return nil
		}
	}
	return fmt.Errorf("invalid hwaccel %q (use nvenc, qsv, vaapi, videotoolbox, amf or auto)", s)
}
