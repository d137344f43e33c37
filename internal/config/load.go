package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/vidconv/internal/spec"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIDCONV_"

// LoadFile decodes a .toml, .yaml or .yml file over cfg. Unknown keys are
// an error in both formats.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (use .toml, .yaml or .yml)", path)
	}
	return nil
}

// ApplyEnv loads envFile (when it exists) into the process environment and
// then applies VIDCONV_* variables over cfg. Variables already set in the
// environment win over the file.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	str := map[string]*string{
		"FFMPEG":           &cfg.FFmpeg,
		"FFPROBE":          &cfg.FFprobe,
		"SCALE_FLAGS":      &cfg.ScaleFlags,
		"VAAPI_DEVICE":     &cfg.VAAPIDevice,
		"LOGLEVEL":         &cfg.LogLevel,
		"OUTPUT_DIR":       &cfg.OutputDir,
		"PRESET":           &cfg.Preset,
		"LOG_DIR":          &cfg.LogDir,
		"LOG_FILE":         &cfg.LogFile,
		"METRICS_TEXTFILE": &cfg.MetricsTextfile,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HWACCEL"); ok {
		cfg.HWAccel = spec.HWVendor(strings.ToLower(v))
	}
	if v, ok := os.LookupEnv(EnvPrefix + "COLOR"); ok {
		cfg.ColorMode = ColorMode(strings.ToLower(v))
	}

	flags := map[string]*bool{
		"OVERWRITE":  &cfg.Overwrite,
		"DEBUG":      &cfg.Debug,
		"DELETE_LOG": &cfg.DeleteLog,
		"PROGRESS":   &cfg.Progress,
		"VERBOSE":    &cfg.Verbose,
	}
	for key, dst := range flags {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s must be a boolean (got %q)", EnvPrefix, key, v)
		}
		*dst = b
	}
	return nil
}
