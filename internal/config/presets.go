package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/backmassage/vidconv/internal/spec"
)

// DefaultPreset is selected when no preset is named.
const DefaultPreset = "default"

//go:embed presets.toml
var builtinPresets []byte

// Preset is a named set of encode parameters. Zero fields keep the value
// from spec.DefaultParams.
type Preset struct {
	Prefix       string   `toml:"prefix" yaml:"prefix"`
	Width        int      `toml:"width" yaml:"width"`
	Size         string   `toml:"size" yaml:"size"`
	VideoCodec   string   `toml:"video_codec" yaml:"video_codec"`
	AudioCodec   string   `toml:"audio_codec" yaml:"audio_codec"`
	VideoBitrate string   `toml:"video_bitrate" yaml:"video_bitrate"`
	AudioBitrate string   `toml:"audio_bitrate" yaml:"audio_bitrate"`
	Channels     int      `toml:"channels" yaml:"channels"`
	SampleRate   int      `toml:"sample_rate" yaml:"sample_rate"`
	CRF          int      `toml:"crf" yaml:"crf"`
	Preset       string   `toml:"encoder_preset" yaml:"encoder_preset"`
	Format       string   `toml:"format" yaml:"format"`
	FastStart    bool     `toml:"faststart" yaml:"faststart"`
	Metadata     bool     `toml:"metadata" yaml:"metadata"`
	Passthrough  []string `toml:"passthrough" yaml:"passthrough"`
	Extra        []string `toml:"extra" yaml:"extra"`
}

// Params maps the preset onto spec.DefaultParams.
func (p Preset) Params() spec.Params {
	out := spec.DefaultParams()
	out.Prefix = p.Prefix
	out.Width = p.Width
	out.Size = p.Size
	if p.VideoCodec != "" {
		out.VideoCodec = p.VideoCodec
	}
	if p.AudioCodec != "" {
		out.AudioCodec = p.AudioCodec
	}
	if p.VideoBitrate != "" {
		out.VideoBitrate = p.VideoBitrate
	}
	if p.AudioBitrate != "" {
		out.AudioBitrate = p.AudioBitrate
	}
	if p.Channels > 0 {
		out.Channels = p.Channels
	}
	if p.SampleRate > 0 {
		out.SampleRate = p.SampleRate
	}
	out.CRF = p.CRF
	out.Preset = p.Preset
	out.Format = p.Format
	out.FastStart = p.FastStart
	out.Metadata = p.Metadata
	out.Passthrough = slices.Clone(p.Passthrough)
	out.Extra = slices.Clone(p.Extra)
	return out
}

func (p Preset) validate() error {
	for _, br := range []*string{&p.VideoBitrate, &p.AudioBitrate} {
		if *br == "" {
			continue
		}
		if _, err := normalizeBitrate(*br); err != nil {
			return err
		}
	}
	params := p.Params()
	return params.Validate()
}

// BuiltinPresets decodes the embedded preset table.
func BuiltinPresets() (map[string]Preset, error) {
	presets := make(map[string]Preset)
	dec := toml.NewDecoder(bytes.NewReader(builtinPresets))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&presets); err != nil {
		return nil, fmt.Errorf("parse built-in presets: %w", err)
	}
	return presets, nil
}

// AllPresets merges the built-in presets with those from the config file.
func (c *Config) AllPresets() (map[string]Preset, error) {
	presets, err := BuiltinPresets()
	if err != nil {
		return nil, err
	}
	maps.Copy(presets, c.Presets)
	return presets, nil
}

// ResolvePreset looks a preset up by name; "" selects [DefaultPreset].
func (c *Config) ResolvePreset(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	presets, err := c.AllPresets()
	if err != nil {
		return Preset{}, err
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// PresetNames returns every preset name, sorted.
func (c *Config) PresetNames() ([]string, error) {
	presets, err := c.AllPresets()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(presets)), nil
}
