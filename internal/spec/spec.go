package spec

import (
	"maps"
	"slices"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/probe"
)

// HWVendor selects a hardware encoder family.
type HWVendor string

const (
	HWNone         HWVendor = ""
	HWAuto         HWVendor = "auto" // -hwaccel auto only, software encoder.
	HWNVENC        HWVendor = "nvenc"
	HWQSV          HWVendor = "qsv"
	HWVAAPI        HWVendor = "vaapi"
	HWVideoToolbox HWVendor = "videotoolbox"
	HWAMF          HWVendor = "amf"
)

// HWVendors lists every accepted vendor value.
var HWVendors = []HWVendor{HWNone, HWAuto, HWNVENC, HWQSV, HWVAAPI, HWVideoToolbox, HWAMF}

// LogLevels is the ffmpeg -loglevel whitelist.
var LogLevels = []string{"quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace"}

// Params is the complete, typed option set of an encode. Unknown options
// cannot be expressed; bad values are rejected by Validate.
type Params struct {
	// Codecs per stream type. "copy" remuxes.
	VideoCodec    string
	AudioCodec    string
	SubtitleCodec string

	VideoBitrate string // e.g. "2000k".
	AudioBitrate string // e.g. "96k".
	SampleRate   int
	Channels     int
	PixFmt       string
	FPS          int // 0 takes the source frame rate, falling back to 30.
	CRF          int // 0 selects bitrate mode.
	Preset       string
	Width        int    // Target width; the size is derived from the source DAR.
	Size         string // Explicit size ("1280x720", "hd720"); Width wins when both are set.
	VFrames      int
	Format       string
	Extra        []string

	// Output naming.
	Prefix    string
	OutputDir string
	Overwrite bool

	Experimental  bool
	FastStart     bool
	StripMetadata bool // -map_metadata -1 when true, 0 otherwise.
	Metadata      bool // Per-stream title/language metadata.
	Deinterlace   bool // Applied only to interlaced sources.
	Preserve10Bit bool // Keep 10-bit sources at 10 bits.
	HWAccel       HWVendor
	LogLevel      string

	// Debug log handling.
	Debug     bool
	LogDir    string
	DeleteLog bool
	Progress  bool

	// Passthrough lists source codec names that are copied, not re-encoded.
	Passthrough []string
	// LanguageNames maps language codes to display names for stream titles.
	LanguageNames map[string]string
	// Streams holds per-type mapping rules. Nil maps everything with -map 0.
	Streams map[probe.StreamType]MappingRule
}

// DefaultParams returns the stock encode settings.
func DefaultParams() Params {
	return Params{
		VideoCodec:    "copy",
		AudioCodec:    "copy",
		SubtitleCodec: "copy",
		VideoBitrate:  "2000k",
		AudioBitrate:  "96k",
		SampleRate:    44100,
		Channels:      2,
		PixFmt:        "yuv420p",
		Experimental:  true,
		StripMetadata: true,
		Deinterlace:   true,
		LanguageNames: map[string]string{
			"eng": "english",
			"rus": "russian",
		},
	}
}

// Validate checks enum-like fields and ranges.
func (p *Params) Validate() error {
	if p.LogLevel != "" && !slices.Contains(LogLevels, p.LogLevel) {
		return errs.Validationf("wrong loglevel %q", p.LogLevel)
	}
	if !slices.Contains(HWVendors, p.HWAccel) {
		return errs.Validationf("unknown hardware accelerator %q", p.HWAccel)
	}
	if p.CRF < 0 || p.CRF > 63 {
		return errs.Validationf("crf %d out of range", p.CRF)
	}
	if p.Width < 0 || p.FPS < 0 || p.VFrames < 0 || p.SampleRate < 0 || p.Channels < 0 {
		return errs.Validationf("numeric options must not be negative")
	}
	for t, r := range p.Streams {
		if r.FixedIndex != nil && *r.FixedIndex < -1 {
			return errs.Validationf("%s: fixed index %d out of range", t, *r.FixedIndex)
		}
	}
	return nil
}

// CodecFor returns the configured codec of a stream type.
func (p *Params) CodecFor(t probe.StreamType) string {
	var c string
	switch t {
	case probe.Video:
		c = p.VideoCodec
	case probe.Audio:
		c = p.AudioCodec
	case probe.Subtitle:
		c = p.SubtitleCodec
	}
	if c == "" {
		return "copy"
	}
	return c
}

// BitrateFor returns the target bitrate of a stream type ("" for none).
func (p *Params) BitrateFor(t probe.StreamType) string {
	switch t {
	case probe.Video:
		return p.VideoBitrate
	case probe.Audio:
		return p.AudioBitrate
	}
	return ""
}

func (p Params) clone() Params {
	out := p
	out.Extra = slices.Clone(p.Extra)
	out.Passthrough = slices.Clone(p.Passthrough)
	out.LanguageNames = maps.Clone(p.LanguageNames)
	if p.Streams != nil {
		out.Streams = make(map[probe.StreamType]MappingRule, len(p.Streams))
		for t, r := range p.Streams {
			out.Streams[t] = r.clone()
		}
	}
	return out
}

// Screenshot describes a single-frame extraction.
type Screenshot struct {
	At    float64 // Seconds, or a fraction of the duration when in (0,1).
	Width int     // 0 keeps the source size.
}

// Spec is the mutable parameter store of one encode. It is not safe for
// concurrent encodes; use Clone. Reset restores the construction baseline.
type Spec struct {
	Params

	baseline   Params
	seek       Timestamp
	outputSeek Timestamp
	to         Timestamp
	duration   Timestamp
	override   float64
	watermark  *Watermark
	screenshot *Screenshot
}

// New validates p and returns a Spec whose baseline is p.
func New(p Params) (*Spec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Spec{Params: p.clone(), baseline: p.clone()}, nil
}

// Clone returns an independent copy.
func (s *Spec) Clone() *Spec {
	out := *s
	out.Params = s.Params.clone()
	out.baseline = s.baseline.clone()
	if s.watermark != nil {
		w := *s.watermark
		out.watermark = &w
	}
	if s.screenshot != nil {
		sc := *s.screenshot
		out.screenshot = &sc
	}
	return &out
}

// Reset drops every change made since New.
func (s *Spec) Reset() {
	*s = Spec{Params: s.baseline.clone(), baseline: s.baseline}
}

// SetStream sets the mapping rule for one stream type.
func (s *Spec) SetStream(t probe.StreamType, count int, languages ...string) {
	if s.Streams == nil {
		s.Streams = make(map[probe.StreamType]MappingRule)
	}
	r := s.Streams[t]
	r.Count = count
	r.Languages = slices.Clone(languages)
	s.Streams[t] = r
}

// PinStream restricts a stream type to one source index.
func (s *Spec) PinStream(t probe.StreamType, index int) {
	if s.Streams == nil {
		s.Streams = make(map[probe.StreamType]MappingRule)
	}
	r, ok := s.Streams[t]
	if !ok {
		r.Count = Unbounded
	}
	r.FixedIndex = &index
	s.Streams[t] = r
}

// SetLogLevel sets -loglevel after checking the whitelist.
func (s *Spec) SetLogLevel(level string) error {
	if !slices.Contains(LogLevels, level) {
		return errs.Validationf("wrong loglevel %q", level)
	}
	s.LogLevel = level
	return nil
}

// Start seeks the input before decoding (input-side -ss).
func (s *Spec) Start(at Timestamp) { s.seek = at }

// SetDuration bounds the output length (-t) and the expected duration.
func (s *Spec) SetDuration(d Timestamp) error {
	sec, err := d.Seconds()
	if err != nil {
		return err
	}
	s.duration = d
	s.override = sec
	return nil
}

// SetOutputSeek seeks on the output side (decodes and discards).
func (s *Spec) SetOutputSeek(at Timestamp) { s.outputSeek = at }

// SetTo stops writing at an output position (-to). Output timestamps
// start at 0 after an input seek, so the cut also bounds the expected
// duration.
func (s *Spec) SetTo(at Timestamp) { s.to = at }

// Trim keeps [start, end): an input-side seek to start and a duration
// bound of end-start, which also becomes the expected output duration.
func (s *Spec) Trim(start, end Timestamp) error {
	from, err := start.Seconds()
	if err != nil {
		return err
	}
	until, err := end.Seconds()
	if err != nil {
		return err
	}
	if until <= from {
		return errs.Validationf("trim end %s is not after start %s", end, start)
	}
	s.seek = start
	s.duration = Seconds(until - from)
	s.override = until - from
	return nil
}

// SetWatermark overlays an image on the primary video.
func (s *Spec) SetWatermark(w Watermark) error {
	if err := w.validate(); err != nil {
		return err
	}
	if w.Align == "" {
		w.Align = BottomRight
	}
	s.watermark = &w
	return nil
}

// Screenshot switches the spec to single-frame extraction: one frame at
// at, no audio, jpeg output, quiet unless a loglevel was set.
func (s *Spec) Screenshot(at float64, width int) {
	s.screenshot = &Screenshot{At: at, Width: width}
	s.Streams = nil
	s.VFrames = 1
	s.Progress = false
	s.Format = "image2"
	s.Overwrite = true
	s.duration = "0.001"
	if s.LogLevel == "" {
		s.LogLevel = "quiet"
	}
}

// Seek returns the input-side seek.
func (s *Spec) Seek() Timestamp { return s.seek }

// OutputSeek returns the output-side seek.
func (s *Spec) OutputSeek() Timestamp { return s.outputSeek }

// To returns the -to bound.
func (s *Spec) To() Timestamp { return s.to }

// Duration returns the -t bound.
func (s *Spec) Duration() Timestamp { return s.duration }

// Watermark returns the configured watermark, or nil.
func (s *Spec) Watermark() *Watermark { return s.watermark }

// ScreenshotRequest returns the screenshot request, or nil.
func (s *Spec) ScreenshotRequest() *Screenshot { return s.screenshot }

// ExpectedDuration returns the output length used for progress: the
// trim/duration override when one was set, then an output-side -to cut
// (less any output seek), else the source duration minus the seeks.
func (s *Spec) ExpectedDuration(source float64) float64 {
	if s.override > 0 {
		return s.override
	}
	skip := s.outputSeek.secondsOrZero()
	if to := s.to.secondsOrZero(); to > skip {
		return to - skip
	}
	if off := s.seek.secondsOrZero() + skip; off > 0 && off < source {
		return source - off
	}
	return source
}
