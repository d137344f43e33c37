package planner

import "github.com/backmassage/vidconv/internal/probe"

// DefaultLanguage replaces missing and "unk" language tags.
const DefaultLanguage = "eng"

// Entry is the verdict for one candidate source stream. Rejected
// candidates carry only their identity and language; nothing else is
// computed for them.
type Entry struct {
	Type        probe.StreamType
	SourceIndex int
	InputLabel  string // "0:<index>".
	Language    string
	Mapped      bool

	// Set only when Mapped.
	Ordinal int    // Output index within the type.
	Codec   string // Target codec or "copy".
	Title   string
	Bitrate string // Informational bitrate ("128 kbps", "crf 23").
	Info    string // e.g. "1920x1080 h264 => 1280x720 libx264 @ 2 Mbps".
	Clauses [][]string
}

// Plan is the planner's result: admitted streams in output order plus the
// resolved format-wide video settings.
type Plan struct {
	Entries []Entry

	VideoCodecActive bool
	AudioCodecActive bool

	// Excluded lists types whose rule count is 0.
	Excluded []probe.StreamType

	// Implicit is set when no mapping rules are configured; ImplicitCodecs
	// then holds the single -c:v/-c:a/-c:s clause and everything is mapped
	// with -map 0.
	Implicit       bool
	ImplicitCodecs []string

	// Screenshot is set for single-frame extraction.
	Screenshot bool

	// Resolved once per plan.
	VideoCodec string
	PixFmt     string
	Size       string
	FPS        int

	// HWFilters ends the primary video chain (VAAPI upload); ColorOpts
	// carries HDR color metadata. Both apply only when video is active.
	HWFilters []string
	ColorOpts []string
}

// Mapped returns the admitted entries in output order.
func (p *Plan) Mapped() []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Mapped {
			out = append(out, e)
		}
	}
	return out
}

// MappedOf returns the admitted entries of one type.
func (p *Plan) MappedOf(t probe.StreamType) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Mapped && e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// PrimaryVideo returns the first admitted video entry, or nil.
func (p *Plan) PrimaryVideo() *Entry {
	for i := range p.Entries {
		if p.Entries[i].Mapped && p.Entries[i].Type == probe.Video {
			return &p.Entries[i]
		}
	}
	return nil
}

// FilteredVideo returns the first admitted video entry that is
// re-encoded, or nil. Copied streams cannot pass through a filter graph.
func (p *Plan) FilteredVideo() *Entry {
	for i := range p.Entries {
		e := &p.Entries[i]
		if e.Mapped && e.Type == probe.Video && e.Codec != "copy" {
			return e
		}
	}
	return nil
}

// Info returns the informational text of admitted streams of one type.
func (p *Plan) Info(t probe.StreamType) []string {
	var out []string
	for _, e := range p.MappedOf(t) {
		if e.Info != "" {
			out = append(out, e.Info)
		}
	}
	return out
}
