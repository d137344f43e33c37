package probe

import (
	"sort"
	"strconv"
)

// StreamType is the ffprobe codec_type of a stream.
type StreamType string

const (
	Video    StreamType = "video"
	Audio    StreamType = "audio"
	Subtitle StreamType = "subtitle"
	Data     StreamType = "data"
)

// StreamOrder is the canonical group order used for planning and display.
var StreamOrder = []StreamType{Video, Audio, Subtitle, Data}

// Specifier returns the ffmpeg stream specifier letter (v, a, s, d).
func (t StreamType) Specifier() string {
	switch t {
	case Video:
		return "v"
	case Audio:
		return "a"
	case Subtitle:
		return "s"
	case Data:
		return "d"
	}
	return string(t)
}

// DisableFlag returns the ffmpeg flag that drops every stream of this type.
func (t StreamType) DisableFlag() string {
	return "-" + t.Specifier() + "n"
}

// UnknownLanguage is what the probe records when a stream has no language tag.
const UnknownLanguage = "unk"

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename       string
	NbStreams      int
	FormatName     string
	FormatLongName string
	Duration       float64
	Size           int64
	BitRate        int64
	Tags           map[string]string
}

// Stream is one probed stream. Video-only and audio-only fields are zero
// for the other types.
type Stream struct {
	Index    int
	Type     StreamType
	Codec    string
	CodecTag string
	Language string
	Title    string
	BitRate  int64

	// Video.
	Width          int
	Height         int
	PixFmt         string
	FieldOrder     string
	ColorTransfer  string
	ColorPrimaries string
	ColorSpace     string
	Rotation       int
	FPS            int
	DAR            string
	IsAttachedPic  bool

	// Audio.
	Channels   int
	SampleRate int

	IsDefault bool
}

// VideoInfo summarizes the primary video stream.
type VideoInfo struct {
	Index      int
	Codec      string
	Width      int
	Height     int
	Interlaced bool
	Vertical   bool
	HD         bool
	HDR        bool
	TenBit     bool
	DAR        string
	DARValue   float64
	FPS        int
}

// Chapter is one entry of the container's chapter list.
type Chapter struct {
	Title string
	Start float64
	End   float64
}

// Snapshot is the immutable description of one input, produced once per
// file and read by the planner, composer and tracker.
type Snapshot struct {
	Path     string
	Format   FormatInfo
	Duration float64
	Streams  map[StreamType][]Stream
	Video    *VideoInfo
	Chapters []Chapter
}

// Groups returns the stream types that have at least one stream, canonical
// types first and any others after them in name order.
func (s *Snapshot) Groups() []StreamType {
	var out []StreamType
	seen := make(map[StreamType]bool)
	for _, t := range StreamOrder {
		if len(s.Streams[t]) > 0 {
			out = append(out, t)
		}
		seen[t] = true
	}
	var extra []StreamType
	for t, list := range s.Streams {
		if !seen[t] && len(list) > 0 {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Stream looks up a stream by absolute index.
func (s *Snapshot) Stream(index int) (Stream, bool) {
	for _, list := range s.Streams {
		for _, st := range list {
			if st.Index == index {
				return st, true
			}
		}
	}
	return Stream{}, false
}

// First returns the first stream of type t, or nil.
func (s *Snapshot) First(t StreamType) *Stream {
	if list := s.Streams[t]; len(list) > 0 {
		return &list[0]
	}
	return nil
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (s *Snapshot) Resolution() string {
	if s.Video == nil || s.Video.Width <= 0 || s.Video.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(s.Video.Width) + "x" + strconv.Itoa(s.Video.Height)
}

// VideoBitRate returns the primary video stream bitrate in bits/sec,
// falling back to the format-level bitrate.
func (s *Snapshot) VideoBitRate() int64 {
	if s.Video != nil {
		if st, ok := s.Stream(s.Video.Index); ok && st.BitRate > 0 {
			return st.BitRate
		}
	}
	return s.Format.BitRate
}
