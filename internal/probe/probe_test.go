package probe

import (
	"errors"
	"testing"

	"github.com/backmassage/vidconv/internal/errs"
)

// Realistic ffprobe JSON for a Matroska file with:
//   - 1 attached pic (cover art, left out of the video group)
//   - 1 HEVC Main 10 HDR video stream (1920x1080, smpte2084, bt2020)
//   - 1 AAC stereo audio stream (48000 Hz, jpn)
//   - 1 ASS subtitle stream (eng)
//   - 2 chapters
const sampleHDR = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 900,
      "pix_fmt": "yuvj444p",
      "disposition": { "default": 0, "attached_pic": 1 },
      "tags": { "comment": "Cover (front)" }
    },
    {
      "index": 1,
      "codec_name": "hevc",
      "codec_type": "video",
      "profile": "Main 10",
      "pix_fmt": "yuv420p10le",
      "width": 1920,
      "height": 1080,
      "display_aspect_ratio": "16:9",
      "bit_rate": "5000000",
      "field_order": "progressive",
      "color_transfer": "smpte2084",
      "color_primaries": "bt2020",
      "color_space": "bt2020nc",
      "r_frame_rate": "24000/1001",
      "avg_frame_rate": "24000/1001",
      "disposition": { "default": 1, "attached_pic": 0 },
      "tags": {}
    },
    {
      "index": 2,
      "codec_name": "aac",
      "codec_type": "audio",
      "channels": 2,
      "sample_rate": "48000",
      "bit_rate": "128000",
      "disposition": { "default": 1, "attached_pic": 0 },
      "tags": { "language": "jpn", "title": "Stereo" }
    },
    {
      "index": 3,
      "codec_name": "ass",
      "codec_type": "subtitle",
      "disposition": { "default": 0 },
      "tags": { "language": "eng" }
    }
  ],
  "chapters": [
    { "start_time": "0.000000", "end_time": "90.000000", "tags": { "title": "Opening" } },
    { "start_time": "90.000000", "end_time": "1437.123000", "tags": { "title": "Part A" } }
  ],
  "format": {
    "filename": "/media/test/Show.S01E01.mkv",
    "nb_streams": 4,
    "format_name": "matroska,webm",
    "format_long_name": "Matroska / WebM",
    "duration": "1437.123000",
    "size": "1234567890",
    "bit_rate": "6873456",
    "tags": { "title": "Episode 1" }
  }
}`

// SDR file with interlaced anamorphic video, untagged audio and a data track.
const sampleInterlaced = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mpeg2video",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 720,
      "height": 576,
      "display_aspect_ratio": "16:9",
      "field_order": "tt",
      "r_frame_rate": "25/1",
      "avg_frame_rate": "0/0",
      "tags": {}
    },
    {
      "index": 1,
      "codec_name": "ac3",
      "codec_type": "audio",
      "channels": 6,
      "sample_rate": "48000",
      "bit_rate": "448000",
      "tags": { "language": "rus" }
    },
    {
      "index": 2,
      "codec_name": "mp2",
      "codec_type": "audio",
      "channels": 2,
      "sample_rate": "44100",
      "tags": {}
    },
    {
      "index": 3,
      "codec_name": "bin_data",
      "codec_type": "data",
      "codec_tag_string": "tmcd"
    }
  ],
  "format": {
    "filename": "/media/test/tape.vob",
    "nb_streams": 4,
    "format_name": "mpeg",
    "duration": "600.5",
    "size": "400000000",
    "bit_rate": "5000000"
  }
}`

// Phone clip recorded in portrait; rotation lives in side data.
const sampleVertical = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30/1",
      "avg_frame_rate": "29.97",
      "duration": "12.5",
      "side_data_list": [ { "side_data_type": "Display Matrix", "rotation": -90 } ]
    }
  ],
  "format": { "filename": "clip.mov", "nb_streams": 1, "format_name": "mov,mp4,m4a,3gp,3g2,mj2" }
}`

func TestParseJSON_HDRFile(t *testing.T) {
	snap, err := ParseJSON([]byte(sampleHDR))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	if snap.Duration != 1437.123 {
		t.Errorf("duration: got %v", snap.Duration)
	}
	if snap.Format.FormatName != "matroska,webm" || snap.Format.Size != 1234567890 {
		t.Errorf("format: %+v", snap.Format)
	}

	if got := len(snap.Streams[Video]); got != 1 {
		t.Fatalf("video streams: got %d, want 1 (cover art skipped)", got)
	}
	v := snap.Video
	if v == nil {
		t.Fatal("Video is nil")
	}
	if v.Index != 1 || v.Codec != "hevc" {
		t.Errorf("primary video: index=%d codec=%q", v.Index, v.Codec)
	}
	if !v.HD || !v.HDR || !v.TenBit || v.Interlaced || v.Vertical {
		t.Errorf("flags: %+v", *v)
	}
	if v.DAR != "16:9" || v.DARValue < 1.77 || v.DARValue > 1.78 {
		t.Errorf("dar: %q %v", v.DAR, v.DARValue)
	}
	if v.FPS != 24 {
		t.Errorf("fps: got %d, want 24", v.FPS)
	}

	a := snap.Streams[Audio]
	if len(a) != 1 || a[0].Language != "jpn" || a[0].Title != "Stereo" || a[0].BitRate != 128000 {
		t.Errorf("audio: %+v", a)
	}
	s := snap.Streams[Subtitle]
	if len(s) != 1 || s[0].Codec != "ass" || s[0].Language != "eng" {
		t.Errorf("subtitle: %+v", s)
	}

	if len(snap.Chapters) != 2 || snap.Chapters[1].Title != "Part A" || snap.Chapters[1].End != 1437.123 {
		t.Errorf("chapters: %+v", snap.Chapters)
	}
}

func TestParseJSON_InterlacedFile(t *testing.T) {
	snap, err := ParseJSON([]byte(sampleInterlaced))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	if !snap.IsInterlaced() {
		t.Error("expected interlaced")
	}
	if snap.Video.HD {
		t.Error("720 wide is not HD")
	}
	if snap.Video.FPS != 25 {
		t.Errorf("fps: got %d, want 25 (0/0 avg ignored)", snap.Video.FPS)
	}
	if snap.HDRType() != "sdr" {
		t.Errorf("hdr type: got %q", snap.HDRType())
	}

	audio := snap.Streams[Audio]
	if len(audio) != 2 {
		t.Fatalf("audio streams: got %d, want 2", len(audio))
	}
	if audio[1].Language != UnknownLanguage {
		t.Errorf("untagged language: got %q, want %q", audio[1].Language, UnknownLanguage)
	}
	if audio[1].SampleRate != 44100 {
		t.Errorf("second audio sample_rate: got %d", audio[1].SampleRate)
	}

	data := snap.Streams[Data]
	if len(data) != 1 || data[0].CodecTag != "tmcd" {
		t.Errorf("data: %+v", data)
	}

	want := []StreamType{Video, Audio, Data}
	got := snap.Groups()
	if len(got) != len(want) {
		t.Fatalf("groups: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("groups[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseJSON_VerticalFile(t *testing.T) {
	snap, err := ParseJSON([]byte(sampleVertical))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if !snap.Video.Vertical {
		t.Error("rotation -90 should be vertical")
	}
	if snap.Duration != 12.5 {
		t.Errorf("duration falls back to the video stream: got %v", snap.Duration)
	}
	if snap.Video.FPS != 30 {
		t.Errorf("fps: got %d, want 30", snap.Video.FPS)
	}
	if snap.Video.DARValue < 1.77 || snap.Video.DARValue > 1.78 {
		t.Errorf("dar from dimensions: got %v", snap.Video.DARValue)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid json", `{"streams": [`},
		{"error object", `{"error": {"code": -1094995529, "string": "Invalid data found when processing input"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.in))
			if !errors.Is(err, errs.ErrValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestParseJSON_EmptyStreams(t *testing.T) {
	snap, err := ParseJSON([]byte(`{"streams": [], "format": {"duration": "1.0"}}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(snap.Groups()) != 0 {
		t.Errorf("groups: got %v", snap.Groups())
	}
	if snap.Video != nil {
		t.Error("Video should be nil")
	}
}

func TestStreamBitRate_TagBPSFallback(t *testing.T) {
	j := `{
		"streams": [
			{ "index": 0, "codec_name": "flac", "codec_type": "audio", "tags": { "language": "jpn", "BPS": "930000" } },
			{ "index": 1, "codec_name": "aac", "codec_type": "audio", "bit_rate": "256000", "tags": { "BPS": "192000" } }
		],
		"format": { "duration": "1400.000", "bit_rate": "5714285" }
	}`
	snap, err := ParseJSON([]byte(j))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	a := snap.Streams[Audio]
	if a[0].BitRate != 930000 {
		t.Errorf("audio[0] BitRate: got %d, want 930000 (from tags.BPS)", a[0].BitRate)
	}
	if a[1].BitRate != 256000 {
		t.Errorf("audio[1] BitRate: got %d, want 256000 (from bit_rate field)", a[1].BitRate)
	}
}

func TestResolutionAndBitRate(t *testing.T) {
	snap, _ := ParseJSON([]byte(sampleHDR))
	if got := snap.Resolution(); got != "1920x1080" {
		t.Errorf("resolution: got %q", got)
	}
	if got := snap.VideoBitRate(); got != 5000000 {
		t.Errorf("video bitrate: got %d", got)
	}

	snap, _ = ParseJSON([]byte(sampleInterlaced))
	if got := snap.VideoBitRate(); got != 5000000 {
		t.Errorf("format fallback: got %d", got)
	}

	empty := &Snapshot{}
	if got := empty.Resolution(); got != "unknown" {
		t.Errorf("empty: got %q", got)
	}
}

func TestStreamTypeFlags(t *testing.T) {
	tests := []struct {
		t        StreamType
		spec     string
		disabled string
	}{
		{Video, "v", "-vn"},
		{Audio, "a", "-an"},
		{Subtitle, "s", "-sn"},
		{Data, "d", "-dn"},
	}
	for _, tt := range tests {
		if got := tt.t.Specifier(); got != tt.spec {
			t.Errorf("%s specifier: got %q", tt.t, got)
		}
		if got := tt.t.DisableFlag(); got != tt.disabled {
			t.Errorf("%s disable flag: got %q", tt.t, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{62.5, "00:01:02"},
		{3725, "01:02:05"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProbe_MissingFile(t *testing.T) {
	_, err := NewFFprobe("").Probe(t.Context(), "/definitely/not/here.mkv")
	if !errors.Is(err, errs.ErrValidation) {
		t.Errorf("got %v, want validation error", err)
	}
}
