package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/probe"
)

func TestTimestamp_Validate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"10", true},
		{"12.5", true},
		{"0", true},
		{"1:30", true},
		{"01:02:03", true},
		{"01:02:03.25", true},
		{"100:00:00", true},
		{"", false},
		{"-5", false},
		{"abc", false},
		{"1:2:3:4", false},
		{"10s", false},
		{"1:300", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Timestamp(tt.in).Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errs.ErrValidation), "got %v", err)
			}
		})
	}
}

func TestTimestamp_Seconds(t *testing.T) {
	tests := []struct {
		in   Timestamp
		want float64
	}{
		{"40", 40},
		{"1:30", 90},
		{"01:02:03.5", 3723.5},
		{Seconds(30), 30},
		{Seconds(2.25), 2.25},
	}
	for _, tt := range tests {
		got, err := tt.in.Seconds()
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "%s", tt.in)
	}
	assert.Equal(t, Timestamp("30"), Seconds(30))
}

func TestNew_RejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Params)
	}{
		{"loglevel", func(p *Params) { p.LogLevel = "chatty" }},
		{"hwaccel", func(p *Params) { p.HWAccel = "cuda-magic" }},
		{"crf", func(p *Params) { p.CRF = 99 }},
		{"negative width", func(p *Params) { p.Width = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mut(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestTrim(t *testing.T) {
	s, err := New(DefaultParams())
	require.NoError(t, err)

	require.NoError(t, s.Trim("10", "40"))
	assert.Equal(t, Timestamp("10"), s.Seek())
	assert.Equal(t, Timestamp("30"), s.Duration())
	assert.Equal(t, 30.0, s.ExpectedDuration(600))

	assert.ErrorIs(t, s.Trim("40", "10"), errs.ErrValidation)
	assert.ErrorIs(t, s.Trim("ten", "40"), errs.ErrValidation)
}

func TestExpectedDuration(t *testing.T) {
	s, _ := New(DefaultParams())
	assert.Equal(t, 120.0, s.ExpectedDuration(120))

	s.Start("20")
	assert.Equal(t, 100.0, s.ExpectedDuration(120))

	require.NoError(t, s.SetDuration("00:00:15"))
	assert.Equal(t, 15.0, s.ExpectedDuration(120))
}

func TestExpectedDuration_OutputCut(t *testing.T) {
	s, _ := New(DefaultParams())
	s.SetTo("40")
	assert.Equal(t, 40.0, s.ExpectedDuration(120))

	s.Start("10")
	assert.Equal(t, 40.0, s.ExpectedDuration(120), "-to counts from the seeked start")

	s.SetOutputSeek("00:00:05")
	assert.Equal(t, 35.0, s.ExpectedDuration(120))

	s.Reset()
	s.SetOutputSeek("30")
	assert.Equal(t, 90.0, s.ExpectedDuration(120))
}

func TestReset_RestoresBaseline(t *testing.T) {
	p := DefaultParams()
	p.VideoCodec = "libx264"
	p.Passthrough = []string{"h264"}
	s, err := New(p)
	require.NoError(t, err)

	s.VideoCodec = "libx265"
	s.Passthrough[0] = "hevc"
	s.SetStream(probe.Audio, 1, "eng")
	require.NoError(t, s.Trim("1", "2"))
	require.NoError(t, s.SetWatermark(Watermark{File: "logo.png"}))
	s.Screenshot(0.5, 320)

	s.Reset()
	assert.Equal(t, "libx264", s.VideoCodec)
	assert.Equal(t, []string{"h264"}, s.Passthrough)
	assert.Nil(t, s.Streams)
	assert.True(t, s.Seek().IsZero())
	assert.True(t, s.Duration().IsZero())
	assert.Nil(t, s.Watermark())
	assert.Nil(t, s.ScreenshotRequest())
	assert.Equal(t, 0, s.VFrames)
	assert.Equal(t, 50.0, s.ExpectedDuration(50))
}

func TestClone_IsIndependent(t *testing.T) {
	s, _ := New(DefaultParams())
	s.SetStream(probe.Audio, 2, "eng")
	s.PinStream(probe.Video, 1)

	c := s.Clone()
	c.SetStream(probe.Audio, 1, "rus")
	*c.Streams[probe.Video].FixedIndex = 5
	c.LanguageNames["jpn"] = "japanese"

	assert.Equal(t, 2, s.Streams[probe.Audio].Count)
	assert.Equal(t, []string{"eng"}, s.Streams[probe.Audio].Languages)
	assert.Equal(t, 1, *s.Streams[probe.Video].FixedIndex)
	assert.NotContains(t, s.LanguageNames, "jpn")
}

func TestMappingRule(t *testing.T) {
	idx := 2
	r := MappingRule{Count: 1, Languages: []string{"eng"}, FixedIndex: &idx}
	assert.False(t, r.Excluded())
	assert.True(t, r.Pinned(1))
	assert.False(t, r.Pinned(2))
	assert.True(t, r.Admits("eng"))
	assert.False(t, r.Admits("rus"))
	assert.False(t, r.Full(0))
	assert.True(t, r.Full(1))

	open := MappingRule{Count: Unbounded}
	assert.True(t, open.Admits("rus"))
	assert.False(t, open.Full(1000))
	assert.True(t, MappingRule{}.Excluded())
}

func TestSetLogLevel(t *testing.T) {
	s, _ := New(DefaultParams())
	require.NoError(t, s.SetLogLevel("warning"))
	assert.Equal(t, "warning", s.LogLevel)
	assert.ErrorIs(t, s.SetLogLevel("loud"), errs.ErrValidation)
}

func TestWatermarkPosition(t *testing.T) {
	tests := []struct {
		align Align
		want  string
	}{
		{TopLeft, "10:20"},
		{TopRight, "main_w-overlay_w-10:20"},
		{BottomLeft, "10:main_h-overlay_h-20"},
		{BottomRight, "main_w-overlay_w-10:main_h-overlay_h-20"},
		{"", "main_w-overlay_w-10:main_h-overlay_h-20"},
	}
	for _, tt := range tests {
		// Negative margins are taken as absolute values.
		w := Watermark{File: "logo.png", Align: tt.align, MarginX: -10, MarginY: 20}
		assert.Equal(t, tt.want, w.Position(), "align %q", tt.align)
	}
}

func TestSetWatermark_Validates(t *testing.T) {
	s, _ := New(DefaultParams())
	assert.ErrorIs(t, s.SetWatermark(Watermark{}), errs.ErrValidation)
	assert.ErrorIs(t, s.SetWatermark(Watermark{File: "a.png", Opacity: 2}), errs.ErrValidation)
	assert.ErrorIs(t, s.SetWatermark(Watermark{File: "a.png", Align: "middle"}), errs.ErrValidation)

	require.NoError(t, s.SetWatermark(Watermark{File: "a.png"}))
	assert.Equal(t, BottomRight, s.Watermark().Align)
}

func TestScreenshot(t *testing.T) {
	s, _ := New(DefaultParams())
	s.SetStream(probe.Video, 1)
	s.Screenshot(0.25, 640)

	assert.Nil(t, s.Streams)
	assert.Equal(t, 1, s.VFrames)
	assert.Equal(t, "image2", s.Format)
	assert.Equal(t, "quiet", s.LogLevel)
	assert.Equal(t, Timestamp("0.001"), s.Duration())
	assert.Equal(t, &Screenshot{At: 0.25, Width: 640}, s.ScreenshotRequest())
}
