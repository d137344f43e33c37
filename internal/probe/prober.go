package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/backmassage/vidconv/internal/errs"
)

// Prober produces a Snapshot for a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Snapshot, error)
}

// FFprobe is the ffprobe-backed Prober.
type FFprobe struct {
	Binary string // Default: "ffprobe".
}

// NewFFprobe returns a prober that runs binary (or "ffprobe" when empty).
func NewFFprobe(binary string) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{Binary: binary}
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed snapshot. A missing file, a failed run and an ffprobe error
// object are all validation errors.
func (p *FFprobe) Probe(ctx context.Context, path string) (*Snapshot, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return nil, errs.Validationf("input file %s not exists", path)
	}

	cmd := exec.CommandContext(ctx, p.Binary,
		path,
		"-of", "json",
		"-loglevel", "quiet",
		"-show_format", "-show_streams", "-show_chapters", "-show_error",
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// ffprobe exits non-zero together with an error object; prefer the
	// object's message when there is one.
	runErr := cmd.Run()
	snap, parseErr := ParseJSON(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			return nil, errs.Validationf("error analyzing %s: %v", path, runErr)
		}
		return nil, parseErr
	}
	if runErr != nil {
		return nil, errs.Validationf("error analyzing %s: %v", path, runErr)
	}
	snap.Path = path
	return snap, nil
}

// ParseJSON converts raw ffprobe JSON output into a Snapshot.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Snapshot, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Validationf("parse ffprobe JSON: %v", err)
	}
	if raw.Error != nil {
		return nil, errs.Validationf("ffprobe: %s", raw.Error.String)
	}
	return buildSnapshot(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format   ffprobeFormat    `json:"format"`
	Streams  []ffprobeStream  `json:"streams"`
	Chapters []ffprobeChapter `json:"chapters"`
	Error    *ffprobeError    `json:"error"`
}

type ffprobeError struct {
	Code   int    `json:"code"`
	String string `json:"string"`
}

type ffprobeFormat struct {
	Filename       string            `json:"filename"`
	NbStreams      int               `json:"nb_streams"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
}

type ffprobeStream struct {
	Index              int               `json:"index"`
	CodecName          string            `json:"codec_name"`
	CodecType          string            `json:"codec_type"`
	CodecTagString     string            `json:"codec_tag_string"`
	PixFmt             string            `json:"pix_fmt"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	Duration           string            `json:"duration"`
	BitRate            string            `json:"bit_rate"`
	FieldOrder         string            `json:"field_order"`
	ColorTransfer      string            `json:"color_transfer"`
	ColorPrimaries     string            `json:"color_primaries"`
	ColorSpace         string            `json:"color_space"`
	RFrameRate         string            `json:"r_frame_rate"`
	AvgFrameRate       string            `json:"avg_frame_rate"`
	Channels           int               `json:"channels"`
	SampleRate         string            `json:"sample_rate"`
	SideDataList       []ffprobeSideData `json:"side_data_list"`
	Disposition        map[string]int    `json:"disposition"`
	Tags               map[string]string `json:"tags"`
}

type ffprobeSideData struct {
	Rotation *int `json:"rotation"`
}

type ffprobeChapter struct {
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Tags      map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildSnapshot(raw *ffprobeOutput) *Snapshot {
	snap := &Snapshot{
		Format:  convertFormat(&raw.Format),
		Streams: make(map[StreamType][]Stream),
	}
	snap.Duration = snap.Format.Duration

	for i := range raw.Streams {
		s := &raw.Streams[i]
		st := convertStream(s)

		if st.Type == Video {
			// Cover art and motion-jpeg thumbnails are not real video.
			if st.Codec == "mjpeg" || st.IsAttachedPic {
				continue
			}
			if snap.Video == nil {
				snap.Video = videoInfo(&st)
			}
			if snap.Duration == 0 {
				snap.Duration = parseFloat(s.Duration)
			}
		}
		snap.Streams[st.Type] = append(snap.Streams[st.Type], st)
	}

	for _, c := range raw.Chapters {
		snap.Chapters = append(snap.Chapters, Chapter{
			Title: c.Tags["title"],
			Start: parseFloat(c.StartTime),
			End:   parseFloat(c.EndTime),
		})
	}
	return snap
}

func convertFormat(f *ffprobeFormat) FormatInfo {
	return FormatInfo{
		Filename:       f.Filename,
		NbStreams:      f.NbStreams,
		FormatName:     f.FormatName,
		FormatLongName: f.FormatLongName,
		Duration:       parseFloat(f.Duration),
		Size:           parseInt64(f.Size),
		BitRate:        parseInt64(f.BitRate),
		Tags:           f.Tags,
	}
}

func convertStream(s *ffprobeStream) Stream {
	lang := strings.TrimSpace(s.Tags["language"])
	if lang == "" {
		lang = UnknownLanguage
	}
	st := Stream{
		Index:          s.Index,
		Type:           StreamType(s.CodecType),
		Codec:          s.CodecName,
		CodecTag:       s.CodecTagString,
		Language:       lang,
		Title:          s.Tags["title"],
		BitRate:        streamBitRate(s),
		Width:          s.Width,
		Height:         s.Height,
		PixFmt:         s.PixFmt,
		FieldOrder:     s.FieldOrder,
		ColorTransfer:  s.ColorTransfer,
		ColorPrimaries: s.ColorPrimaries,
		ColorSpace:     s.ColorSpace,
		DAR:            s.DisplayAspectRatio,
		IsAttachedPic:  s.Disposition["attached_pic"] == 1,
		IsDefault:      s.Disposition["default"] == 1,
		Channels:       s.Channels,
		SampleRate:     parseInt(s.SampleRate),
	}
	if st.Type == "" {
		st.Type = Data
	}
	if st.Type == Video {
		st.Rotation = rotation(s)
		st.FPS = int(math.Max(parseRate(s.RFrameRate), parseRate(s.AvgFrameRate)))
	}
	return st
}

func videoInfo(st *Stream) *VideoInfo {
	v := &VideoInfo{
		Index:      st.Index,
		Codec:      st.Codec,
		Width:      st.Width,
		Height:     st.Height,
		Interlaced: isInterlaced(st),
		Vertical:   isVertical(st),
		HD:         st.Width >= 1280,
		HDR:        isHDR(st),
		TenBit:     isTenBit(st),
		DAR:        st.DAR,
		DARValue:   parseRatio(st.DAR),
		FPS:        st.FPS,
	}
	if v.DARValue == 0 && st.Height > 0 {
		v.DARValue = float64(st.Width) / float64(st.Height)
	}
	return v
}

// streamBitRate prefers bit_rate and falls back to the Matroska BPS tag.
func streamBitRate(s *ffprobeStream) int64 {
	if n := parseInt64(s.BitRate); n > 0 {
		return n
	}
	return parseInt64(s.Tags["BPS"])
}

func rotation(s *ffprobeStream) int {
	for _, sd := range s.SideDataList {
		if sd.Rotation != nil {
			return *sd.Rotation
		}
	}
	return parseInt(s.Tags["rotate"])
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, _ := strconv.Atoi(s)
	return n
}

// parseRate turns "24000/1001" into ceil(23.976); a zero denominator is 0.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return math.Ceil(parseFloat(num))
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return math.Ceil(parseFloat(num) / d)
}

// parseRatio turns "16:9" into 1.777…; malformed or zero parts give 0.
func parseRatio(s string) float64 {
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	den := parseFloat(h)
	if den == 0 {
		return 0
	}
	return parseFloat(w) / den
}

// FormatDuration renders seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	d := int(seconds)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", d/3600, d%3600/60, d%60)
}
