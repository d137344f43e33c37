package ffmpeg

import (
	"strconv"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/filtergraph"
	"github.com/backmassage/vidconv/internal/planner"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/spec"
)

// Options configures a Synthesizer. Zero values take the defaults.
type Options struct {
	Binary      string // ffmpeg executable; default "ffmpeg".
	ScaleFlags  string // Scale filter algorithm; default "bicubic".
	VAAPIDevice string // Render node for VAAPI encoders.
}

// Synthesizer turns a plan into an ffmpeg command. It holds no state
// besides its options, so the same inputs always give the same command.
type Synthesizer struct {
	opts Options
}

// NewSynthesizer fills defaults into opts.
func NewSynthesizer(opts Options) *Synthesizer {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.ScaleFlags == "" {
		opts.ScaleFlags = "bicubic"
	}
	if opts.VAAPIDevice == "" {
		opts.VAAPIDevice = "/dev/dri/renderD128"
	}
	return &Synthesizer{opts: opts}
}

// videoOutput is the pad name of the filtered primary video.
const videoOutput = "vout"

// Synthesize builds the command for one encode. Time values are validated
// here; a malformed one is a validation error and nothing is emitted.
func (s *Synthesizer) Synthesize(snap *probe.Snapshot, sp *spec.Spec, plan *planner.Plan, input, output string) (*Command, error) {
	if err := validateTimes(sp); err != nil {
		return nil, err
	}
	if plan.Screenshot {
		return s.screenshot(snap, sp, plan, input, output)
	}

	cmd := &Command{Binary: s.opts.Binary}

	// --- Filter graph (video active only) ---
	var graph *filtergraph.Graph
	wm := sp.Watermark()
	if plan.VideoCodecActive {
		graph = s.compose(snap, sp, plan)
		if graph.Empty() {
			graph = nil
		}
	}
	if graph == nil {
		wm = nil
	}

	// --- Input ---
	if sp.LogLevel != "" {
		cmd.Input = append(cmd.Input, "-loglevel", sp.LogLevel)
	}
	if sp.HWAccel != spec.HWNone {
		cmd.Input = append(cmd.Input, "-hwaccel", "auto")
	}
	if plan.VideoCodecActive && len(plan.HWFilters) > 0 {
		cmd.Input = append(cmd.Input,
			"-init_hw_device", "vaapi=va:"+s.opts.VAAPIDevice,
			"-filter_hw_device", "va",
		)
	}
	if !sp.Seek().IsZero() {
		cmd.Input = append(cmd.Input, "-ss", string(sp.Seek()))
	}
	cmd.Input = append(cmd.Input, "-i", input)
	if wm != nil {
		cmd.Input = append(cmd.Input, "-loop", "1", "-i", wm.File)
	}

	// --- Maps ---
	if sp.StripMetadata {
		cmd.Map = append(cmd.Map, "-map_metadata", "-1")
	} else {
		cmd.Map = append(cmd.Map, "-map_metadata", "0")
	}
	cmd.Map = append(cmd.Map, mapArgs(plan, graph)...)

	// --- Filter ---
	if graph != nil {
		cmd.Filter = []string{"-filter_complex", graph.String()}
	}

	// --- Transcode ---
	cmd.Transcode = s.transcode(sp, plan, graph)

	// --- Output ---
	cmd.Output = []string{output}
	return cmd, nil
}

// compose builds the video graph for the first re-encoded video stream.
// Implicit plans have no entries and filter the probed primary video.
func (s *Synthesizer) compose(snap *probe.Snapshot, sp *spec.Spec, plan *planner.Plan) *filtergraph.Graph {
	label := ""
	if v := plan.FilteredVideo(); v != nil {
		label = v.InputLabel
	} else if plan.Implicit && snap.Video != nil {
		label = "0:" + strconv.Itoa(snap.Video.Index)
	}
	if label == "" {
		return filtergraph.Compose(filtergraph.Request{})
	}

	w, h, _ := planner.Dimensions(plan.Size)
	return filtergraph.Compose(filtergraph.Request{
		Input:            label,
		Deinterlace:      sp.Deinterlace && snap.Video != nil && snap.Video.Interlaced,
		Width:            w,
		Height:           h,
		ScaleFlags:       s.opts.ScaleFlags,
		Watermark:        sp.Watermark(),
		WatermarkInput:   "1:v",
		ExpectedDuration: sp.ExpectedDuration(snap.Duration),
		Suffix:           plan.HWFilters,
		Output:           videoOutput,
	})
}

// mapArgs emits the -map entries. The filtered video reads the graph
// output when there is one so it is not mapped twice.
func mapArgs(plan *planner.Plan, graph *filtergraph.Graph) []string {
	out := ""
	if graph != nil {
		out = graph.Output()
	}

	if plan.Implicit {
		if out == "" {
			return []string{"-map", "0"}
		}
		return []string{"-map", "[" + out + "]", "-map", "0:a?", "-map", "0:s?"}
	}

	var args []string
	filtered := plan.FilteredVideo()
	for _, e := range plan.Mapped() {
		label := e.InputLabel
		if out != "" && filtered != nil && e.SourceIndex == filtered.SourceIndex && e.Type == probe.Video {
			label = "[" + out + "]"
		}
		args = append(args, "-map", label)
	}
	return args
}

func (s *Synthesizer) transcode(sp *spec.Spec, plan *planner.Plan, graph *filtergraph.Graph) []string {
	var c clauses

	// --- Per-stream codec and metadata ---
	if plan.Implicit {
		c.add(plan.ImplicitCodecs...)
	}
	for _, e := range plan.Mapped() {
		for _, cl := range e.Clauses {
			c.add(cl...)
		}
	}

	if sp.VFrames > 0 {
		c.add("-vframes", strconv.Itoa(sp.VFrames))
	}

	// --- Format-wide video ---
	if plan.VideoCodecActive {
		if plan.PixFmt != "" && len(plan.HWFilters) == 0 {
			c.add("-pix_fmt", plan.PixFmt)
		}
		if sp.CRF > 0 {
			c.add("-crf", strconv.Itoa(sp.CRF))
		} else if sp.VideoBitrate != "" {
			c.add("-b:v", sp.VideoBitrate)
		}
		if sp.Preset != "" {
			c.add("-preset", sp.Preset)
		}
		c.add("-r", strconv.Itoa(plan.FPS))
		if plan.Size != "" && !scaledByGraph(plan, graph) {
			c.add("-s", plan.Size)
		}
		if len(plan.ColorOpts) > 0 {
			c.add(plan.ColorOpts...)
		}
	}

	if len(sp.Extra) > 0 {
		c.add(sp.Extra...)
	}

	// --- Format-wide audio ---
	if plan.AudioCodecActive {
		if sp.AudioBitrate != "" {
			c.add("-b:a", sp.AudioBitrate)
		}
		if sp.SampleRate > 0 {
			c.add("-ar", strconv.Itoa(sp.SampleRate))
		}
		if sp.Channels > 0 {
			c.add("-ac", strconv.Itoa(sp.Channels))
		}
	}

	for _, t := range plan.Excluded {
		c.add(t.DisableFlag())
	}

	// --- Globals ---
	if sp.Overwrite {
		c.add("-y")
	}
	if sp.Experimental {
		c.add("-strict", "experimental")
	}
	if sp.Format != "" {
		c.add("-f", MuxerName(sp.Format))
	}
	if sp.FastStart {
		c.add("-movflags", "faststart")
	}
	if d := sp.Duration(); !d.IsZero() {
		c.add("-t", string(d))
	}
	if at := sp.OutputSeek(); !at.IsZero() {
		c.add("-ss", string(at))
	}
	if to := sp.To(); !to.IsZero() {
		c.add("-to", string(to))
	}
	return c.out
}

func scaledByGraph(plan *planner.Plan, graph *filtergraph.Graph) bool {
	if graph == nil {
		return false
	}
	_, _, ok := planner.Dimensions(plan.Size)
	return ok
}

// screenshot builds a single-frame jpeg extraction of the primary video.
func (s *Synthesizer) screenshot(snap *probe.Snapshot, sp *spec.Spec, plan *planner.Plan, input, output string) (*Command, error) {
	req := sp.ScreenshotRequest()
	primary := plan.PrimaryVideo()
	if req == nil || primary == nil {
		return nil, errs.Validationf("screenshot needs a video stream")
	}

	at := req.At
	if at > 0 && at < 1 {
		at *= snap.Duration
	}

	cmd := &Command{Binary: s.opts.Binary}
	if sp.LogLevel != "" {
		cmd.Input = append(cmd.Input, "-loglevel", sp.LogLevel)
	}
	cmd.Input = append(cmd.Input, "-ss", string(spec.Seconds(at)), "-i", input)
	cmd.Map = []string{"-map", primary.InputLabel}
	if req.Width > 0 {
		cmd.Filter = []string{"-vf", "scale=" + strconv.Itoa(req.Width) + ":-1"}
	}

	var c clauses
	c.add("-t", string(sp.Duration()))
	c.add("-vframes", "1")
	c.add("-an")
	c.add("-f", MuxerName(sp.Format))
	if sp.Overwrite {
		c.add("-y")
	}
	cmd.Transcode = c.out
	cmd.Output = []string{output}
	return cmd, nil
}

// validateTimes rejects malformed seek, duration and bound values.
func validateTimes(sp *spec.Spec) error {
	for _, ts := range []spec.Timestamp{sp.Seek(), sp.Duration(), sp.OutputSeek(), sp.To()} {
		if ts.IsZero() {
			continue
		}
		if err := ts.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MuxerName maps a format or extension name to the ffmpeg muxer for -f.
func MuxerName(format string) string {
	switch format {
	case "mkv":
		return "matroska"
	case "jpg", "jpeg":
		return "image2"
	case "m4a":
		return "ipod"
	}
	return format
}
