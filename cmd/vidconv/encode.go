package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/vidconv/internal/check"
	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/pipeline"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/spec"
)

// encodeOptions are per-run overrides on top of the preset.
type encodeOptions struct {
	output string

	vcodec, acodec, scodec string
	vbitrate, abitrate     string
	format                 string
	width, crf             int
	extra                  []string

	video, audio, subtitle int
	langs                  []string
	pins                   map[probe.StreamType]*int

	start, duration, to, outputSeek string

	watermark spec.Watermark
	wmAlign   string
}

func (a *app) encodeCommand() *cobra.Command {
	opts := encodeOptions{pins: map[probe.StreamType]*int{
		probe.Video: new(int), probe.Audio: new(int), probe.Subtitle: new(int),
	}}
	cmd := &cobra.Command{
		Use:   "encode <path>...",
		Short: "Convert files or directories with the selected preset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncode(cmd, args, &opts)
		},
	}

	f := cmd.Flags()
	config.BindEncodeFlags(f, &a.cfg, &a.neg)
	f.StringVarP(&opts.output, "output", "O", "", "Output file (single input only)")

	f.StringVar(&opts.vcodec, "vcodec", "", "Video codec (overrides the preset; copy remuxes)")
	f.StringVar(&opts.acodec, "acodec", "", "Audio codec")
	f.StringVar(&opts.scodec, "scodec", "", "Subtitle codec")
	f.StringVar(&opts.vbitrate, "vbitrate", "", "Video bitrate, e.g. 2500k")
	f.StringVar(&opts.abitrate, "abitrate", "", "Audio bitrate, e.g. 128k")
	f.StringVar(&opts.format, "format", "", "Output format (mp4, matroska, webm, ...)")
	f.IntVar(&opts.width, "width", 0, "Target width; height follows the source aspect ratio")
	f.IntVar(&opts.crf, "crf", 0, "Constant rate factor (0 uses the bitrate)")
	f.StringArrayVar(&opts.extra, "extra", nil, "Extra ffmpeg output option, repeatable")

	f.IntVar(&opts.video, "video", spec.Unbounded, "Video streams to keep (-1 all, 0 none)")
	f.IntVar(&opts.audio, "audio", spec.Unbounded, "Audio streams to keep (-1 all, 0 none)")
	f.IntVar(&opts.subtitle, "subtitle", spec.Unbounded, "Subtitle streams to keep (-1 all, 0 none)")
	f.StringSliceVar(&opts.langs, "lang", nil, "Keep audio and subtitle streams in these languages")
	f.IntVar(opts.pins[probe.Video], "video-index", -1, "Keep only the video stream with this source index")
	f.IntVar(opts.pins[probe.Audio], "audio-index", -1, "Keep only the audio stream with this source index")
	f.IntVar(opts.pins[probe.Subtitle], "subtitle-index", -1, "Keep only the subtitle stream with this source index")

	f.StringVar(&opts.start, "start", "", "Seek the input to this position (seconds or HH:MM:SS)")
	f.StringVar(&opts.duration, "duration", "", "Limit the output duration")
	f.StringVar(&opts.to, "to", "", "Stop writing at this output position")
	f.StringVar(&opts.outputSeek, "output-seek", "", "Decode and discard up to this position")

	f.StringVar(&opts.watermark.File, "watermark", "", "Overlay this image on the video")
	f.StringVar(&opts.wmAlign, "watermark-align", string(spec.BottomRight), "Watermark corner: top-left, top-right, bottom-left, bottom-right")
	f.IntVar(&opts.watermark.MarginX, "watermark-margin-x", 0, "Horizontal watermark margin in pixels")
	f.IntVar(&opts.watermark.MarginY, "watermark-margin-y", 0, "Vertical watermark margin in pixels")
	f.StringVar(&opts.watermark.Scale, "watermark-scale", "", "Watermark scale arguments, e.g. iw*0.2:-1")
	f.Float64Var(&opts.watermark.Opacity, "watermark-opacity", 0, "Watermark opacity in (0,1]")
	f.Float64Var(&opts.watermark.FadeIn, "watermark-fade-in", 0, "Watermark fade-in seconds")
	f.Float64Var(&opts.watermark.FadeOut, "watermark-fade-out", 0, "Watermark fade-out seconds")
	return cmd
}

func (a *app) runEncode(cmd *cobra.Command, args []string, opts *encodeOptions) error {
	ctx := cmd.Context()

	files, err := pipeline.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errs.Validationf("no media files found in %v", args)
	}
	if err := a.checkOutputDir(args); err != nil {
		return err
	}

	params, err := a.cfg.SpecParams()
	if err != nil {
		return err
	}
	opts.applyParams(cmd, &params)
	if err := params.Validate(); err != nil {
		return err
	}

	if !a.cfg.DryRun {
		if err := check.New(&a.cfg, a.runner).CheckDeps(ctx, params.HWAccel, params.VideoCodec); err != nil {
			return err
		}
	}

	batch := &pipeline.Batch{
		Params:    params,
		Deps:      a.deps(),
		DryRun:    a.cfg.DryRun,
		Output:    opts.output,
		Out:       cmd.OutOrStdout(),
		Configure: func(sp *spec.Spec) error { return opts.configure(cmd, sp) },
	}
	stats, err := batch.Run(ctx, files)
	if err != nil {
		return err
	}
	if !stats.OK() {
		return fmt.Errorf("%d of %d files were not converted", stats.Failed+stats.Skipped, stats.Total)
	}
	return nil
}

// checkOutputDir refuses an output directory inside a directory input, so
// a batch never discovers its own outputs.
func (a *app) checkOutputDir(args []string) error {
	if a.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return errs.Validationf("cannot create output directory %s: %v", a.cfg.OutputDir, err)
	}
	outAbs, err := absPath(a.cfg.OutputDir)
	if err != nil {
		return err
	}
	for _, arg := range args {
		if fi, err := os.Stat(arg); err != nil || !fi.IsDir() {
			continue
		}
		inAbs, err := absPath(arg)
		if err != nil {
			return err
		}
		if err := a.cfg.ValidatePaths(inAbs, outAbs); err != nil {
			return errs.Validationf("%v (input %s)", err, arg)
		}
	}
	return nil
}

// applyParams lays the explicitly set overrides onto the preset.
func (o *encodeOptions) applyParams(cmd *cobra.Command, p *spec.Params) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("vcodec") {
		p.VideoCodec = o.vcodec
	}
	if set("acodec") {
		p.AudioCodec = o.acodec
	}
	if set("scodec") {
		p.SubtitleCodec = o.scodec
	}
	if set("vbitrate") {
		p.VideoBitrate = o.vbitrate
	}
	if set("abitrate") {
		p.AudioBitrate = o.abitrate
	}
	if set("format") {
		p.Format = o.format
	}
	if set("width") {
		p.Width = o.width
	}
	if set("crf") {
		p.CRF = o.crf
	}
	p.Extra = append(p.Extra, o.extra...)
}

// configure applies the per-job settings; it runs before every job because
// each run resets the spec.
func (o *encodeOptions) configure(cmd *cobra.Command, sp *spec.Spec) error {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("video") {
		sp.SetStream(probe.Video, o.video)
	}
	for _, r := range []struct {
		flag  string
		t     probe.StreamType
		count int
	}{
		{"audio", probe.Audio, o.audio},
		{"subtitle", probe.Subtitle, o.subtitle},
	} {
		if set(r.flag) || len(o.langs) > 0 {
			sp.SetStream(r.t, r.count, o.langs...)
		}
	}
	for t, idx := range o.pins {
		if *idx >= 0 {
			sp.PinStream(t, *idx)
		}
	}

	if o.start != "" {
		sp.Start(spec.Timestamp(o.start))
	}
	if o.duration != "" {
		if err := sp.SetDuration(spec.Timestamp(o.duration)); err != nil {
			return err
		}
	}
	if o.to != "" {
		sp.SetTo(spec.Timestamp(o.to))
	}
	if o.outputSeek != "" {
		sp.SetOutputSeek(spec.Timestamp(o.outputSeek))
	}
	if o.watermark.File != "" {
		wm := o.watermark
		wm.Align = spec.Align(o.wmAlign)
		if err := sp.SetWatermark(wm); err != nil {
			return err
		}
	}
	return nil
}

// absPath returns the absolute path with symlinks resolved.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
