package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/vidconv/internal/display"
	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/logging"
	"github.com/backmassage/vidconv/internal/spec"
)

// Batch converts a list of files sequentially with one reusable Spec.
type Batch struct {
	Params spec.Params
	Deps   Deps
	DryRun bool

	// Output is an explicit output path, only meaningful for one file.
	Output string

	// Out receives dry-run command lines; nil means os.Stdout.
	Out io.Writer

	// Configure applies per-encode settings (trim, watermark, stream rules)
	// before every job, since each run resets the spec to Params.
	Configure func(*spec.Spec) error
}

// Run is the batch entry point. It processes files in order and returns
// aggregate stats. Only resource errors and cancellation abort the batch;
// per-file failures are counted.
func (b *Batch) Run(ctx context.Context, files []string) (RunStats, error) {
	var stats RunStats
	log := b.Deps.Log
	if log == nil {
		log = logging.Nop()
		b.Deps.Log = log
	}

	if b.Output != "" && len(files) > 1 {
		return stats, errs.Validationf("an explicit output needs exactly one input, got %d", len(files))
	}
	sp, err := spec.New(b.Params)
	if err != nil {
		return stats, err
	}

	stats.Total = len(files)
	b.logBatchHeader(log, &stats)

	start := time.Now()
	for i, path := range files {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted")
			stats.Elapsed = time.Since(start)
			return stats, ctx.Err()
		}

		if err := b.processFile(ctx, log, sp, path, &stats); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
	}
	stats.Elapsed = time.Since(start)

	b.logSummary(log, &stats)
	return stats, nil
}

// processFile handles one input: probe, resolve, plan, run. It returns an
// error only when the batch must stop.
func (b *Batch) processFile(ctx context.Context, log *logging.Logger, sp *spec.Spec, path string, stats *RunStats) error {
	basename := filepath.Base(path)
	log.Info("[%d/%d] %s", stats.Current, stats.Total, basename)
	defer fmt.Fprintln(b.out())

	job := NewJob(sp, b.Deps)
	skip := func(err error) error {
		job.Reset()
		if out := job.OutputPath(); out != "" {
			b.Deps.Resolver.Release(out)
		}
		if errors.Is(err, errs.ErrResource) || ctx.Err() != nil {
			log.Error("%v", err)
			return err
		}
		log.Warn("Skip: %v", err)
		stats.Skipped++
		return nil
	}

	if b.Configure != nil {
		if err := b.Configure(sp); err != nil {
			return skip(err)
		}
	}
	if err := job.Input(ctx, path); err != nil {
		return skip(err)
	}
	if err := job.Output(b.Output); err != nil {
		return skip(err)
	}
	cmd, err := job.Prepare()
	if err != nil {
		return skip(err)
	}

	snap := job.Snapshot()
	if snap.Video != nil {
		log.Info("  Video: %s | %s | %s", snap.Resolution(),
			orUnknown(display.FormatBitrate(snap.VideoBitRate())), orUnknown(snap.Video.Codec))
	}
	for _, e := range job.Plan().Mapped() {
		if e.Info != "" {
			log.Debug("  %s: %s", e.Type, e.Info)
		}
	}
	log.Info("  -> %s", filepath.Base(job.OutputPath()))

	if b.DryRun {
		fmt.Fprintln(b.out(), cmd.String())
		log.Success("[DRY] Would convert")
		job.Reset()
		stats.Encoded++
		return nil
	}

	ok, err := job.Run(ctx)
	if err != nil {
		return skip(err)
	}
	if !ok {
		log.Error("Conversion failed")
		stats.Failed++
		return nil
	}

	inSize := job.InputSize()
	var outSize int64
	if fi, err := os.Stat(job.OutputPath()); err == nil {
		outSize = fi.Size()
	}
	ratio := int64(100)
	if inSize > 0 {
		ratio = outSize * 100 / inSize
	}
	stats.TotalInputBytes += inSize
	stats.TotalOutputBytes += outSize
	stats.Encoded++

	st := job.Stats()
	if st.AvgFPS > 0 {
		log.Success("Converted in %ds at %.1f fps (%d%% of original)", int(st.Wall.Seconds()), st.AvgFPS, ratio)
	} else {
		log.Success("Converted in %ds (%d%% of original)", int(st.Wall.Seconds()), ratio)
	}
	return nil
}

func (b *Batch) out() io.Writer {
	if b.Out == nil {
		return os.Stdout
	}
	return b.Out
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// --- Logging helpers ---

func (b *Batch) logBatchHeader(log *logging.Logger, stats *RunStats) {
	p := b.Params
	log.Info("Found %d files", stats.Total)
	log.Info("Video: %s%s", p.VideoCodec, rateSuffix(p.VideoBitrate, p.CRF))
	log.Info("Audio: %s%s", p.AudioCodec, rateSuffix(p.AudioBitrate, 0))
	if p.Width > 0 {
		log.Info("Width: %d (height from source aspect ratio)", p.Width)
	} else if p.Size != "" {
		log.Info("Size: %s", p.Size)
	}
	if p.Format != "" {
		log.Info("Container: %s", strings.ToUpper(p.Format))
	}
	if p.HWAccel != spec.HWNone {
		log.Info("Hardware: %s", p.HWAccel)
	}
	if len(p.Passthrough) > 0 {
		log.Info("Passthrough: %s", strings.Join(p.Passthrough, ", "))
	}
	if p.Deinterlace {
		log.Info("Deinterlace: yadif on interlaced sources")
	}
	if p.OutputDir != "" {
		log.Info("Output dir: %s", p.OutputDir)
	}
	if b.DryRun {
		log.Info("Dry run: commands are printed, nothing is converted")
	}
	fmt.Fprintln(b.out())
}

func rateSuffix(bitrate string, crf int) string {
	switch {
	case crf > 0:
		return fmt.Sprintf(" (crf %d)", crf)
	case bitrate != "":
		return " @ " + bitrate
	}
	return ""
}

func (b *Batch) logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d converted, %d skipped, %d failed", stats.Encoded, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Total files processed: %d", stats.Current)
	log.Info("  Elapsed: %s", stats.Elapsed.Round(time.Second))

	if b.DryRun {
		log.Info("  Total space saved: n/a (dry run)")
		return
	}

	saved := stats.SpaceSaved()
	if saved >= 0 {
		log.Success("  Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		log.Warn("  Total space saved: %s (overall output is larger)",
			display.FormatBytesWithSign(saved))
	}
}
