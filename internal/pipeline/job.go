package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/logging"
	"github.com/backmassage/vidconv/internal/metrics"
	"github.com/backmassage/vidconv/internal/naming"
	"github.com/backmassage/vidconv/internal/planner"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/progress"
	"github.com/backmassage/vidconv/internal/spec"
)

// Deps are the collaborators a Job runs against. Nil Log and Metrics are
// allowed; Handler may be nil for fire-and-wait runs.
type Deps struct {
	Prober   probe.Prober
	Runner   ffmpeg.Runner
	Synth    *ffmpeg.Synthesizer
	Resolver *naming.Resolver
	Log      *logging.Logger
	Metrics  *metrics.Metrics
	Handler  progress.Handler
}

// Job is one encode: Input, Output, Prepare, Run. The Spec is shared with
// the caller and is reset when Run returns.
type Job struct {
	ID string

	deps Deps
	sp   *spec.Spec
	log  *logging.Logger

	input     string
	inputSize int64
	snap      *probe.Snapshot
	output    string
	plan      *planner.Plan
	cmd       *ffmpeg.Command
	tracker   *progress.Tracker
}

// NewJob returns a job encoding with sp.
func NewJob(sp *spec.Spec, deps Deps) *Job {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	id := uuid.NewString()
	return &Job{
		ID:   id,
		deps: deps,
		sp:   sp,
		log:  deps.Log.With(zap.String("job", id)),
	}
}

// Spec returns the job's encoding spec.
func (j *Job) Spec() *spec.Spec { return j.sp }

// Snapshot returns the probed input, nil before Input.
func (j *Job) Snapshot() *probe.Snapshot { return j.snap }

// Plan returns the stream plan, nil before Prepare.
func (j *Job) Plan() *planner.Plan { return j.plan }

// OutputPath returns the resolved output, "" before Output.
func (j *Job) OutputPath() string { return j.output }

// InputSize returns the input file size in bytes.
func (j *Job) InputSize() int64 { return j.inputSize }

// Input probes path. A missing or unreadable file is a validation error.
func (j *Job) Input(ctx context.Context, path string) error {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return j.invalid(errs.Validationf("input %s does not exist or is not a file", path))
	}
	snap, err := j.deps.Prober.Probe(ctx, path)
	if err != nil {
		return j.invalid(err)
	}
	if len(snap.Groups()) == 0 {
		return j.invalid(errs.Validationf("no streams found in %s", path))
	}
	j.input, j.inputSize, j.snap = path, fi.Size(), snap
	j.log = j.log.With(zap.String("input", path))
	return nil
}

// Output resolves the output path. An empty path derives it from the input
// and the spec's format, prefix and output directory.
func (j *Job) Output(path string) error {
	if j.snap == nil {
		return errs.Validationf("output set before input")
	}
	out, err := j.deps.Resolver.Resolve(naming.Request{
		Input:     j.input,
		Output:    path,
		OutputDir: j.sp.OutputDir,
		Format:    j.sp.Format,
		Prefix:    j.sp.Prefix,
		Overwrite: j.sp.Overwrite,
	})
	if err != nil {
		return j.invalid(err)
	}
	j.output = out
	return nil
}

// Prepare plans the streams and synthesizes the command without running it.
func (j *Job) Prepare() (*ffmpeg.Command, error) {
	if j.snap == nil {
		return nil, j.invalid(errs.Validationf("no input"))
	}
	if j.output == "" {
		if err := j.Output(""); err != nil {
			return nil, err
		}
	}
	plan, err := planner.Build(j.snap, j.sp)
	if err != nil {
		return nil, j.invalid(err)
	}
	cmd, err := j.deps.Synth.Synthesize(j.snap, j.sp, plan, j.input, j.output)
	if err != nil {
		return nil, j.invalid(err)
	}
	j.plan, j.cmd = plan, cmd
	return cmd, nil
}

// Run executes the encode. A non-zero ffmpeg exit is reported as an error
// event and (false, nil); errors are validation and resource failures, or
// a process that could not be started. The spec is reset on every path.
func (j *Job) Run(ctx context.Context) (ok bool, err error) {
	defer j.Reset()
	if j.snap == nil {
		return false, j.invalid(errs.Validationf("no input"))
	}

	lf, err := openRunLog(j.sp, j.input)
	if err != nil {
		j.deps.Metrics.ObserveInvalid()
		return false, err
	}
	defer func() {
		if cerr := lf.close(ok && j.sp.DeleteLog); cerr != nil {
			j.log.Warn("closing debug log: %v", cerr)
		}
	}()

	if j.cmd == nil {
		if _, err := j.Prepare(); err != nil {
			return false, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return false, errs.Validationf("create output directory: %v", err)
	}

	j.tracker = progress.New(j.sp.ExpectedDuration(j.snap.Duration),
		progress.WithHandler(j.deps.Handler),
		progress.WithDebug(j.sp.Debug),
		progress.WithLabels(j.ID, j.input, j.output),
	)

	opts := ffmpeg.RunOptions{Capture: true}
	if lf != nil {
		opts.Tee = lf
		lf.header(j.cmd)
	}
	if j.streaming() {
		opts.OnChunk = func(c ffmpeg.Chunk) { j.tracker.Feed(c.Lines) }
	}

	j.log.Debug("running %s", j.cmd.String())
	j.tracker.Start()
	res, err := j.deps.Runner.Run(ctx, j.cmd.Args(), opts)
	if err != nil {
		j.tracker.Finish(-1, j.snap.Duration, err.Error())
		j.deps.Metrics.ObserveFailure(string(ffmpeg.ReasonUnknown))
		return false, err
	}

	if res.ExitCode != 0 {
		reason := ffmpeg.Classify(res.Log)
		hint := ffmpeg.Hint(reason)
		j.tracker.Finish(res.ExitCode, j.snap.Duration, hint)
		j.deps.Metrics.ObserveFailure(string(reason))
		j.log.Error("ffmpeg exited with %d (%s)", res.ExitCode, reason)
		if hint != "" {
			j.log.Error("  %s", hint)
		}
		logTail(j.log, res.Log)
		return false, nil
	}

	j.tracker.Finish(0, j.snap.Duration, "")
	st := j.tracker.Stats()
	j.deps.Metrics.ObserveSuccess(st.Wall, st.AvgFPS)
	return true, nil
}

// Stats returns the tracker statistics of the last run.
func (j *Job) Stats() progress.Stats {
	if j.tracker == nil {
		return progress.Stats{}
	}
	return j.tracker.Stats()
}

// Reset restores the spec to its baseline and drops the prepared command.
// Input and output stay so the caller can still report on them.
func (j *Job) Reset() {
	j.sp.Reset()
	j.plan, j.cmd = nil, nil
}

// streaming reports whether ffmpeg's status output is fed to the tracker
// chunk by chunk; otherwise the run is fire-and-wait.
func (j *Job) streaming() bool {
	return j.deps.Handler != nil && (j.sp.Progress || j.sp.Debug)
}

func (j *Job) invalid(err error) error {
	j.deps.Metrics.ObserveInvalid()
	return err
}

// logTail logs the last lines of ffmpeg's output.
func logTail(log *logging.Logger, out string) {
	out = strings.TrimSpace(out)
	if out == "" {
		return
	}
	lines := strings.Split(out, "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	log.Error("Last ffmpeg output:")
	for _, l := range lines[start:] {
		log.Error("  %s", strings.TrimRight(l, "\r"))
	}
}
