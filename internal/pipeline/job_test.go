package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/metrics"
	"github.com/backmassage/vidconv/internal/naming"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/progress"
	"github.com/backmassage/vidconv/internal/spec"
)

const statusLine = "frame=  360 fps=24.0 q=28.0 size=    1024kB time=00:00:15.00 bitrate= 559.2kbits/s speed=1.0x"

// fakeProber describes every file as a two-minute movie.
type fakeProber struct{}

func (fakeProber) Probe(_ context.Context, path string) (*probe.Snapshot, error) {
	return &probe.Snapshot{
		Path:     path,
		Duration: 120,
		Streams: map[probe.StreamType][]probe.Stream{
			probe.Video: {{Index: 0, Type: probe.Video, Codec: "h264", Width: 1920, Height: 1080, FPS: 24}},
			probe.Audio: {{Index: 1, Type: probe.Audio, Codec: "aac", Language: "eng"}},
		},
		Video: &probe.VideoInfo{Index: 0, Codec: "h264", Width: 1920, Height: 1080, DARValue: 16.0 / 9, FPS: 24},
	}, nil
}

// fakeRunner replays lines as one chunk and writes the output file on a
// zero exit. failFor makes runs whose argv contains it exit 1.
type fakeRunner struct {
	lines   []string
	stderr  string
	failFor string

	calls    [][]string
	opts     []ffmpeg.RunOptions
	listText string
}

func (f *fakeRunner) Run(_ context.Context, args []string, opts ffmpeg.RunOptions) (ffmpeg.Result, error) {
	f.calls = append(f.calls, args)
	f.opts = append(f.opts, opts)
	for i, a := range args {
		if a == "concat" && i+4 < len(args) {
			b, _ := os.ReadFile(args[i+4])
			f.listText = string(b)
		}
	}

	if opts.OnChunk != nil && len(f.lines) > 0 {
		opts.OnChunk(ffmpeg.Chunk{Lines: f.lines, LastLine: f.lines[len(f.lines)-1]})
	}
	log := strings.Join(f.lines, "\n") + "\n" + f.stderr
	if opts.Tee != nil {
		_, _ = opts.Tee.Write([]byte(log))
	}
	res := ffmpeg.Result{Log: log}
	if f.failFor != "" && strings.Contains(strings.Join(args, " "), f.failFor) {
		res.ExitCode = 1
		return res, nil
	}
	if err := os.WriteFile(args[len(args)-1], []byte("converted"), 0o644); err != nil {
		return res, err
	}
	return res, nil
}

type fixture struct {
	in      string
	outDir  string
	runner  *fakeRunner
	metrics *metrics.Metrics
	events  []progress.Event
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		in:      filepath.Join(dir, "movie.mkv"),
		outDir:  t.TempDir(),
		runner:  &fakeRunner{lines: []string{"Stream mapping:", statusLine}},
		metrics: metrics.New(),
	}
	require.NoError(t, os.WriteFile(f.in, bytes.Repeat([]byte{0}, 2000), 0o644))
	f.deps = Deps{
		Prober:   fakeProber{},
		Runner:   f.runner,
		Synth:    ffmpeg.NewSynthesizer(ffmpeg.Options{}),
		Resolver: naming.NewResolver(naming.NewOSFS()),
		Metrics:  f.metrics,
		Handler:  func(e progress.Event) { f.events = append(f.events, e) },
	}
	return f
}

func (f *fixture) params(mut func(*spec.Params)) spec.Params {
	p := spec.DefaultParams()
	p.OutputDir = f.outDir
	p.Progress = true
	if mut != nil {
		mut(&p)
	}
	return p
}

func (f *fixture) kinds() []progress.EventKind {
	var out []progress.EventKind
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestSpec(t *testing.T, p spec.Params) *spec.Spec {
	t.Helper()
	sp, err := spec.New(p)
	require.NoError(t, err)
	return sp
}

func TestJob_RunStreaming(t *testing.T) {
	f := newFixture(t)
	sp := newTestSpec(t, f.params(nil))
	require.NoError(t, sp.Trim("10", "40"))

	job := NewJob(sp, f.deps)
	require.NoError(t, job.Input(context.Background(), f.in))
	require.NoError(t, job.Output(""))
	cmd, err := job.Prepare()
	require.NoError(t, err)
	assert.Contains(t, cmd.String(), "-ss 10 -i "+f.in)

	ok, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []progress.EventKind{progress.EventStart, progress.EventProgress, progress.EventFinish}, f.kinds())
	assert.Equal(t, 50, f.events[1].Percent, "15s of a 30s trim")
	fin := f.events[2]
	assert.Equal(t, job.ID, fin.JobID)
	assert.Equal(t, filepath.Join(f.outDir, "movie.mkv"), fin.Output)
	assert.InDelta(t, 120, fin.InputDuration, 1e-9)
	assert.InDelta(t, 30, fin.OutputDuration, 1e-9)
	assert.InDelta(t, 24, fin.Stats.AvgFPS, 1e-9)

	assert.True(t, sp.Seek().IsZero(), "spec is reset after the run")
	assert.True(t, sp.Duration().IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EncodesTotal.WithLabelValues(metrics.ResultSuccess)))
}

func TestJob_OutputCutBoundsProgress(t *testing.T) {
	f := newFixture(t)
	sp := newTestSpec(t, f.params(nil))
	sp.Start("10")
	sp.SetTo("40")

	job := NewJob(sp, f.deps)
	require.NoError(t, job.Input(context.Background(), f.in))
	ok, err := job.Run(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, f.events, 3)
	assert.Equal(t, 37, f.events[1].Percent, "15s of a 40s cut")
	assert.InDelta(t, 40, f.events[2].OutputDuration, 1e-9)
}

func TestJob_FireAndWait(t *testing.T) {
	f := newFixture(t)
	f.deps.Handler = nil

	job := NewJob(newTestSpec(t, f.params(nil)), f.deps)
	require.NoError(t, job.Input(context.Background(), f.in))
	ok, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, f.runner.opts, 1)
	assert.Nil(t, f.runner.opts[0].OnChunk)
	assert.True(t, f.runner.opts[0].Capture)
}

func TestJob_RunFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.failFor = "-i"
	f.runner.stderr = "Unknown encoder 'libfoo'"

	sp := newTestSpec(t, f.params(nil))
	job := NewJob(sp, f.deps)
	require.NoError(t, job.Input(context.Background(), f.in))

	ok, err := job.Run(context.Background())
	require.NoError(t, err, "a non-zero exit is not an error")
	assert.False(t, ok)

	last := f.events[len(f.events)-1]
	assert.Equal(t, progress.EventError, last.Kind)
	assert.Equal(t, 1, last.ExitCode)
	assert.Equal(t, ffmpeg.Hint(ffmpeg.ReasonEncoder), last.Hint)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FailuresTotal.WithLabelValues("encoder")))
}

func TestJob_InputValidation(t *testing.T) {
	f := newFixture(t)
	job := NewJob(newTestSpec(t, f.params(nil)), f.deps)

	err := job.Input(context.Background(), filepath.Join(f.outDir, "missing.mkv"))
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = job.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.runner.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.EncodesTotal.WithLabelValues(metrics.ResultInvalid)))
}

func TestJob_EmptyMappingIsValidationError(t *testing.T) {
	f := newFixture(t)
	sp := newTestSpec(t, f.params(nil))
	sp.SetStream(probe.Video, 0)
	sp.SetStream(probe.Audio, 0)

	job := NewJob(sp, f.deps)
	require.NoError(t, job.Input(context.Background(), f.in))
	_, err := job.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, f.runner.calls)
	assert.Nil(t, sp.Streams, "spec is reset on the validation path too")
}

func TestJob_DebugLog(t *testing.T) {
	logDir := t.TempDir()

	run := func(t *testing.T, fail, deleteLog bool) (*fixture, string) {
		f := newFixture(t)
		if fail {
			f.runner.failFor = "-i"
		}
		p := f.params(func(p *spec.Params) {
			p.Debug = true
			p.LogDir = logDir
			p.DeleteLog = deleteLog
		})
		job := NewJob(newTestSpec(t, p), f.deps)
		require.NoError(t, job.Input(context.Background(), f.in))
		_, err := job.Run(context.Background())
		require.NoError(t, err)
		return f, filepath.Join(logDir, "movie.log")
	}

	t.Run("kept on failure", func(t *testing.T) {
		f, path := run(t, true, true)
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(b), "ffmpeg "), "log starts with the command line")
		assert.Contains(t, string(b), statusLine)
		assert.Contains(t, f.kinds(), progress.EventDebug, "non-status lines are debug events")
	})

	t.Run("deleted on success when asked", func(t *testing.T) {
		_, path := run(t, false, true)
		_, err := os.Stat(path)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("kept on success by default", func(t *testing.T) {
		_, path := run(t, false, false)
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestJob_LogDirErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(func(p *spec.Params) {
			p.Debug = true
			p.LogDir = filepath.Join(t.TempDir(), "nope")
		})
		job := NewJob(newTestSpec(t, p), f.deps)
		require.NoError(t, job.Input(context.Background(), f.in))
		_, err := job.Run(context.Background())
		assert.ErrorIs(t, err, errs.ErrResource)
		assert.Empty(t, f.runner.calls)
	})

	t.Run("locked by another run", func(t *testing.T) {
		f := newFixture(t)
		logDir := t.TempDir()
		other := flock.New(filepath.Join(logDir, "movie.log"))
		locked, err := other.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		defer other.Unlock()

		p := f.params(func(p *spec.Params) {
			p.Debug = true
			p.LogDir = logDir
		})
		job := NewJob(newTestSpec(t, p), f.deps)
		require.NoError(t, job.Input(context.Background(), f.in))
		_, err = job.Run(context.Background())
		assert.ErrorIs(t, err, errs.ErrResource)
		assert.Empty(t, f.runner.calls)
	})
}

func TestBatch_DryRun(t *testing.T) {
	f := newFixture(t)
	second := filepath.Join(filepath.Dir(f.in), "second.mkv")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))

	var out bytes.Buffer
	b := &Batch{Params: f.params(nil), Deps: f.deps, DryRun: true, Out: &out}
	stats, err := b.Run(context.Background(), []string{f.in, second})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Encoded)
	assert.Empty(t, f.runner.calls, "dry run never starts ffmpeg")
	assert.Contains(t, out.String(), "ffmpeg -i "+f.in)
	assert.Contains(t, out.String(), filepath.Join(f.outDir, "second.mkv"))
}

func TestBatch_Run(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Dir(f.in)
	bad := filepath.Join(dir, "broken.mkv")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	f.runner.failFor = "broken.mkv"

	var trims int
	b := &Batch{
		Params: f.params(nil),
		Deps:   f.deps,
		Out:    &bytes.Buffer{},
		Configure: func(sp *spec.Spec) error {
			trims++
			assert.True(t, sp.Seek().IsZero(), "each job starts from the baseline")
			return sp.Trim("0", "30")
		},
	}
	stats, err := b.Run(context.Background(), []string{f.in, bad, dir})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Encoded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Skipped, "a directory is not a valid input")
	assert.Equal(t, 3, trims)
	assert.Equal(t, int64(2000), stats.TotalInputBytes)
	assert.Equal(t, int64(len("converted")), stats.TotalOutputBytes)
	assert.False(t, stats.OK())
}

func TestBatch_ResourceErrorStops(t *testing.T) {
	f := newFixture(t)
	p := f.params(func(p *spec.Params) {
		p.Debug = true
		p.LogDir = filepath.Join(t.TempDir(), "missing")
	})
	b := &Batch{Params: p, Deps: f.deps, Out: &bytes.Buffer{}}
	stats, err := b.Run(context.Background(), []string{f.in, f.in})
	assert.ErrorIs(t, err, errs.ErrResource)
	assert.Equal(t, 1, stats.Current)
}

func TestScreenshot(t *testing.T) {
	f := newFixture(t)
	out, err := Screenshot(context.Background(), f.deps, f.params(nil), f.in, "", 0.5, 320)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.outDir, "movie.jpg"), out)
	require.Len(t, f.runner.calls, 1)
	args := strings.Join(f.runner.calls[0], " ")
	assert.Contains(t, args, "-ss 60 -i "+f.in)
	assert.Contains(t, args, "-vframes 1")
	assert.Nil(t, f.runner.opts[0].OnChunk, "screenshots never stream progress")
}

func TestConcat(t *testing.T) {
	f := newFixture(t)
	second := filepath.Join(filepath.Dir(f.in), "it's.mkv")
	require.NoError(t, os.WriteFile(second, []byte("x"), 0o644))
	out := filepath.Join(f.outDir, "joined.mkv")

	require.NoError(t, Concat(context.Background(), f.deps, out, []string{f.in, second}))
	require.Len(t, f.runner.calls, 1)
	args := f.runner.calls[0]
	assert.Equal(t, []string{"-c", "copy", "-y", out}, args[len(args)-4:])
	assert.Equal(t, "file '"+f.in+"'\nfile '"+filepath.Dir(f.in)+`/it'\''s.mkv'`+"\n", f.runner.listText)

	_, err := os.Stat(args[8])
	assert.True(t, errors.Is(err, os.ErrNotExist), "list file is removed")

	assert.ErrorIs(t, Concat(context.Background(), f.deps, out, []string{f.in}), errs.ErrValidation)
}
