package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/backmassage/vidconv/internal/errs"
)

// Chunk is one read from the process's status stream, split into lines.
type Chunk struct {
	Lines    []string
	LastLine string
}

// RunOptions controls output handling of a run.
type RunOptions struct {
	// Capture keeps the full status output in Result.Log.
	Capture bool
	// OnChunk is called synchronously for every read, on the goroutine
	// that called Run.
	OnChunk func(Chunk)
	// Tee, when set, also receives the raw status output.
	Tee io.Writer
	// Stdout receives the process's standard output; nil discards it.
	Stdout io.Writer
}

// Result is the outcome of a finished process.
type Result struct {
	ExitCode int
	Log      string
}

// Runner executes an external command. args[0] is the executable.
// A non-zero exit is reported in Result, not as an error; errors are
// reserved for processes that could not be started or were cancelled.
type Runner interface {
	Run(ctx context.Context, args []string, opts RunOptions) (Result, error)
}

// ExecRunner runs commands with os/exec and reads their stderr.
type ExecRunner struct{}

// Run starts args and streams its stderr until exit.
func (ExecRunner) Run(ctx context.Context, args []string, opts RunOptions) (Result, error) {
	if len(args) == 0 {
		return Result{}, errs.Validationf("empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = opts.Stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}
	if err := cmd.Start(); err != nil {
		return Result{}, errs.Runtimef("start %s: %v", args[0], err)
	}

	var (
		log   strings.Builder
		split lineSplitter
		buf   = make([]byte, 4096)
	)
	emit := func(lines []string) {
		if len(lines) > 0 && opts.OnChunk != nil {
			opts.OnChunk(Chunk{Lines: lines, LastLine: lines[len(lines)-1]})
		}
	}
	for {
		n, rerr := stderr.Read(buf)
		if n > 0 {
			data := buf[:n]
			if opts.Capture {
				log.Write(data)
			}
			if opts.Tee != nil {
				_, _ = opts.Tee.Write(data)
			}
			emit(split.feed(data))
		}
		if rerr != nil {
			break
		}
	}
	emit(split.flush())

	res := Result{Log: log.String()}
	err = cmd.Wait()
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, errs.Runtimef("wait %s: %v", args[0], err)
	}
	return res, nil
}

// lineSplitter breaks a byte stream on \r and \n, holding back an
// unterminated tail until more data or flush.
type lineSplitter struct {
	rest string
}

func (s *lineSplitter) feed(data []byte) []string {
	text := s.rest + string(data)
	cut := strings.LastIndexAny(text, "\r\n")
	if cut < 0 {
		s.rest = text
		return nil
	}
	s.rest = text[cut+1:]
	return splitLines(text[:cut])
}

func (s *lineSplitter) flush() []string {
	lines := splitLines(s.rest)
	s.rest = ""
	return lines
}

// splitLines splits on \r and \n and drops blank lines.
func splitLines(text string) []string {
	var out []string
	for _, l := range strings.FieldsFunc(text, func(r rune) bool { return r == '\r' || r == '\n' }) {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
