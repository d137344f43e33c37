package pipeline

import (
	"context"
	"os"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/spec"
)

// Screenshot extracts one jpeg frame of input at at (seconds, or a fraction
// of the duration when in (0,1)), scaled to width when width > 0. An empty
// output is derived from the input. It returns the written path.
func Screenshot(ctx context.Context, deps Deps, p spec.Params, input, output string, at float64, width int) (string, error) {
	sp, err := spec.New(p)
	if err != nil {
		return "", err
	}
	sp.Screenshot(at, width)

	job := NewJob(sp, deps)
	if err := job.Input(ctx, input); err != nil {
		return "", err
	}
	if err := job.Output(output); err != nil {
		return "", err
	}
	ok, err := job.Run(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errs.Runtimef("screenshot of %s failed", input)
	}
	return job.OutputPath(), nil
}

// Concat joins inputs into output with the concat demuxer, copying streams.
// The list file is written to a temporary file removed afterwards.
func Concat(ctx context.Context, deps Deps, output string, inputs []string) error {
	if len(inputs) < 2 {
		return errs.Validationf("concat needs at least two inputs")
	}
	for _, in := range inputs {
		if fi, err := os.Stat(in); err != nil || fi.IsDir() {
			return errs.Validationf("input %s does not exist or is not a file", in)
		}
	}

	list, err := os.CreateTemp("", "vidconv-concat-*.txt")
	if err != nil {
		return errs.Resourcef("create concat list: %v", err)
	}
	defer os.Remove(list.Name())

	if err := ffmpeg.WriteConcatList(list, inputs); err != nil {
		list.Close()
		return err
	}
	if err := list.Close(); err != nil {
		return errs.Resourcef("write concat list: %v", err)
	}

	cmd := deps.Synth.Concat(list.Name(), output)
	if deps.Log != nil {
		deps.Log.Debug("running %s", cmd.String())
	}
	res, err := deps.Runner.Run(ctx, cmd.Args(), ffmpeg.RunOptions{Capture: true})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		reason := ffmpeg.Classify(res.Log)
		deps.Metrics.ObserveFailure(string(reason))
		return errs.Runtimef("concat exited with %d (%s)", res.ExitCode, reason)
	}
	return nil
}
