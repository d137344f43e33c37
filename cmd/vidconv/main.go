// Command vidconv converts media files with ffmpeg from presets and
// per-run options, with progress display, dry runs and diagnostics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := a.rootCommand().ExecuteContext(ctx)
	a.finish()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "vidconv: %v\n", err)
		}
		os.Exit(1)
	}
}
