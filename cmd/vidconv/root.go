package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/display"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/logging"
	"github.com/backmassage/vidconv/internal/metrics"
	"github.com/backmassage/vidconv/internal/naming"
	"github.com/backmassage/vidconv/internal/pipeline"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/progress"
	"github.com/backmassage/vidconv/internal/term"
)

// app carries the resolved configuration and shared collaborators of one
// invocation.
type app struct {
	cfg        config.Config
	neg        config.Negated
	configPath string
	envFile    string

	log     *logging.Logger
	metrics *metrics.Metrics
	runner  ffmpeg.Runner
	prober  probe.Prober // nil builds an ffprobe prober from cfg.
	stderr  io.Writer
}

func newApp() *app {
	return &app{
		cfg:     config.DefaultConfig(),
		envFile: ".env",
		runner:  ffmpeg.ExecRunner{},
		stderr:  os.Stderr,
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vidconv",
		Short:         "Convert media files with ffmpeg",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			display.PrintBanner(cmd.OutOrStdout())
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	pf.StringVar(&a.envFile, "env-file", a.envFile, "Dotenv file with VIDCONV_* overrides")
	config.BindGlobalFlags(pf, &a.cfg, &a.neg)

	root.AddCommand(a.encodeCommand())
	root.AddCommand(a.screenshotCommand())
	root.AddCommand(a.concatCommand())
	root.AddCommand(a.probeCommand())
	root.AddCommand(a.presetsCommand())
	root.AddCommand(a.checkCommand())
	return root
}

// setup resolves the configuration in precedence order (defaults, config
// file, environment, flags), validates it and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	// Flags were parsed into a.cfg already; remember them so the file and
	// environment can be laid underneath.
	var replay []func() error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			vals := sv.GetSlice()
			replay = append(replay, func() error { return sv.Replace(vals) })
			return
		}
		v := f.Value.String()
		replay = append(replay, func() error { return f.Value.Set(v) })
	})

	cfg := config.DefaultConfig()
	if a.configPath != "" {
		if err := config.LoadFile(a.configPath, &cfg); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(&cfg, a.envFile); err != nil {
		return err
	}
	a.cfg = cfg
	for _, fn := range replay {
		if err := fn(); err != nil {
			return err
		}
	}
	config.ApplyNegated(&a.cfg, &a.neg)

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(&a.cfg)
	if err != nil {
		return err
	}
	a.log = log
	if a.cfg.MetricsTextfile != "" {
		a.metrics = metrics.New()
	}
	return nil
}

// finish flushes metrics and the log after the command returns.
func (a *app) finish() {
	if a.metrics != nil {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil && a.log != nil {
			a.log.Warn("write metrics: %v", err)
		}
	}
	if a.log != nil {
		_ = a.log.Close()
	}
}

// deps wires the pipeline collaborators from the resolved config.
func (a *app) deps() pipeline.Deps {
	prober := a.prober
	if prober == nil {
		prober = probe.NewFFprobe(a.cfg.FFprobe)
	}
	return pipeline.Deps{
		Prober: prober,
		Runner: a.runner,
		Synth: ffmpeg.NewSynthesizer(ffmpeg.Options{
			Binary:      a.cfg.FFmpeg,
			ScaleFlags:  a.cfg.ScaleFlags,
			VAAPIDevice: a.cfg.VAAPIDevice,
		}),
		Resolver: naming.NewResolver(naming.NewOSFS()),
		Log:      a.log,
		Metrics:  a.metrics,
		Handler:  a.progressHandler(),
	}
}

// progressHandler draws a bar per job on a terminal and forwards ffmpeg's
// non-status lines to the debug log. It returns nil when neither applies,
// which makes runs fire-and-wait.
func (a *app) progressHandler() progress.Handler {
	f, ok := a.stderr.(*os.File)
	showBar := a.cfg.Progress && !a.cfg.DryRun && ok && term.IsTerminal(f)
	if !showBar && !a.cfg.Debug {
		return nil
	}
	var bar *display.ProgressBar
	return func(e progress.Event) {
		switch e.Kind {
		case progress.EventStart:
			if showBar {
				bar = display.NewProgressBar(a.stderr, filepath.Base(e.Input))
			}
		case progress.EventDebug:
			a.log.Debug("ffmpeg: %s", e.Message)
		}
		if bar != nil {
			bar.Handle(e)
		}
	}
}
