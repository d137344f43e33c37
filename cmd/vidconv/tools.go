package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/vidconv/internal/check"
	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/display"
	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/pipeline"
	"github.com/backmassage/vidconv/internal/planner"
	"github.com/backmassage/vidconv/internal/spec"
)

func (a *app) screenshotCommand() *cobra.Command {
	var (
		output string
		at     float64
		width  int
	)
	cmd := &cobra.Command{
		Use:   "screenshot <file>",
		Short: "Extract one jpeg frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := a.cfg.SpecParams()
			if err != nil {
				return err
			}
			path, err := pipeline.Screenshot(cmd.Context(), a.deps(), params, args[0], output, at, width)
			if err != nil {
				return err
			}
			a.log.Success("Screenshot: %s", path)
			return nil
		},
	}
	config.BindEncodeFlags(cmd.Flags(), &a.cfg, &a.neg)
	cmd.Flags().StringVarP(&output, "output", "O", "", "Output image (default: next to the input)")
	cmd.Flags().Float64Var(&at, "at", 0, "Position in seconds, or a fraction of the duration when between 0 and 1")
	cmd.Flags().IntVar(&width, "width", 0, "Scale to this width (0 keeps the source size)")
	return cmd
}

func (a *app) concatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concat <output> <input> <input>...",
		Short: "Join files with identical streams without re-encoding",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, inputs := args[0], args[1:]
			if _, err := os.Stat(output); err == nil && !a.cfg.Overwrite {
				return errs.Validationf("%s exists (use --force to overwrite)", output)
			}
			if err := pipeline.Concat(cmd.Context(), a.deps(), output, inputs); err != nil {
				return err
			}
			a.log.Success("Joined %d files into %s", len(inputs), output)
			return nil
		},
	}
	config.BindEncodeFlags(cmd.Flags(), &a.cfg, &a.neg)
	return cmd
}

func (a *app) probeCommand() *cobra.Command {
	var showPlan bool
	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show streams, chapters and, with --plan, the stream plan of the preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.deps().Prober.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, display.ProbeTable(snap))
			if !showPlan {
				return nil
			}

			params, err := a.cfg.SpecParams()
			if err != nil {
				return err
			}
			sp, err := spec.New(params)
			if err != nil {
				return err
			}
			plan, err := planner.Build(snap, sp)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPlan (preset %s):\n", a.cfg.Preset)
			fmt.Fprint(out, display.PlanTable(plan))
			return nil
		},
	}
	config.BindEncodeFlags(cmd.Flags(), &a.cfg, &a.neg)
	cmd.Flags().BoolVar(&showPlan, "plan", false, "Also show which streams the preset keeps")
	return cmd
}

func (a *app) presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in and configured presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.cfg.PresetNames()
			if err != nil {
				return err
			}
			presets, err := a.cfg.AllPresets()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), display.PresetsTable(names, presets))
			return nil
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg, ffprobe and encoder availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			display.PrintBanner(cmd.OutOrStdout())
			check.New(&a.cfg, a.runner).RunCheck(cmd.Context(), a.log)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.cfg.FFmpeg, "ffmpeg", a.cfg.FFmpeg, "ffmpeg binary")
	cmd.Flags().StringVar(&a.cfg.FFprobe, "ffprobe", a.cfg.FFprobe, "ffprobe binary")
	cmd.Flags().StringVar(&a.cfg.VAAPIDevice, "vaapi-device", a.cfg.VAAPIDevice, "VAAPI render device")
	return cmd
}
