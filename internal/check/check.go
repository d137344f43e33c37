// Package check provides system diagnostics (the check subcommand) and
// pre-encode dependency validation (CheckDeps) for ffmpeg, ffprobe and the
// hardware encoders the configured vendor needs.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/planner"
	"github.com/backmassage/vidconv/internal/spec"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrEncoderMissing  = errors.New("encoder not available in this ffmpeg build")
	ErrNoVAAPIDevice   = errors.New("VAAPI render device not found")
	ErrVAAPITestFailed = errors.New("VAAPI test encode failed (device exists but the encoder is unusable)")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Checker runs ffmpeg through a Runner so diagnostics can be faked.
type Checker struct {
	FFmpeg      string
	FFprobe     string
	VAAPIDevice string
	Runner      ffmpeg.Runner
	LookPath    func(string) (string, error)
}

// New returns a Checker for the configured binaries.
func New(cfg *config.Config, runner ffmpeg.Runner) *Checker {
	return &Checker{
		FFmpeg:      cfg.FFmpeg,
		FFprobe:     cfg.FFprobe,
		VAAPIDevice: cfg.VAAPIDevice,
		Runner:      runner,
		LookPath:    exec.LookPath,
	}
}

// RunCheck runs the interactive check flow: prints availability of ffmpeg,
// ffprobe, video encoders per family, the VAAPI device and software
// encode tests. This is informational only: it does not stop on failure.
func (c *Checker) RunCheck(ctx context.Context, log Logger) {
	log.Info("=== System Check ===")

	c.checkTools(ctx, log)
	encoders := c.checkEncoders(ctx, log)
	c.checkVAAPI(ctx, log, encoders)
	c.checkSoftware(ctx, log)
}

// checkTools verifies ffmpeg and ffprobe are on PATH and logs the version.
func (c *Checker) checkTools(ctx context.Context, log Logger) {
	if _, err := c.LookPath(c.FFprobe); err != nil {
		log.Error("ffprobe not found (%s)", c.FFprobe)
	} else {
		log.Success("ffprobe: %s", c.FFprobe)
	}
	if _, err := c.LookPath(c.FFmpeg); err != nil {
		log.Error("ffmpeg not found (%s)", c.FFmpeg)
		return
	}
	out, err := c.output(ctx, "-hide_banner", "-version")
	if err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
		return
	}
	firstLine := strings.TrimSpace(out)
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("ffmpeg: %s", firstLine)
}

// checkEncoders lists software and hardware encoders per codec family.
func (c *Checker) checkEncoders(ctx context.Context, log Logger) map[string]bool {
	encoders, err := c.Encoders(ctx)
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return nil
	}
	vendors := []spec.HWVendor{spec.HWNone, spec.HWNVENC, spec.HWQSV, spec.HWVAAPI, spec.HWVideoToolbox, spec.HWAMF}
	for _, family := range []string{"libx264", "libx265", "libsvtav1", "libvpx-vp9"} {
		var have, missing []string
		seen := make(map[string]bool)
		for _, v := range vendors {
			name, _ := planner.ResolveVideoCodec(family, v, "", false, false)
			if seen[name] {
				continue
			}
			seen[name] = true
			if encoders[name] {
				have = append(have, name)
			} else {
				missing = append(missing, name)
			}
		}
		if len(have) > 0 {
			log.Success("%s: %s", planner.CanonicalCodec(family), strings.Join(have, ", "))
		}
		if len(missing) > 0 {
			log.Info("  not built in: %s", strings.Join(missing, ", "))
		}
	}
	return encoders
}

// checkVAAPI finds the render device and runs a minimal upload encode.
func (c *Checker) checkVAAPI(ctx context.Context, log Logger, encoders map[string]bool) {
	if !encoders["h264_vaapi"] {
		return
	}
	dev := c.renderDevice()
	if dev == "" {
		log.Warn("No VAAPI device found")
		return
	}
	log.Info("Testing VAAPI on %s...", dev)
	if c.testVAAPI(ctx, dev) {
		log.Success("VAAPI works")
	} else {
		log.Error("VAAPI test encode failed on %s", dev)
	}
}

// checkSoftware runs minimal libx264 and AAC encodes.
func (c *Checker) checkSoftware(ctx context.Context, log Logger) {
	log.Info("Testing software encoders...")
	if c.runSilent(ctx, testArgs("-c:v", "libx264")...) {
		log.Success("libx264 works")
	} else {
		log.Error("libx264 test encode failed")
	}
	if c.runSilent(ctx,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	) {
		log.Success("AAC encoder works")
	} else {
		log.Error("AAC encoder test failed")
	}
}

// CheckDeps is the pre-encode validation: it verifies that ffmpeg and
// ffprobe are on PATH and, for a hardware vendor, that the encoder the
// planner will pick for videoCodec is built in. VAAPI additionally needs
// a render device that passes a short encode test.
func (c *Checker) CheckDeps(ctx context.Context, vendor spec.HWVendor, videoCodec string) error {
	if _, err := c.LookPath(c.FFmpeg); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := c.LookPath(c.FFprobe); err != nil {
		return ErrFfprobeNotFound
	}
	if vendor == spec.HWNone || vendor == spec.HWAuto || videoCodec == "" || videoCodec == "copy" {
		return nil
	}

	name, _ := planner.ResolveVideoCodec(videoCodec, vendor, "", false, false)
	encoders, err := c.Encoders(ctx)
	if err != nil {
		return err
	}
	if !encoders[name] {
		return fmt.Errorf("%w: %s", ErrEncoderMissing, name)
	}
	if vendor != spec.HWVAAPI {
		return nil
	}
	dev := c.renderDevice()
	if dev == "" {
		return ErrNoVAAPIDevice
	}
	if !c.testVAAPI(ctx, dev) {
		return ErrVAAPITestFailed
	}
	return nil
}

// Encoders returns the encoder names reported by ffmpeg -encoders.
func (c *Checker) Encoders(ctx context.Context) (map[string]bool, error) {
	out, err := c.output(ctx, "-hide_banner", "-encoders")
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return parseEncoders(out), nil
}

// parseEncoders reads the table after the " ------" separator; each row
// is "<flags> <name> <description>".
func parseEncoders(out string) map[string]bool {
	names := make(map[string]bool)
	inTable := false
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if !inTable {
			inTable = strings.HasPrefix(fields[0], "---")
			continue
		}
		if len(fields) >= 2 {
			names[fields[1]] = true
		}
	}
	return names
}

// renderDevice returns the configured device when present, else the first
// /dev/dri/renderD* node, or "".
func (c *Checker) renderDevice() string {
	if c.VAAPIDevice != "" {
		if _, err := os.Stat(c.VAAPIDevice); err == nil {
			return c.VAAPIDevice
		}
	}
	matches, _ := filepath.Glob("/dev/dri/renderD*")
	for _, m := range matches {
		if _, err := os.Stat(m); err == nil {
			return m
		}
	}
	return ""
}

func (c *Checker) testVAAPI(ctx context.Context, device string) bool {
	return c.runSilent(ctx,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-init_hw_device", "vaapi=va:"+device,
		"-filter_hw_device", "va",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-vf", "format=nv12,hwupload",
		"-c:v", "h264_vaapi",
		"-f", "null", "-",
	)
}

// testArgs returns a minimal lavfi encode with the given codec clause.
func testArgs(codec ...string) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
	}
	args = append(args, codec...)
	return append(args, "-f", "null", "-")
}

// output runs ffmpeg and returns its stdout; a non-zero exit is an error.
func (c *Checker) output(ctx context.Context, args ...string) (string, error) {
	var stdout bytes.Buffer
	res, err := c.Runner.Run(ctx, append([]string{c.FFmpeg}, args...), ffmpeg.RunOptions{Stdout: &stdout})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with %d", c.FFmpeg, res.ExitCode)
	}
	return stdout.String(), nil
}

// runSilent runs ffmpeg and returns true if it exits with status 0.
func (c *Checker) runSilent(ctx context.Context, args ...string) bool {
	res, err := c.Runner.Run(ctx, append([]string{c.FFmpeg}, args...), ffmpeg.RunOptions{})
	return err == nil && res.ExitCode == 0
}
