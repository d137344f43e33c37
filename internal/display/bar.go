package display

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/backmassage/vidconv/internal/progress"
)

// ProgressBar draws tracker events as a 0-100 bar.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// NewProgressBar returns a bar writing to w, labelled with description.
func NewProgressBar(w io.Writer, description string) *ProgressBar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Handle is a progress.Handler. The tracker's percent is not clamped, so
// the bar clamps it to its own range.
func (p *ProgressBar) Handle(e progress.Event) {
	switch e.Kind {
	case progress.EventProgress:
		_ = p.bar.Set(min(max(e.Percent, 0), 100))
	case progress.EventFinish:
		_ = p.bar.Set(100)
		_ = p.bar.Finish()
	case progress.EventError:
		_ = p.bar.Exit()
	}
}

// Percent reports the bar position.
func (p *ProgressBar) Percent() int {
	return int(p.bar.State().CurrentNum)
}
