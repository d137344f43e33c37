package spec

import (
	"fmt"

	"github.com/backmassage/vidconv/internal/errs"
)

// Align places the watermark in a corner of the frame.
type Align string

const (
	TopLeft     Align = "top-left"
	TopRight    Align = "top-right"
	BottomLeft  Align = "bottom-left"
	BottomRight Align = "bottom-right" // Default.
)

// Watermark is an image overlaid on the primary video.
type Watermark struct {
	File    string
	Align   Align
	MarginX int
	MarginY int

	Scale   string  // Optional scale filter arguments, e.g. "iw*0.2:-1".
	Opacity float64 // 0 leaves the image untouched; otherwise (0,1].
	FadeIn  float64 // Seconds; 0 disables.
	FadeOut float64 // Seconds; 0 disables.
}

func (w Watermark) validate() error {
	if w.File == "" {
		return errs.Validationf("watermark file is empty")
	}
	switch w.Align {
	case "", TopLeft, TopRight, BottomLeft, BottomRight:
	default:
		return errs.Validationf("unknown watermark align %q", w.Align)
	}
	if w.Opacity < 0 || w.Opacity > 1 {
		return errs.Validationf("watermark opacity %v out of range", w.Opacity)
	}
	if w.FadeIn < 0 || w.FadeOut < 0 {
		return errs.Validationf("watermark fade must not be negative")
	}
	return nil
}

// Position returns the overlay x:y expression for the configured corner.
func (w Watermark) Position() string {
	mx, my := abs(w.MarginX), abs(w.MarginY)
	switch w.Align {
	case TopLeft:
		return fmt.Sprintf("%d:%d", mx, my)
	case TopRight:
		return fmt.Sprintf("main_w-overlay_w-%d:%d", mx, my)
	case BottomLeft:
		return fmt.Sprintf("%d:main_h-overlay_h-%d", mx, my)
	default:
		return fmt.Sprintf("main_w-overlay_w-%d:main_h-overlay_h-%d", mx, my)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
