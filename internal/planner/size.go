package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/vidconv/internal/probe"
)

// namedSizes are the ffmpeg size abbreviations the planner produces or
// accepts, resolved to pixels for the scale filter.
var namedSizes = map[string][2]int{
	"hd480":   {852, 480},
	"hd720":   {1280, 720},
	"hd1080":  {1920, 1080},
	"vga":     {640, 480},
	"ntsc":    {720, 480},
	"pal":     {720, 576},
	"uhd2160": {3840, 2160},
}

// SizeByDAR derives the output size for a target width from the source
// display aspect ratio. Widths 1280 and 1920 map to hd720/hd1080 when the
// source is at least that wide; otherwise the width is capped at the
// source width and the height rounded up to an even number.
func SizeByDAR(width int, v *probe.VideoInfo) string {
	if v == nil || width <= 0 {
		return ""
	}
	switch {
	case width == 1280 && v.Width >= width:
		return "hd720"
	case width == 1920 && v.Width >= width:
		return "hd1080"
	}

	dar := v.DARValue
	if dar == 0 && v.Height > 0 {
		dar = float64(v.Width) / float64(v.Height)
	}
	if dar == 0 {
		return ""
	}
	if v.Width > 0 && v.Width < width {
		width = v.Width
	}
	height := int(float64(width) / dar)
	if height%2 != 0 {
		height++
	}
	return fmt.Sprintf("%dx%d", width, height)
}

// Dimensions resolves "WxH" or a named size to pixels.
func Dimensions(size string) (w, h int, ok bool) {
	if d, found := namedSizes[size]; found {
		return d[0], d[1], true
	}
	ws, hs, found := strings.Cut(size, "x")
	if !found {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
