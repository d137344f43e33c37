package planner

import (
	"strings"

	"github.com/backmassage/vidconv/internal/probe"
)

// hwUploadFilters returns the format+hwupload suffix VAAPI encoders need
// on the video chain. Other encoders take system memory frames.
func hwUploadFilters(codec, pixFmt string) []string {
	if !strings.HasSuffix(codec, "_vaapi") {
		return nil
	}
	sw := "nv12"
	if isTenBitFormat(pixFmt) {
		sw = "p010"
	}
	return []string{"format=" + sw, "hwupload"}
}

// colorOpts passes the source color transfer, primaries and space through
// when an HDR source keeps its 10-bit depth. Returns nil otherwise.
func colorOpts(snap *probe.Snapshot, pixFmt string) []string {
	if snap.Video == nil || !snap.Video.HDR || !isTenBitFormat(pixFmt) {
		return nil
	}
	st, ok := snap.Stream(snap.Video.Index)
	if !ok {
		return nil
	}

	var opts []string
	if st.ColorTransfer != "" {
		opts = append(opts, "-color_trc", st.ColorTransfer)
	}
	if st.ColorPrimaries != "" {
		opts = append(opts, "-color_primaries", st.ColorPrimaries)
	}
	if st.ColorSpace != "" {
		opts = append(opts, "-colorspace", st.ColorSpace)
	}
	return opts
}

func isTenBitFormat(pixFmt string) bool {
	return strings.HasPrefix(pixFmt, "p010") || strings.HasSuffix(pixFmt, "10le")
}
