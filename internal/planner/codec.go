package planner

import (
	"regexp"

	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/spec"
)

// vendorCodec is one hardware encoder of a codec family.
type vendorCodec struct {
	encoder string
	tenBit  string // Pixel format for 10-bit output; "" when unsupported.
}

// codecFamily maps every spelling of a codec to its encoders.
type codecFamily struct {
	name     string
	pattern  *regexp.Regexp
	software string
	tenBit   string
	vendors  map[spec.HWVendor]vendorCodec
}

// codecFamilies is the alias table. Patterns are anchored, so at most one
// family matches any name and table order does not matter.
var codecFamilies = []codecFamily{
	{
		name:     "h264",
		pattern:  regexp.MustCompile(`^(h\.?264|avc|x264|libx264|libopenh264|h264_[a-z]+)$`),
		software: "libx264",
		tenBit:   "yuv420p10le",
		vendors: map[spec.HWVendor]vendorCodec{
			spec.HWNVENC:        {encoder: "h264_nvenc"},
			spec.HWQSV:          {encoder: "h264_qsv"},
			spec.HWVAAPI:        {encoder: "h264_vaapi"},
			spec.HWVideoToolbox: {encoder: "h264_videotoolbox"},
			spec.HWAMF:          {encoder: "h264_amf"},
		},
	},
	{
		name:     "hevc",
		pattern:  regexp.MustCompile(`^(hevc|h\.?265|x265|libx265|hevc_[a-z]+)$`),
		software: "libx265",
		tenBit:   "yuv420p10le",
		vendors: map[spec.HWVendor]vendorCodec{
			spec.HWNVENC:        {encoder: "hevc_nvenc", tenBit: "p010le"},
			spec.HWQSV:          {encoder: "hevc_qsv", tenBit: "p010le"},
			spec.HWVAAPI:        {encoder: "hevc_vaapi", tenBit: "p010"},
			spec.HWVideoToolbox: {encoder: "hevc_videotoolbox", tenBit: "p010le"},
			spec.HWAMF:          {encoder: "hevc_amf", tenBit: "p010le"},
		},
	},
	{
		name:     "av1",
		pattern:  regexp.MustCompile(`^(av1|libaom-av1|libsvtav1|svtav1|librav1e|av1_[a-z]+)$`),
		software: "libsvtav1",
		tenBit:   "yuv420p10le",
		vendors: map[spec.HWVendor]vendorCodec{
			spec.HWNVENC: {encoder: "av1_nvenc", tenBit: "p010le"},
			spec.HWQSV:   {encoder: "av1_qsv", tenBit: "p010le"},
			spec.HWVAAPI: {encoder: "av1_vaapi", tenBit: "p010"},
			spec.HWAMF:   {encoder: "av1_amf", tenBit: "p010le"},
		},
	},
	{
		name:     "vp9",
		pattern:  regexp.MustCompile(`^(vp9|libvpx-vp9|vp9_[a-z]+)$`),
		software: "libvpx-vp9",
		tenBit:   "yuv420p10le",
		vendors: map[spec.HWVendor]vendorCodec{
			spec.HWQSV:   {encoder: "vp9_qsv", tenBit: "p010le"},
			spec.HWVAAPI: {encoder: "vp9_vaapi", tenBit: "p010"},
		},
	},
	{
		name:     "mjpeg",
		pattern:  regexp.MustCompile(`^(mjpeg|mjpeg_[a-z]+)$`),
		software: "mjpeg",
		vendors: map[spec.HWVendor]vendorCodec{
			spec.HWQSV:   {encoder: "mjpeg_qsv"},
			spec.HWVAAPI: {encoder: "mjpeg_vaapi"},
		},
	},
}

func lookupFamily(codec string) *codecFamily {
	for i := range codecFamilies {
		if codecFamilies[i].pattern.MatchString(codec) {
			return &codecFamilies[i]
		}
	}
	return nil
}

// CanonicalCodec returns the family name of codec ("h264" for "x264"),
// or "" when it is not in the table.
func CanonicalCodec(codec string) string {
	if f := lookupFamily(codec); f != nil {
		return f.name
	}
	return ""
}

// ResolveVideoCodec picks the video encoder and pixel format in one pass.
// With a hardware vendor that the family supports the vendor encoder wins;
// otherwise the requested name is kept. A 10-bit source with preserve10
// set gets the encoder's 10-bit pixel format when it has one.
func ResolveVideoCodec(requested string, vendor spec.HWVendor, pixFmt string, tenBitSource, preserve10 bool) (codec, pix string) {
	codec, pix = requested, pixFmt
	if requested == "" || requested == "copy" {
		return requested, pixFmt
	}
	fam := lookupFamily(requested)
	if fam == nil {
		return codec, pix
	}

	tenBit := fam.tenBit
	if vc, ok := fam.vendors[vendor]; ok {
		codec = vc.encoder
		tenBit = vc.tenBit
	}
	if tenBitSource && preserve10 && tenBit != "" {
		pix = tenBit
	}
	return codec, pix
}

// resolveVideo fills the plan's format-wide video settings.
func resolveVideo(plan *Plan, snap *probe.Snapshot, sp *spec.Spec) {
	tenBit := snap.Video != nil && snap.Video.TenBit
	plan.VideoCodec, plan.PixFmt = ResolveVideoCodec(sp.CodecFor(probe.Video), sp.HWAccel, sp.PixFmt, tenBit, sp.Preserve10Bit)

	plan.HWFilters = hwUploadFilters(plan.VideoCodec, plan.PixFmt)
	plan.ColorOpts = colorOpts(snap, plan.PixFmt)

	plan.Size = sp.Size
	if sp.Width > 0 {
		plan.Size = SizeByDAR(sp.Width, snap.Video)
	}

	plan.FPS = sp.FPS
	if plan.FPS == 0 && snap.Video != nil {
		plan.FPS = snap.Video.FPS
	}
	if plan.FPS == 0 {
		plan.FPS = 30
	}
}
