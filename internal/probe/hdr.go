package probe

// isHDR reports whether a video stream carries HDR color metadata:
// smpte2084/arib-std-b67 transfer or bt2020 primaries.
func isHDR(s *Stream) bool {
	switch s.ColorTransfer {
	case "smpte2084", "arib-std-b67":
		return true
	}
	return s.ColorPrimaries == "bt2020"
}

// isTenBit reports a 10-bit 4:2:0 pixel format.
func isTenBit(s *Stream) bool {
	return s.PixFmt == "yuv420p10le"
}

// HDRType returns "hdr10" if the primary video stream has HDR color
// metadata, otherwise "sdr".
func (s *Snapshot) HDRType() string {
	if s.Video != nil && s.Video.HDR {
		return "hdr10"
	}
	return "sdr"
}
