package probe

import "strings"

// isInterlaced returns true if field_order indicates interlaced content
// (tt, bb, tb, bt).
func isInterlaced(s *Stream) bool {
	switch strings.ToLower(strings.TrimSpace(s.FieldOrder)) {
	case "tt", "bb", "tb", "bt":
		return true
	}
	return false
}

// isVertical reports a stream displayed rotated by a quarter turn.
func isVertical(s *Stream) bool {
	return s.Rotation == 90 || s.Rotation == -90 || s.Rotation == 270 || s.Rotation == -270
}

// IsInterlaced reports whether the primary video stream is interlaced.
func (s *Snapshot) IsInterlaced() bool {
	return s.Video != nil && s.Video.Interlaced
}
