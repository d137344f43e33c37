// Package probe provides ffprobe-based media inspection and the immutable
// Snapshot consumed by the planner.
//
// A single ffprobe JSON call per file yields:
//   - container duration, size and bitrate
//   - streams grouped by type (video, audio, subtitle, data), in source order
//   - a primary video summary: interlaced, vertical, HD, HDR, 10-bit, DAR, fps
//   - chapters
//
// Missing language tags are recorded as "unk"; mjpeg and attached-picture
// video streams are left out of the video group.
package probe
