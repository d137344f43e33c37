// Package display renders human-facing output: the banner, size and
// bitrate labels, tables and the encode progress bar.
package display

import (
	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable IEC size ("1.5 KiB", "700 MiB").
// Negative values are formatted as zero.
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	sign := ""
	if bytes > 0 {
		sign = "+ "
	} else if bytes < 0 {
		sign = "- "
		bytes = -bytes
	}
	return sign + FormatBytes(bytes)
}

// FormatBitrate returns an SI bitrate label with at most one decimal
// ("800 kbps", "5.5 Mbps"), or "" when unknown.
func FormatBitrate(bps int64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.SIWithDigits(float64(bps), 1, "bps")
}
