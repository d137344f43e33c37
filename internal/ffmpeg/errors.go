package ffmpeg

import "regexp"

// Reason is the classified cause of a failed ffmpeg run. It labels the
// failure metric and the Error event hint.
type Reason string

const (
	ReasonInput      Reason = "input"
	ReasonEncoder    Reason = "encoder"
	ReasonAttachment Reason = "attachment"
	ReasonSubtitle   Reason = "subtitle"
	ReasonMuxQueue   Reason = "mux_queue"
	ReasonTimestamp  Reason = "timestamp"
	ReasonUnknown    Reason = "unknown"
)

// Pre-compiled stderr patterns, checked in the order of classifiers.
var (
	reInputIssue = regexp.MustCompile(
		`No such file or directory|Invalid data found when processing input|` +
			`moov atom not found|End of file`)

	reEncoderIssue = regexp.MustCompile(
		`Unknown encoder|Error while opening encoder|Device creation failed|` +
			`Failed to initialise VAAPI|Cannot load nvcuda|No NVENC capable devices found|` +
			`Error initializing output stream .*:\d+ --`)

	reAttachmentIssue = regexp.MustCompile(
		`Attachment stream \d+ has no (filename|mimetype) tag`)

	reSubtitleIssue = regexp.MustCompile(
		`(?i)Subtitle codec .* is not supported|` +
			`Could not find tag for codec .* in stream .*subtitle|` +
			`Subtitle encoding currently only possible from text to text or bitmap to bitmap`)

	reMuxQueueOverflow = regexp.MustCompile(
		`Too many packets buffered for output stream`)

	reTimestampIssue = regexp.MustCompile(
		`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
			`DTS .*out of order|PTS .*out of order|` +
			`pts has no value|missing PTS|Timestamps are unset`)
)

var classifiers = []struct {
	re     *regexp.Regexp
	reason Reason
	hint   string
}{
	{reInputIssue, ReasonInput, "input is missing or not a media file"},
	{reSubtitleIssue, ReasonSubtitle, "subtitle codec not supported by the container; drop subtitles or pick another scodec"},
	{reEncoderIssue, ReasonEncoder, "encoder unavailable; check the codec name and hardware acceleration"},
	{reAttachmentIssue, ReasonAttachment, "attachment stream lacks filename or mimetype tags"},
	{reMuxQueueOverflow, ReasonMuxQueue, "mux queue overflow; add -max_muxing_queue_size to the extra flags"},
	{reTimestampIssue, ReasonTimestamp, "broken source timestamps; try -fflags +genpts in the extra flags"},
}

// Classify returns the first matching failure reason for stderr, or
// ReasonUnknown.
func Classify(stderr string) Reason {
	for _, c := range classifiers {
		if c.re.MatchString(stderr) {
			return c.reason
		}
	}
	return ReasonUnknown
}

// Hint returns a one-line explanation of r for the user.
func Hint(r Reason) string {
	for _, c := range classifiers {
		if c.reason == r {
			return c.hint
		}
	}
	return ""
}
