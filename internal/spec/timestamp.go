package spec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/backmassage/vidconv/internal/errs"
)

// Timestamp is a time value handed to ffmpeg: plain seconds ("90",
// "12.5") or a clock string ("01:30", "1:02:03.5"). The zero value means
// unset.
type Timestamp string

var (
	reSeconds = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	reClock   = regexp.MustCompile(`^(?:(?:\d+:)?\d{1,2}:)?\d{1,2}(?:\.\d+)?$`)
)

// Seconds formats f as a Timestamp with no trailing zeros.
func Seconds(f float64) Timestamp {
	return Timestamp(strconv.FormatFloat(f, 'f', -1, 64))
}

// IsZero reports an unset timestamp.
func (t Timestamp) IsZero() bool { return t == "" }

// Validate accepts numeric seconds or [[H:]M:]S.
func (t Timestamp) Validate() error {
	s := string(t)
	if reSeconds.MatchString(s) || reClock.MatchString(s) {
		return nil
	}
	return errs.Validationf("wrong time value %q", s)
}

// Seconds converts t to seconds.
func (t Timestamp) Seconds() (float64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var total float64
	for _, part := range strings.Split(string(t), ":") {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, errs.Validationf("wrong time value %q", string(t))
		}
		total = total*60 + f
	}
	return total, nil
}

// secondsOrZero is Seconds with unset and malformed values read as 0.
func (t Timestamp) secondsOrZero() float64 {
	if t.IsZero() {
		return 0
	}
	sec, err := t.Seconds()
	if err != nil {
		return 0
	}
	return sec
}
