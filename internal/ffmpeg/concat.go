package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/backmassage/vidconv/internal/errs"
)

// Concat returns the stream-copy concatenation of the files listed in
// list into output.
func (s *Synthesizer) Concat(list, output string) *Command {
	return &Command{
		Binary:    s.opts.Binary,
		Input:     []string{"-loglevel", "quiet", "-f", "concat", "-safe", "0", "-i", list},
		Transcode: []string{"-c", "copy", "-y"},
		Output:    []string{output},
	}
}

// WriteConcatList writes a concat demuxer list, one `file '<path>'` line
// per input. Single quotes inside paths are escaped as '\''.
func WriteConcatList(w io.Writer, paths []string) error {
	if len(paths) == 0 {
		return errs.Validationf("nothing to concatenate")
	}
	bw := bufio.NewWriter(w)
	for _, p := range paths {
		if _, err := fmt.Fprintf(bw, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
