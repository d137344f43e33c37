package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/spec"
)

var titleCaser = cases.Title(language.Und)

// HumanBitrate formats bits/sec with SI prefixes: 128000 -> "128 kbps".
func HumanBitrate(bps int64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.SIWithDigits(float64(bps), 0, "bps")
}

// displayBitrate formats a configured bitrate. Plain numbers and k/M
// suffixed values are humanized; anything else is shown as is.
func displayBitrate(v string) string {
	if v == "" {
		return ""
	}
	mult := int64(1)
	num := v
	switch {
	case strings.HasSuffix(v, "k"), strings.HasSuffix(v, "K"):
		mult, num = 1000, v[:len(v)-1]
	case strings.HasSuffix(v, "M"):
		mult, num = 1000000, v[:len(v)-1]
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n <= 0 {
		return v
	}
	return HumanBitrate(n * mult)
}

// normalizeLanguage maps missing and unknown tags to DefaultLanguage.
func normalizeLanguage(lang string) string {
	if lang == "" || lang == probe.UnknownLanguage {
		return DefaultLanguage
	}
	return lang
}

// streamTitle builds the metadata title of an admitted stream. Subtitles
// keep their source title.
func streamTitle(sp *spec.Spec, st probe.Stream, lang, codec, bitrate string) string {
	if st.Type == probe.Subtitle {
		return st.Title
	}
	name := lang
	if n, ok := sp.LanguageNames[lang]; ok && n != "" {
		name = n
	}
	name = titleCaser.String(name)
	if codec == "copy" {
		codec = st.Codec
	}
	if bitrate == "" {
		return fmt.Sprintf("%s [%s]", name, codec)
	}
	return fmt.Sprintf("%s [%s @ %s]", name, codec, bitrate)
}

// streamInfo builds the human summary of one admitted stream.
func streamInfo(st probe.Stream, codec, bitrate, size string) string {
	var b strings.Builder
	if st.Type == probe.Video {
		fmt.Fprintf(&b, "%dx%d ", st.Width, st.Height)
	}
	b.WriteString(st.Codec)
	b.WriteString(" => ")
	if st.Type == probe.Video && codec != "copy" {
		if size == "" {
			size = fmt.Sprintf("%dx%d", st.Width, st.Height)
		}
		b.WriteString(size)
		b.WriteByte(' ')
	}
	b.WriteString(codec)
	if codec != "copy" && bitrate != "" {
		b.WriteString(" @ ")
		b.WriteString(bitrate)
	}
	return b.String()
}
