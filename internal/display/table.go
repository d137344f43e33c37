package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/backmassage/vidconv/internal/config"
	"github.com/backmassage/vidconv/internal/planner"
	"github.com/backmassage/vidconv/internal/probe"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws a rounded table. Short rows are padded with blanks.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// ProbeTable renders the container summary followed by one row per stream.
func ProbeTable(snap *probe.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", snap.Path)
	fmt.Fprintf(&b, "format %s, duration %s, size %s, bitrate %s\n",
		snap.Format.FormatName,
		probe.FormatDuration(snap.Duration),
		FormatBytes(snap.Format.Size),
		orDash(FormatBitrate(snap.Format.BitRate)),
	)
	if v := snap.Video; v != nil {
		fmt.Fprintf(&b, "video %s, dar %s, %d fps%s\n", snap.Resolution(), v.DAR, v.FPS, videoFlags(v))
	}

	var rows [][]string
	for _, t := range snap.Groups() {
		for _, st := range snap.Streams[t] {
			rows = append(rows, []string{
				strconv.Itoa(st.Index),
				string(st.Type),
				st.Codec,
				st.Language,
				orDash(FormatBitrate(st.BitRate)),
				streamDetail(st),
				st.Title,
			})
		}
	}
	b.WriteString(renderTable(
		[]string{"#", "Type", "Codec", "Lang", "Bitrate", "Detail", "Title"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	b.WriteString("\n")

	if len(snap.Chapters) > 0 {
		var ch [][]string
		for i, c := range snap.Chapters {
			ch = append(ch, []string{strconv.Itoa(i + 1), probe.FormatDuration(c.Start), probe.FormatDuration(c.End), c.Title})
		}
		b.WriteString(renderTable([]string{"#", "Start", "End", "Title"}, ch, []columnAlignment{alignRight}))
		b.WriteString("\n")
	}
	return b.String()
}

// PlanTable renders every candidate stream with its verdict.
func PlanTable(plan *planner.Plan) string {
	rows := make([][]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		verdict := "skip"
		if e.Mapped {
			verdict = "map"
		}
		rows = append(rows, []string{e.InputLabel, string(e.Type), e.Language, verdict, e.Codec, e.Info})
	}
	return renderTable([]string{"Input", "Type", "Lang", "Verdict", "Codec", "Info"}, rows, nil)
}

// PresetsTable lists presets in the given order.
func PresetsTable(names []string, presets map[string]config.Preset) string {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := presets[name]
		width := "source"
		if p.Width > 0 {
			width = strconv.Itoa(p.Width)
		} else if p.Size != "" {
			width = p.Size
		}
		params := p.Params()
		rows = append(rows, []string{
			name,
			orDash(p.Prefix),
			width,
			params.VideoCodec + " @ " + params.VideoBitrate,
			params.AudioCodec + " @ " + params.AudioBitrate,
			strconv.Itoa(params.Channels),
			orDash(p.Preset),
		})
	}
	return renderTable(
		[]string{"Preset", "Prefix", "Width", "Video", "Audio", "Channels", "Encoder preset"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight},
	)
}

func streamDetail(st probe.Stream) string {
	switch st.Type {
	case probe.Video:
		if st.Width > 0 {
			return fmt.Sprintf("%dx%d %s", st.Width, st.Height, st.PixFmt)
		}
	case probe.Audio:
		if st.SampleRate > 0 {
			return fmt.Sprintf("%d Hz, %d ch", st.SampleRate, st.Channels)
		}
	}
	return ""
}

func videoFlags(v *probe.VideoInfo) string {
	var flags []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{v.HD, "hd"},
		{v.HDR, "hdr"},
		{v.TenBit, "10bit"},
		{v.Interlaced, "interlaced"},
		{v.Vertical, "vertical"},
	} {
		if f.on {
			flags = append(flags, f.name)
		}
	}
	if len(flags) == 0 {
		return ""
	}
	return " (" + strings.Join(flags, ", ") + ")"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
