package planner

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/probe"
	"github.com/backmassage/vidconv/internal/spec"
)

// Build decides which source streams survive into the output and with
// which codec. This is the central decision pass the pipeline runs once
// per file.
//
// Flow:
//  1. Resolve the video encoder, pixel format, size and frame rate
//  2. Screenshot or implicit (-map 0) plans short-circuit
//  3. Record excluded types (count 0)
//  4. Per type in canonical order: admit by pin and language, then emit
func Build(snap *probe.Snapshot, sp *spec.Spec) (*Plan, error) {
	if len(snap.Groups()) == 0 {
		return nil, errs.Validationf("streams not found in %s", snap.Path)
	}

	plan := &Plan{}

	// --- 1. Format-wide video settings ---
	resolveVideo(plan, snap, sp)

	// --- 2. Special modes ---
	if sp.ScreenshotRequest() != nil {
		return screenshotPlan(plan, snap)
	}
	if sp.Streams == nil {
		implicitPlan(plan, snap, sp)
		return plan, nil
	}

	// --- 3. Exclusions ---
	for _, t := range probe.StreamOrder {
		if r, ok := sp.Streams[t]; ok && r.Excluded() {
			plan.Excluded = append(plan.Excluded, t)
		}
	}

	// --- 4. Admission ---
	for _, t := range snap.Groups() {
		rule, ok := sp.Streams[t]
		if !ok || rule.Excluded() {
			continue
		}
		planType(plan, snap, sp, t, rule)
	}

	if len(plan.Mapped()) == 0 {
		return nil, errs.Validationf("no streams to transcode in %s", snap.Path)
	}
	return plan, nil
}

// planType walks the streams of one type in source order.
func planType(plan *Plan, snap *probe.Snapshot, sp *spec.Spec, t probe.StreamType, rule spec.MappingRule) {
	mapped := 0
	for _, st := range snap.Streams[t] {
		if rule.Full(mapped) {
			return
		}
		if rule.Pinned(st.Index) {
			continue
		}

		lang := normalizeLanguage(st.Language)
		entry := Entry{
			Type:        t,
			SourceIndex: st.Index,
			InputLabel:  "0:" + strconv.Itoa(st.Index),
			Language:    lang,
		}
		if !rule.Admits(lang) {
			plan.Entries = append(plan.Entries, entry)
			continue
		}

		admit(plan, sp, st, &entry, mapped)
		plan.Entries = append(plan.Entries, entry)
		mapped++
	}
}

// admit fills the codec, titles and clauses of an admitted stream and
// flips the type's active flag.
func admit(plan *Plan, sp *spec.Spec, st probe.Stream, e *Entry, ordinal int) {
	t := st.Type
	codec := sp.CodecFor(t)
	if t == probe.Video {
		codec = plan.VideoCodec
	}
	if slices.Contains(sp.Passthrough, st.Codec) {
		codec = "copy"
	}

	var bitrate string
	switch {
	case codec == "copy":
		bitrate = HumanBitrate(st.BitRate)
	case t == probe.Video && sp.CRF > 0:
		bitrate = fmt.Sprintf("crf %d", sp.CRF)
	default:
		bitrate = displayBitrate(sp.BitrateFor(t))
	}

	e.Mapped = true
	e.Ordinal = ordinal
	e.Codec = codec
	e.Bitrate = bitrate
	e.Title = streamTitle(sp, st, e.Language, codec, bitrate)
	e.Info = streamInfo(st, codec, bitrate, plan.Size)

	sel := fmt.Sprintf("%s:%d", t.Specifier(), ordinal)
	e.Clauses = append(e.Clauses, []string{"-c:" + sel, codec})
	if sp.Metadata {
		if e.Title != "" {
			e.Clauses = append(e.Clauses, []string{"-metadata:s:" + sel, "title=" + e.Title})
		}
		e.Clauses = append(e.Clauses, []string{"-metadata:s:" + sel, "language=" + e.Language})
	}

	if codec != "copy" {
		switch t {
		case probe.Video:
			plan.VideoCodecActive = true
		case probe.Audio:
			plan.AudioCodecActive = true
		}
	}
}

// implicitPlan maps everything with -map 0 and one codec clause per type.
func implicitPlan(plan *Plan, snap *probe.Snapshot, sp *spec.Spec) {
	plan.Implicit = true
	vc, ac, sc := plan.VideoCodec, sp.CodecFor(probe.Audio), sp.CodecFor(probe.Subtitle)
	plan.ImplicitCodecs = []string{"-c:v", vc, "-c:a", ac, "-c:s", sc}
	plan.VideoCodecActive = vc != "copy"
	plan.AudioCodecActive = ac != "copy"

	for _, t := range []probe.StreamType{probe.Video, probe.Audio, probe.Subtitle} {
		st := snap.First(t)
		if st == nil {
			continue
		}
		codec := sp.CodecFor(t)
		if t == probe.Video {
			codec = vc
		}
		bitrate := displayBitrate(sp.BitrateFor(t))
		if codec == "copy" {
			bitrate = HumanBitrate(st.BitRate)
		}
		plan.Entries = append(plan.Entries, Entry{
			Type:        t,
			SourceIndex: st.Index,
			InputLabel:  "0:" + strconv.Itoa(st.Index),
			Language:    normalizeLanguage(st.Language),
			Mapped:      true,
			Codec:       codec,
			Bitrate:     bitrate,
			Info:        streamInfo(*st, codec, bitrate, plan.Size),
		})
	}
}

// screenshotPlan maps only the primary video stream, with no codec clause.
func screenshotPlan(plan *Plan, snap *probe.Snapshot) (*Plan, error) {
	if snap.Video == nil {
		return nil, errs.Validationf("no video stream for screenshot in %s", snap.Path)
	}
	plan.Screenshot = true
	plan.Entries = []Entry{{
		Type:        probe.Video,
		SourceIndex: snap.Video.Index,
		InputLabel:  "0:" + strconv.Itoa(snap.Video.Index),
		Language:    DefaultLanguage,
		Mapped:      true,
	}}
	return plan, nil
}
