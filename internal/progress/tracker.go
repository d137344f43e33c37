package progress

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// State is the tracker lifecycle.
type State int

const (
	Idle State = iota
	Running
	Finished
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// epsilon floors the expected duration so percent never divides by zero.
const epsilon = 1e-3

// reStatus matches ffmpeg's status line: an optional fps= sample followed
// by time=[-]HH:MM:SS[.frac].
var reStatus = regexp.MustCompile(`(?:fps=\s*(\d+(?:\.\d+)?)\b.*?)?time=\s*(-?)(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// ParseLine extracts the frame rate and elapsed seconds from a status
// line. hasFPS is false when the line carries no fps= field.
func ParseLine(line string) (fps, elapsed float64, hasFPS, ok bool) {
	m := reStatus.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false, false
	}
	if m[1] != "" {
		fps, _ = strconv.ParseFloat(m[1], 64)
		hasFPS = true
	}
	h, _ := strconv.Atoi(m[3])
	mi, _ := strconv.Atoi(m[4])
	s, _ := strconv.ParseFloat(m[5], 64)
	elapsed = float64(h)*3600 + float64(mi)*60 + s
	if m[2] == "-" {
		elapsed = -elapsed
	}
	return fps, elapsed, hasFPS, true
}

// Percent returns floor(elapsed / max(expected, epsilon) * 100). The
// result is not clamped: it can exceed 100 or go negative on ffmpeg's
// transient negative timestamps.
func Percent(elapsed, expected float64) int {
	return int(math.Floor(elapsed / math.Max(expected, epsilon) * 100))
}

// Tracker turns a stream of ffmpeg status lines into events. It is driven
// synchronously by the caller and is not safe for concurrent use.
type Tracker struct {
	state       State
	expected    float64
	fpsSamples  []float64
	lastPercent int
	started     time.Time

	debug  bool
	emit   Handler
	now    func() time.Time
	labels Event
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithHandler sets the event callback.
func WithHandler(h Handler) Option { return func(t *Tracker) { t.emit = h } }

// WithDebug emits a Debug event for every non-status line.
func WithDebug(on bool) Option { return func(t *Tracker) { t.debug = on } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// WithLabels stamps every event with the job id and paths.
func WithLabels(jobID, input, output string) Option {
	return func(t *Tracker) {
		t.labels = Event{JobID: jobID, Input: input, Output: output}
	}
}

// New returns an idle tracker for an output of expected seconds.
func New(expected float64, opts ...Option) *Tracker {
	t := &Tracker{expected: expected, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start moves Idle to Running and emits Start.
func (t *Tracker) Start() {
	if t.state != Idle {
		return
	}
	t.state = Running
	t.started = t.now()
	t.send(Event{Kind: EventStart, Message: "Converting"})
}

// Feed consumes one batch of lines. The last status line of the batch
// sets the percent; it reports whether one was found.
func (t *Tracker) Feed(lines []string) (int, bool) {
	if t.state != Running {
		return t.lastPercent, false
	}

	found := false
	var elapsed float64
	for _, line := range lines {
		fps, el, hasFPS, ok := ParseLine(line)
		if !ok {
			if t.debug {
				t.send(Event{Kind: EventDebug, Message: line})
			}
			continue
		}
		if hasFPS {
			t.fpsSamples = append(t.fpsSamples, fps)
		}
		elapsed, found = el, true
	}
	if !found {
		return t.lastPercent, false
	}

	t.lastPercent = Percent(elapsed, t.expected)
	t.send(Event{Kind: EventProgress, Percent: t.lastPercent})
	return t.lastPercent, true
}

// Finish closes the run. Exit code 0 emits Finish with the stats;
// anything else emits Error carrying the exit code and hint.
func (t *Tracker) Finish(exitCode int, inputDuration float64, hint string) {
	if t.state == Finished || t.state == Failed {
		return
	}
	if t.state == Idle {
		t.started = t.now()
	}
	if exitCode != 0 {
		t.state = Failed
		t.send(Event{Kind: EventError, Message: "Error", ExitCode: exitCode, Hint: hint})
		return
	}
	t.state = Finished
	t.send(Event{
		Kind:           EventFinish,
		Message:        "Finished",
		Percent:        t.lastPercent,
		InputDuration:  inputDuration,
		OutputDuration: t.expected,
		Stats:          t.Stats(),
	})
}

// Stats returns the average frame rate and wall time so far.
func (t *Tracker) Stats() Stats {
	var sum float64
	for _, f := range t.fpsSamples {
		sum += f
	}
	st := Stats{Samples: len(t.fpsSamples)}
	if st.Samples > 0 {
		st.AvgFPS = sum / float64(st.Samples)
	}
	if !t.started.IsZero() {
		st.Wall = t.now().Sub(t.started)
	}
	return st
}

// State returns the lifecycle state.
func (t *Tracker) State() State { return t.state }

// Percent returns the last computed percent.
func (t *Tracker) Percent() int { return t.lastPercent }

// Expected returns the expected output duration in seconds.
func (t *Tracker) Expected() float64 { return t.expected }

func (t *Tracker) send(e Event) {
	if t.emit == nil {
		return
	}
	e.JobID, e.Input, e.Output = t.labels.JobID, t.labels.Input, t.labels.Output
	t.emit(e)
}
