package progress

import "time"

// EventKind names a tracker notification.
type EventKind string

const (
	EventStart    EventKind = "start"
	EventProgress EventKind = "progress"
	EventFinish   EventKind = "finish"
	EventError    EventKind = "error"
	EventDebug    EventKind = "debug"
)

// Stats summarizes a finished run.
type Stats struct {
	AvgFPS  float64
	Samples int
	Wall    time.Duration
}

// Event is delivered to the Handler. Fields beyond the labels are set
// per kind: Percent for progress, durations and Stats for finish,
// ExitCode and Hint for error, Message for debug lines.
type Event struct {
	Kind   EventKind
	JobID  string
	Input  string
	Output string

	Message string
	Percent int

	InputDuration  float64
	OutputDuration float64
	Stats          Stats

	ExitCode int
	Hint     string
}

// Handler receives events synchronously on the tracker's goroutine.
type Handler func(Event)
