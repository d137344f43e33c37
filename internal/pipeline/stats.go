package pipeline

import "time"

// RunStats tracks aggregate counters and byte totals across a batch run.
// Skipped counts inputs rejected before ffmpeg started; Failed counts
// ffmpeg runs that exited non-zero.
type RunStats struct {
	Total            int
	Current          int
	Encoded          int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64
	Elapsed          time.Duration
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}

// OK reports whether every input of the batch was converted.
func (s *RunStats) OK() bool {
	return s.Failed == 0 && s.Skipped == 0
}
