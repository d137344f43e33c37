// Package pipeline runs encodes.
//
// A Job takes one input through Input (probe), Output (path resolution),
// Prepare (planning and command synthesis) and Run (ffmpeg, progress
// events, debug log, metrics). Batch drives Jobs sequentially over the
// files Expand and Discover collect, sharing one Spec that every run
// resets, and reports RunStats.
package pipeline
