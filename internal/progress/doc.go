// Package progress tracks a running ffmpeg process from its status lines.
// A Tracker moves Idle → Running → Finished or Failed and reports Start,
// Progress, Finish, Error and Debug events to a Handler.
package progress
