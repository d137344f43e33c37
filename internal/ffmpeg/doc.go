// Package ffmpeg turns a stream plan into an ffmpeg command and runs it.
//
//   - Synthesizer: five clause groups (input, map, filter, transcode,
//     output), transcode clauses de-duplicated, screenshot mode (synthesizer.go)
//   - Command: raw argv and a shell-safe rendering (command.go)
//   - Runner, ExecRunner: process execution with \r/\n chunking (runner.go)
//   - Classify: stderr failure reasons and hints (errors.go)
//   - Concat, WriteConcatList: stream-copy concatenation (concat.go)
package ffmpeg
