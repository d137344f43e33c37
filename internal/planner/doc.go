// Package planner decides which source streams survive into the output and
// with which codec, and resolves the format-wide video settings once per
// file.
//
//   - Plan, Entry (types.go)
//   - Build: two-phase admission per stream type (planner.go)
//   - ResolveVideoCodec: hardware codec alias table (codec.go)
//   - SizeByDAR, Dimensions (size.go)
//   - stream titles and info text (info.go)
//   - VAAPI upload and HDR color options (filter.go)
package planner
