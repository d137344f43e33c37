// Package naming resolves where an encode writes its output: the target
// directory, the extension implied by the output format, the preset
// prefix, and a " - dupN" suffix when the name is already taken on disk or
// claimed earlier in the same run.
package naming
