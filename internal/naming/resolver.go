package naming

import (
	"path/filepath"

	"github.com/backmassage/vidconv/internal/errs"
)

// Request describes the output wanted for one input.
type Request struct {
	Input     string
	Output    string // Optional explicit output path or file name.
	OutputDir string // Overrides the output's own directory.
	Format    string // Output format; selects the extension.
	Prefix    string // Inserted before the extension, e.g. ".720p".
	Overwrite bool
}

// Resolver computes final output paths.
type Resolver struct {
	fs FS
}

// NewResolver returns a Resolver backed by fs.
func NewResolver(fs FS) *Resolver {
	return &Resolver{fs: fs}
}

// Resolve returns the path an encode should write to.
//
// The directory is the override, else the output's own directory, else
// the input's, and must be writable. The input itself is never chosen as
// the output, even with overwrite on.
func (r *Resolver) Resolve(req Request) (string, error) {
	name := filepath.Base(req.Input)
	dir := filepath.Dir(req.Input)
	if req.Output != "" {
		name = filepath.Base(req.Output)
		dir = filepath.Dir(req.Output)
	}
	if req.OutputDir != "" {
		dir = req.OutputDir
	}

	if !r.fs.Writable(dir) {
		return "", errs.Validationf("output directory %s is not writable", dir)
	}

	path := filepath.Join(dir, name)
	path = r.fs.NewExtension(path, req.Format)
	path = r.fs.AddPrefix(path, req.Prefix)

	if !req.Overwrite || sameFile(path, req.Input) {
		path = r.fs.NonCollidingPath(path)
	}

	if r.fs.Exists(path) && !r.fs.Writable(path) {
		return "", errs.Validationf("output %s exists and is not writable", path)
	}
	return path, nil
}

func sameFile(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

// Release gives up a path returned by Resolve that will not be written,
// when the FS tracks claims.
func (r *Resolver) Release(path string) {
	if rel, ok := r.fs.(interface{ Release(string) }); ok {
		rel.Release(path)
	}
}
