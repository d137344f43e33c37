package naming

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// FS is the filesystem surface the resolver needs.
type FS interface {
	// NewExtension swaps the extension of path for the one implied by
	// format. An empty format leaves path unchanged.
	NewExtension(path, format string) string
	// AddPrefix inserts prefix between the stem and the extension.
	AddPrefix(path, prefix string) string
	// NonCollidingPath returns path, or the first free " - dupN" variant,
	// and claims it for the rest of the run.
	NonCollidingPath(path string) string
	Exists(path string) bool
	Writable(path string) bool
}

// OSFS is the disk-backed FS. It remembers paths handed out by
// NonCollidingPath so two inputs of one batch never share an output.
// All methods are goroutine-safe.
type OSFS struct {
	mu       sync.Mutex
	claimed  map[string]bool
	counters map[string]int // base path → next dup counter
}

// NewOSFS creates a ready-to-use OSFS.
func NewOSFS() *OSFS {
	return &OSFS{
		claimed:  make(map[string]bool),
		counters: make(map[string]int),
	}
}

// extensions maps output formats to file extensions. Unlisted formats get
// the default container.
var extensions = map[string]string{
	"image2":     "jpg",
	"jpg":        "jpg",
	"jpeg":       "jpg",
	"mjpeg":      "jpg",
	"singlejpeg": "jpg",
	"aac":        "m4a",
	"ac3":        "ac3",
	"eac3":       "ac3",
	"mp3":        "mp3",
	"matroska":   "mkv",
	"mkv":        "mkv",
	"webm":       "webm",
	"mov":        "mov",
}

// DefaultExtension is used for formats missing from the table.
const DefaultExtension = "mp4"

// Extension returns the file extension, without dot, for format.
func Extension(format string) string {
	if ext, ok := extensions[strings.ToLower(format)]; ok {
		return ext
	}
	return DefaultExtension
}

func (*OSFS) NewExtension(path, format string) string {
	if format == "" {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + Extension(format)
}

func (*OSFS) AddPrefix(path, prefix string) string {
	if prefix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + prefix + ext
}

func (*OSFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// Writable reports whether the current user may write to path.
func (*OSFS) Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
