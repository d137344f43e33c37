package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NonCollidingPath returns path when it is neither on disk nor claimed in
// this run; otherwise the first free "<stem> - dupN<ext>" variant.
func (fs *OSFS) NonCollidingPath(path string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.claimed[path] && !fs.Exists(path) {
		fs.claimed[path] = true
		return path
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := fs.counters[path]
	if counter == 0 {
		counter = 1
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		if !fs.claimed[candidate] && !fs.Exists(candidate) {
			fs.counters[path] = counter + 1
			fs.claimed[candidate] = true
			return candidate
		}
		counter++
	}
}

// Release forgets a claim, e.g. after a failed encode removed its output.
func (fs *OSFS) Release(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.claimed, path)
}
