package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/backmassage/vidconv/internal/errs"
	"github.com/backmassage/vidconv/internal/ffmpeg"
	"github.com/backmassage/vidconv/internal/spec"
)

// runLog is the per-input debug log: <logdir>/<input stem>.log, holding
// the command line and ffmpeg's full status output. It is exclusively
// locked for the duration of the run so two runs on the same input never
// interleave.
type runLog struct {
	path string
	f    *os.File
	lock *flock.Flock
}

// openRunLog returns nil when the spec asks for no debug log.
func openRunLog(sp *spec.Spec, input string) (*runLog, error) {
	if !sp.Debug || sp.LogDir == "" {
		return nil, nil
	}
	fi, err := os.Stat(sp.LogDir)
	if err != nil || !fi.IsDir() {
		return nil, errs.Resourcef("log directory %s does not exist", sp.LogDir)
	}
	if err := unix.Access(sp.LogDir, unix.W_OK); err != nil {
		return nil, errs.Resourcef("log directory %s is not writable", sp.LogDir)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	path := filepath.Join(sp.LogDir, stem+".log")

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errs.Resourcef("lock %s: %v", path, err)
	}
	if !locked {
		return nil, errs.Resourcef("log %s is in use by another run", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, errs.Resourcef("open %s: %v", path, err)
	}
	return &runLog{path: path, f: f, lock: lock}, nil
}

func (l *runLog) Write(p []byte) (int, error) { return l.f.Write(p) }

func (l *runLog) header(cmd *ffmpeg.Command) {
	fmt.Fprintf(l.f, "%s\n\n", cmd.String())
}

// close releases the file and the lock, then removes the log if asked.
// It is a no-op on a nil log.
func (l *runLog) close(remove bool) error {
	if l == nil {
		return nil
	}
	err := l.f.Close()
	err = errors.Join(err, l.lock.Unlock())
	if remove {
		err = errors.Join(err, os.Remove(l.path))
	}
	return err
}
