// Package rundir resolves and creates the directory a measurement run writes
// its log file and reports into.
package rundir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
)

const (
	// Prefix starts every run ID.
	Prefix = "length_run_"
	// TimestampLayout formats the UTC start time inside a run ID.
	TimestampLayout = "2006_01_02_15_04_05"
	// ReportName is the CSV report written into the run directory.
	ReportName = "final_report_length.csv"
	// LockName is the advisory lock file held while a run writes.
	LockName = ".pathlength.lock"
	// Current is the --run-dir value that selects the working directory.
	Current = "pwd"
)

// ErrRunDirLocked is returned when another process is writing the directory.
var ErrRunDirLocked = errors.New("run directory is locked by another run")

// Run is the immutable context of one invocation.
type Run struct {
	// ID is Prefix plus the UTC start time, e.g. length_run_2024_01_02_03_04_05.
	ID string
	// ULID sorts runs that share a second.
	ULID    ulid.ULID
	Dir     string
	LogPath string
	// ReportPath is Dir/ReportName.
	ReportPath string
	Started    time.Time

	lock *flock.Flock
}

// Name returns the run ID for a start time.
func Name(t time.Time) string {
	return Prefix + t.UTC().Format(TimestampLayout)
}

// Resolve returns the absolute run directory. An empty or "pwd" request
// selects cwd/<run ID>; anything else is made absolute against cwd.
func Resolve(requested, cwd string, started time.Time) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == Current {
		return filepath.Join(cwd, Name(started)), nil
	}
	if filepath.IsAbs(requested) {
		return filepath.Clean(requested), nil
	}
	if cwd == "" {
		abs, err := filepath.Abs(requested)
		if err != nil {
			return "", fmt.Errorf("resolve run directory: %w", err)
		}
		return abs, nil
	}
	return filepath.Join(cwd, requested), nil
}

// Prepare resolves the run directory, creates it with any missing parents and
// returns the run context. Existing directories are reused.
func Prepare(requested, cwd string, started time.Time) (*Run, error) {
	dir, err := Resolve(requested, cwd, started)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	id := Name(started)
	run := &Run{
		ID:         id,
		ULID:       ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()),
		Dir:        dir,
		LogPath:    filepath.Join(dir, id+".log"),
		ReportPath: filepath.Join(dir, ReportName),
		Started:    started.UTC(),
	}
	return run, nil
}

// Path joins name onto the run directory.
func (r *Run) Path(name string) string {
	return filepath.Join(r.Dir, name)
}

// Lock takes the directory's advisory lock without blocking. It fails with
// ErrRunDirLocked when another process holds it.
func (r *Run) Lock() error {
	if r.lock != nil {
		return nil
	}
	lock := flock.New(r.Path(LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock run directory: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunDirLocked, r.Dir)
	}
	r.lock = lock
	return nil
}

// Unlock releases the advisory lock. The lock file is left in place.
func (r *Run) Unlock() error {
	if r.lock == nil {
		return nil
	}
	err := r.lock.Unlock()
	r.lock = nil
	return err
}
