package rundir_test

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/pathlength/internal/rundir"
)

var started = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

func TestName(t *testing.T) {
	got := rundir.Name(started.In(time.FixedZone("PST", -8*3600)))
	if got != "length_run_2024_01_02_03_04_05" {
		t.Errorf("Name() = %q", got)
	}
	if !regexp.MustCompile(`^length_run_\d{4}_\d{2}_\d{2}_\d{2}_\d{2}_\d{2}$`).MatchString(rundir.Name(time.Now())) {
		t.Errorf("Name(now) = %q does not match pattern", rundir.Name(time.Now()))
	}
}

func TestResolve(t *testing.T) {
	cwd := filepath.FromSlash("/work")
	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"empty", "", filepath.Join(cwd, "length_run_2024_01_02_03_04_05")},
		{"pwd", "pwd", filepath.Join(cwd, "length_run_2024_01_02_03_04_05")},
		{"relative", "out/run1", filepath.Join(cwd, "out", "run1")},
		{"absolute", filepath.FromSlash("/tmp/run1/"), filepath.FromSlash("/tmp/run1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rundir.Resolve(tt.requested, cwd, started)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.requested, got, tt.want)
			}
		})
	}
}

func TestPrepareCreatesNestedDirectory(t *testing.T) {
	cwd := t.TempDir()
	run, err := rundir.Prepare("a/b/c", cwd, started)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	info, err := os.Stat(run.Dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("run directory not created: %v", err)
	}
	if run.Dir != filepath.Join(cwd, "a", "b", "c") {
		t.Errorf("Dir = %q", run.Dir)
	}
	if run.LogPath != filepath.Join(run.Dir, "length_run_2024_01_02_03_04_05.log") {
		t.Errorf("LogPath = %q", run.LogPath)
	}
	if run.ReportPath != filepath.Join(run.Dir, "final_report_length.csv") {
		t.Errorf("ReportPath = %q", run.ReportPath)
	}
	if run.ID != "length_run_2024_01_02_03_04_05" {
		t.Errorf("ID = %q", run.ID)
	}
	if run.ULID.Time() != uint64(started.UnixMilli()) {
		t.Errorf("ULID time = %d, want %d", run.ULID.Time(), started.UnixMilli())
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run1")
	first, err := rundir.Prepare(dir, "", started)
	if err != nil {
		t.Fatalf("first Prepare() error = %v", err)
	}
	marker := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	second, err := rundir.Prepare(dir, "", started.Add(time.Second))
	if err != nil {
		t.Fatalf("second Prepare() error = %v", err)
	}
	if first.Dir != second.Dir {
		t.Errorf("dirs differ: %q vs %q", first.Dir, second.Dir)
	}
	if first.LogPath == second.LogPath {
		t.Error("log paths of distinct runs should differ")
	}
	if first.ULID == second.ULID {
		t.Error("ULIDs of distinct runs should differ")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("existing contents removed: %v", err)
	}
}

func TestPrepareWithDefaultUsesWorkingDirectory(t *testing.T) {
	cwd := t.TempDir()
	run, err := rundir.Prepare("pwd", cwd, started)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if filepath.Dir(run.Dir) != cwd || filepath.Base(run.Dir) != run.ID {
		t.Errorf("Dir = %q, want %s/%s", run.Dir, cwd, run.ID)
	}
}

func TestPrepareFailsWhenPathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := rundir.Prepare(filepath.Join(file, "sub"), "", started); err == nil {
		t.Fatal("Prepare() under a regular file should fail")
	}
}

func TestLock(t *testing.T) {
	run, err := rundir.Prepare(t.TempDir(), "", started)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if err := run.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := run.Lock(); err != nil {
		t.Errorf("second Lock() on same run error = %v", err)
	}

	other := flock.New(run.Path(rundir.LockName))
	ok, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if ok {
		other.Unlock()
		t.Fatal("lock acquired while run holds it")
	}

	if err := run.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := run.Unlock(); err != nil {
		t.Errorf("second Unlock() error = %v", err)
	}

	ok, err = other.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock() after Unlock = %v, %v", ok, err)
	}
	defer other.Unlock()

	again, _ := rundir.Prepare(run.Dir, "", started)
	if err := again.Lock(); !errors.Is(err, rundir.ErrRunDirLocked) {
		t.Errorf("Lock() while held = %v, want ErrRunDirLocked", err)
	}
}
