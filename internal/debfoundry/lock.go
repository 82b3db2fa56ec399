package debfoundry

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// acquireRunLock takes an exclusive flock on the output directory's lock
// file so two passes cannot interleave on the shared staging path and
// index. Non-blocking: a held lock aborts immediately.
func acquireRunLock(outputDir string) (release func(), err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(outputDir, LockFileRelative)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another build pass holds %s: %w", lockPath, err)
	}
	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
