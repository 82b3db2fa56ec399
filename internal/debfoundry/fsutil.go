package debfoundry

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// copyFile copies a single file from src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	// Copy file mode
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}

// copyDir recursively copies a directory from src to dst, preserving
// file modes and recreating symlinks.
func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// anyFileNewer reports whether any regular file under dir has a
// modification time strictly newer than ref's. Directory mtimes are
// deliberately ignored: the assumed source-sync mechanism only keeps file
// dates stable, directory dates get touched randomly during each sync.
// System find is preferred; a WalkDir fallback applies the same policy.
func anyFileNewer(dir, ref string, execCtx *Executor) (bool, error) {
	if _, err := exec.LookPath("find"); err == nil {
		out, err := execCtx.Capture("find",
			[]string{dir, "-type", "f", "-newer", ref},
			RunOpts{DropEmptyLines: true, DiscardStderr: true})
		if err == nil {
			return out != "", nil
		}
		debugf("find -newer failed for %s, using walk fallback: %v\n", dir, err)
	}

	refInfo, err := os.Stat(ref)
	if err != nil {
		return false, err
	}
	refTime := refInfo.ModTime()

	newer := false
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries may vanish mid-scan; that is not a staleness signal.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.ModTime().After(refTime) {
			newer = true
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return false, walkErr
	}
	return newer, nil
}

// humanReadableSize formats a byte count for display.
func humanReadableSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
