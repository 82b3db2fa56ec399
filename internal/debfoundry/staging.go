package debfoundry

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// stagingExcludes are removed from every staged tree before packaging:
// VCS metadata, editor project files, bytecode caches, debug markers and
// repository docs have no place inside a binary package.
var stagingExcludes = []string{
	".svn",
	".cache",
	".project",
	".pydevproject",
	"*.pyc",
	".DEBUG",
	".git",
	"README.md",
}

// StagingArea is the single shared scratch tree a package is built from.
// At most one exists at a time; acquire with prepareStaging, release with
// Teardown on every exit path.
type StagingArea struct {
	Path string
}

// prepareStaging materializes a sanitized copy of srcDir at stagingPath.
// Any leftover staging tree from an interrupted earlier run is clobbered
// first. The copy preserves file attributes (system rsync when available,
// Go fallback otherwise); afterwards the exclusion list is pruned.
func prepareStaging(srcDir, stagingPath string, execCtx *Executor) (*StagingArea, error) {
	// A previous run may have died mid-build; never trust the path to be absent.
	if err := os.RemoveAll(stagingPath); err != nil {
		return nil, fmt.Errorf("failed to clear staging dir %s: %w", stagingPath, err)
	}
	if err := os.MkdirAll(stagingPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", stagingPath, err)
	}

	// --- Try system rsync first ---
	copied := false
	if _, err := exec.LookPath("rsync"); err == nil {
		// Trailing slash on the source so rsync copies contents, not the dir itself.
		src := filepath.Clean(srcDir) + string(os.PathSeparator)
		if _, err := execCtx.Capture("rsync", []string{"-a", src, stagingPath}, RunOpts{}); err != nil {
			return nil, fmt.Errorf("rsync into staging dir failed: %w", err)
		}
		copied = true
	}
	if !copied {
		debugf("rsync not available, using internal Go copy for staging\n")
		if err := copyDir(srcDir, stagingPath); err != nil {
			return nil, fmt.Errorf("failed to copy %s into staging dir: %w", srcDir, err)
		}
	}

	if err := pruneExcluded(stagingPath); err != nil {
		return nil, fmt.Errorf("failed to sanitize staging dir: %w", err)
	}

	return &StagingArea{Path: stagingPath}, nil
}

// pruneExcluded removes every entry in the tree whose base name matches
// one of the exclusion patterns. Entries disappearing mid-scan are
// tolerated: removing a parent takes its children with it.
func pruneExcluded(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if path == root {
			return nil
		}
		for _, pattern := range stagingExcludes {
			matched, _ := filepath.Match(pattern, d.Name())
			if !matched {
				continue
			}
			if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		return nil
	})
}

// Teardown removes the staging tree. Removing an already-absent path is
// not an error, so calling it twice is safe.
func (s *StagingArea) Teardown() error {
	if s == nil {
		return nil
	}
	return os.RemoveAll(s.Path)
}
