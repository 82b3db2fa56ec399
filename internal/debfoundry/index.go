package debfoundry

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/klauspost/pgzip"
)

// RepositoryIndexer regenerates the apt package index for the output
// directory. There is no incremental path: every refresh rescans all
// artifacts and rewrites Packages plus Packages.gz wholesale.
type RepositoryIndexer struct {
	st       *Settings
	out      *Output
	exec     *Executor
	scanTool string
}

func NewRepositoryIndexer(st *Settings, out *Output, execCtx *Executor) *RepositoryIndexer {
	return &RepositoryIndexer{st: st, out: out, exec: execCtx, scanTool: "dpkg-scanpackages"}
}

// Refresh scans the output directory and rewrites the index files. The
// scan output is captured verbatim: stanza separation in Packages is
// blank-line structured, so newline normalization is disabled for this
// one capture.
func (r *RepositoryIndexer) Refresh() error {
	r.out.Put("rebuilding APT repository metadata")

	packageInfo, err := r.scanPackages()
	if err != nil {
		return err
	}

	packagesFile := r.st.packagesFilePath()
	if err := os.WriteFile(packagesFile, []byte(packageInfo), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", packagesFile, err)
	}

	return compressIndex(packagesFile)
}

// scanPackages prefers the system scanner and falls back to the built-in
// .deb reader when it is not installed.
func (r *RepositoryIndexer) scanPackages() (string, error) {
	if _, err := exec.LookPath(r.scanTool); err == nil {
		// stderr is noise here (dpkg-scanpackages logs a summary there).
		out, err := r.exec.Capture(r.scanTool,
			[]string{"./", "/dev/null"},
			RunOpts{Dir: r.st.OutputDir, DiscardStderr: true, RawOutput: true})
		if err != nil {
			return "", fmt.Errorf("index scan failed: %w", err)
		}
		return out, nil
	}
	debugf("dpkg-scanpackages not available, using internal scanner\n")
	return scanDebArchives(r.st.OutputDir)
}

// compressIndex writes {packagesFile}.gz at the highest compression
// level, truncating any prior compressed form. The uncompressed file is
// kept: apt repositories conventionally serve both.
func compressIndex(packagesFile string) error {
	in, err := os.Open(packagesFile)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(packagesFile+".gz", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	gz, err := pgzip.NewWriterLevel(out, pgzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return fmt.Errorf("failed to compress %s: %w", packagesFile, err)
	}
	return gz.Close()
}
