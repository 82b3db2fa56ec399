package debfoundry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *Settings {
	t.Helper()
	st := &Settings{
		SourceDir: filepath.Join(t.TempDir(), "src"),
		OutputDir: filepath.Join(t.TempDir(), "out"),
	}
	st.StagingDir = filepath.Join(st.OutputDir, StagingDirRelative)
	require.NoError(t, os.MkdirAll(st.SourceDir, 0o755))
	require.NoError(t, os.MkdirAll(st.OutputDir, 0o755))
	return st
}

func testOutput() *Output {
	return &Output{w: io.Discard}
}

func testOracle(t *testing.T, st *Settings) *StalenessOracle {
	t.Helper()
	return NewStalenessOracle(st, testOutput(), NewExecutor(context.Background()))
}

// writePackage lays down a minimal package source tree.
func writePackage(t *testing.T, st *Settings, pkg, version string) {
	t.Helper()
	dir := st.packageSourceDir(pkg)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "DEBIAN"), 0o755))
	control := "Package: " + pkg + "\nVersion: " + version + "\nArchitecture: all\n"
	require.NoError(t, os.WriteFile(st.controlFilePath(pkg), []byte(control), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payload.txt"), []byte("data\n"), 0o644))
}

// touch sets both timestamps of path to ts.
func touch(t *testing.T, path string, ts time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, ts, ts))
}

// touchTree applies touch to every file and directory under root.
func touchTree(t *testing.T, root string, ts time.Time) {
	t.Helper()
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		return os.Chtimes(path, ts, ts)
	}))
}

func TestIsStaleMissingArtifact(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")

	stale, err := testOracle(t, st).IsStale("widget")
	require.NoError(t, err)
	assert.True(t, stale, "a package with no prior artifact is always a build candidate")
}

func TestIsStaleArtifactCurrent(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")
	require.NoError(t, os.WriteFile(st.artifactPath("widget"), []byte("deb"), 0o644))

	base := time.Now().Add(-1 * time.Hour)
	touchTree(t, st.packageSourceDir("widget"), base)
	touch(t, st.artifactPath("widget"), base.Add(10*time.Minute))

	stale, err := testOracle(t, st).IsStale("widget")
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestIsStaleSingleNewerFileFlips(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")
	require.NoError(t, os.WriteFile(st.artifactPath("widget"), []byte("deb"), 0o644))

	base := time.Now().Add(-1 * time.Hour)
	touchTree(t, st.packageSourceDir("widget"), base)
	touch(t, st.artifactPath("widget"), base.Add(10*time.Minute))

	touch(t, filepath.Join(st.packageSourceDir("widget"), "payload.txt"), base.Add(20*time.Minute))

	stale, err := testOracle(t, st).IsStale("widget")
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsStaleIgnoresDirectoryTimestamps(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")
	require.NoError(t, os.WriteFile(st.artifactPath("widget"), []byte("deb"), 0o644))

	base := time.Now().Add(-1 * time.Hour)
	touchTree(t, st.packageSourceDir("widget"), base)
	touch(t, st.artifactPath("widget"), base.Add(10*time.Minute))

	// Only the directory gets a newer timestamp; the sync tool does this
	// randomly, so it must not trigger a rebuild.
	touch(t, filepath.Join(st.packageSourceDir("widget"), "DEBIAN"), base.Add(20*time.Minute))

	stale, err := testOracle(t, st).IsStale("widget")
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestSelectCandidatesSortedAndFiltered(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "zeta", "1.0.0")
	writePackage(t, st, "alpha", "1.0.0")

	// A package directory without a control file is excluded here; the
	// explicit-package path reports it later instead.
	require.NoError(t, os.MkdirAll(st.packageSourceDir("broken"), 0o755))
	// A stray file in the source root is never a package.
	require.NoError(t, os.WriteFile(filepath.Join(st.SourceDir, "notes.txt"), []byte("x"), 0o644))

	candidates, err := testOracle(t, st).SelectCandidates(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, candidates)
}

func TestSelectCandidatesSkipsCurrentPackages(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "fresh", "1.0.0")
	writePackage(t, st, "outdated", "1.0.0")

	base := time.Now().Add(-1 * time.Hour)
	touchTree(t, st.SourceDir, base)

	require.NoError(t, os.WriteFile(st.artifactPath("fresh"), []byte("deb"), 0o644))
	touch(t, st.artifactPath("fresh"), base.Add(10*time.Minute))

	candidates, err := testOracle(t, st).SelectCandidates(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"outdated"}, candidates)
}

func TestSelectCandidatesForceAllIgnoresStaleness(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "fresh", "1.0.0")

	base := time.Now().Add(-1 * time.Hour)
	touchTree(t, st.SourceDir, base)
	require.NoError(t, os.WriteFile(st.artifactPath("fresh"), []byte("deb"), 0o644))
	touch(t, st.artifactPath("fresh"), base.Add(10*time.Minute))

	candidates, err := testOracle(t, st).SelectCandidates(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, candidates)
}
