package debfoundry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes an executable shell script standing in for an external
// packaging tool.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// fakeDebTool mimics dpkg-deb --build: emits a progress line and creates
// the artifact named by its third argument.
func fakeDebTool(t *testing.T) string {
	t.Helper()
	return fakeTool(t, `echo "dpkg-deb: building package in '$3'."
printf 'deb-bytes' > "$3"
`)
}

func testBuilder(t *testing.T, st *Settings) *PackageBuilder {
	t.Helper()
	b := NewPackageBuilder(st, testOutput(), NewExecutor(context.Background()))
	b.debTool = fakeDebTool(t)
	return b
}

func TestBuildHappyPath(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.3")

	result, err := testBuilder(t, st).Build("widget")
	require.NoError(t, err)
	assert.Equal(t, Built, result.Status)
	assert.Equal(t, "1.0.3", result.OldVersion)
	assert.Equal(t, "1.0.4", result.NewVersion)

	// The bump is committed to the source tree.
	data, err := os.ReadFile(st.controlFilePath("widget"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Version: 1.0.4\n")

	assert.FileExists(t, st.artifactPath("widget"))
	assert.NoDirExists(t, st.StagingDir, "staging must be released after a successful build")
}

func TestBuildMissingControlIsSkipped(t *testing.T) {
	st := testSettings(t)
	require.NoError(t, os.MkdirAll(st.packageSourceDir("bare"), 0o755))

	result, err := testBuilder(t, st).Build("bare")
	require.NoError(t, err, "a missing control file is recoverable, not fatal")
	assert.Equal(t, Skipped, result.Status)
	assert.NotEmpty(t, result.Reason)
	assert.NoFileExists(t, st.artifactPath("bare"))
}

func TestBuildMalformedVersionIsSkipped(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "oddball", "1.0.0")
	require.NoError(t, os.WriteFile(st.controlFilePath("oddball"),
		[]byte("Package: oddball\nVersion: release-candidate\n"), 0o644))

	result, err := testBuilder(t, st).Build("oddball")
	require.NoError(t, err)
	assert.Equal(t, Skipped, result.Status)

	// The unusable control file is left untouched.
	data, err := os.ReadFile(st.controlFilePath("oddball"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Version: release-candidate\n")
}

func TestBuildToolFailureIsFatal(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")

	b := NewPackageBuilder(st, testOutput(), NewExecutor(context.Background()))
	b.debTool = fakeTool(t, `echo "dpkg-deb: error: control directory has bad permissions" >&2
exit 2
`)

	_, err := b.Build("widget")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad permissions")
	assert.NoDirExists(t, st.StagingDir, "staging must be released even when packaging fails")
}

func TestBuildReplacesPriorArtifact(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")
	require.NoError(t, os.WriteFile(st.artifactPath("widget"), []byte("old"), 0o644))

	_, err := testBuilder(t, st).Build("widget")
	require.NoError(t, err)

	data, err := os.ReadFile(st.artifactPath("widget"))
	require.NoError(t, err)
	assert.Equal(t, "deb-bytes", string(data))
}

func TestBuildWritesBuildLog(t *testing.T) {
	st := testSettings(t)
	writePackage(t, st, "widget", "1.0.0")

	_, err := testBuilder(t, st).Build("widget")
	require.NoError(t, err)

	data, err := os.ReadFile(st.buildLogPath("widget"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dpkg-deb: building package")
}
