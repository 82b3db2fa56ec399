package debfoundry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalMirrorEntryIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.deb")
	require.NoError(t, os.WriteFile(path, []byte("deb-bytes"), 0o644))

	first, err := localMirrorEntry(path)
	require.NoError(t, err)
	assert.Equal(t, "widget.deb", first.Filename)
	assert.Equal(t, int64(9), first.Size)
	assert.Len(t, first.B3Sum, 64)

	second, err := localMirrorEntry(path)
	require.NoError(t, err)
	assert.Equal(t, first.B3Sum, second.B3Sum)
}

func TestLocalMirrorEntryChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.deb")
	b := filepath.Join(dir, "b.deb")
	require.NoError(t, os.WriteFile(a, []byte("content one"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("content two"), 0o644))

	entryA, err := localMirrorEntry(a)
	require.NoError(t, err)
	entryB, err := localMirrorEntry(b)
	require.NoError(t, err)
	assert.NotEqual(t, entryA.B3Sum, entryB.B3Sum)
}

func TestMirrorStateRoundTrip(t *testing.T) {
	state := map[string]MirrorEntry{
		"zeta.deb":  {Filename: "zeta.deb", Size: 10, B3Sum: "bbbb"},
		"alpha.deb": {Filename: "alpha.deb", Size: 20, B3Sum: "aaaa"},
	}

	flat := sortedState(state)
	require.Len(t, flat, 2)
	assert.Equal(t, "alpha.deb", flat[0].Filename)
	assert.Equal(t, "zeta.deb", flat[1].Filename)

	data, err := json.MarshalIndent(flat, "", "  ")
	require.NoError(t, err)

	parsed, err := parseMirrorState(data)
	require.NoError(t, err)
	assert.Equal(t, state, parsed)
}

func TestParseMirrorStateEmptyAndInvalid(t *testing.T) {
	state, err := parseMirrorState(nil)
	require.NoError(t, err)
	assert.Empty(t, state)

	_, err = parseMirrorState([]byte("{not json"))
	require.Error(t, err)
}
