package debfoundry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPutCarriesArrowPrefix(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf}

	out.Put("building %d package(s)", 3)

	line := buf.String()
	assert.Contains(t, line, "-> ")
	assert.Contains(t, line, "building 3 package(s)")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestOutputIndentationNesting(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf}

	out.Indent("outer")
	out.Put("inner")
	out.UnIndent()
	out.Put("outer again")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.False(t, strings.HasPrefix(lines[0], "  "))
	assert.True(t, strings.HasPrefix(lines[1], "  "))
	assert.False(t, strings.HasPrefix(lines[2], "  "))
}

func TestOutputUnIndentNeverGoesNegative(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf}

	out.UnIndent()
	out.Put("still flush left")
	assert.False(t, strings.HasPrefix(buf.String(), " "))
}

func TestOutputRawIndentsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf}

	out.Indent("header")
	buf.Reset()
	out.Raw("tool line one\ntool line two\n")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  tool line one", lines[0])
	assert.Equal(t, "  tool line two", lines[1])
}

func TestOutputRawIgnoresEmptyText(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{w: &buf}

	out.Raw("")
	assert.Zero(t, buf.Len())
}
