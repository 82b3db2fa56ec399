package debfoundry

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Output is the hierarchical progress sink. It is purely observational:
// nothing in the pipeline reads it back for control decisions.
type Output struct {
	w     io.Writer
	depth int
}

func NewOutput() *Output {
	return &Output{w: os.Stdout}
}

// Put prints one progress line at the current indentation depth.
func (o *Output) Put(format string, a ...any) {
	prefix := strings.Repeat("  ", o.depth)
	fmt.Fprint(o.w, prefix, colArrow.Sprint("-> "), colSuccess.Sprintf(format, a...), "\n")
}

// Warn prints a diagnostic line at the current indentation depth.
func (o *Output) Warn(format string, a ...any) {
	prefix := strings.Repeat("  ", o.depth)
	fmt.Fprint(o.w, prefix, colArrow.Sprint("-> "), colWarn.Sprintf(format, a...), "\n")
}

// Indent prints a header line and deepens the indentation for what follows.
func (o *Output) Indent(format string, a ...any) {
	o.Put(format, a...)
	o.depth++
}

// UnIndent returns to the previous indentation level.
func (o *Output) UnIndent() {
	if o.depth > 0 {
		o.depth--
	}
}

// Raw prints preformatted tool output (already filtered) without the arrow.
func (o *Output) Raw(text string) {
	if text == "" {
		return
	}
	prefix := strings.Repeat("  ", o.depth)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(o.w, "%s%s\n", prefix, line)
	}
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
