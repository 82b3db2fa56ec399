package debfoundry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedVersion marks a control file whose Version line is missing or
// not a dotted numeric version. It is recoverable per package: the builder
// skips the package and the run continues.
var ErrMalformedVersion = errors.New("no well-formed Version line in control file")

// bumpVersion increments the patch component of the control file's
// Version line. Only that line is rewritten; every other byte of the file
// is preserved. Returns the old and new version strings for logging.
//
// A well-formed version is at least two dot-separated numeric groups; the
// last group is the patch. There is no rollover: 1.2.9 becomes 1.2.10.
func bumpVersion(controlFileContents string) (oldVersion, newVersion, updated string, err error) {
	lines := strings.Split(controlFileContents, "\n")
	for i, line := range lines {
		value, ok := strings.CutPrefix(line, "Version: ")
		if !ok {
			continue
		}
		oldVersion = strings.TrimSpace(value)
		newVersion, err = incrementPatch(oldVersion)
		if err != nil {
			return "", "", "", err
		}
		lines[i] = "Version: " + newVersion
		return oldVersion, newVersion, strings.Join(lines, "\n"), nil
	}
	return "", "", "", ErrMalformedVersion
}

// incrementPatch bumps the final numeric group of a dotted version.
func incrementPatch(version string) (string, error) {
	groups := strings.Split(version, ".")
	if len(groups) < 2 {
		return "", fmt.Errorf("%w: %q", ErrMalformedVersion, version)
	}
	for _, g := range groups {
		if g == "" || !isNumeric(g) {
			return "", fmt.Errorf("%w: %q", ErrMalformedVersion, version)
		}
	}
	patch, err := strconv.Atoi(groups[len(groups)-1])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedVersion, version)
	}
	groups[len(groups)-1] = strconv.Itoa(patch + 1)
	return strings.Join(groups, "."), nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
