package debfoundry

import (
	"os"
	"sort"
)

// StalenessOracle decides which packages need rebuilding by comparing
// source file modification times against the built artifact's timestamp.
type StalenessOracle struct {
	st   *Settings
	out  *Output
	exec *Executor
}

func NewStalenessOracle(st *Settings, out *Output, execCtx *Executor) *StalenessOracle {
	return &StalenessOracle{st: st, out: out, exec: execCtx}
}

// IsStale reports whether pkg must be rebuilt: always when no artifact
// exists yet, otherwise when any regular source file is strictly newer
// than the artifact.
func (s *StalenessOracle) IsStale(pkg string) (bool, error) {
	artifact := s.st.artifactPath(pkg)
	if _, err := os.Stat(artifact); os.IsNotExist(err) {
		return true, nil
	}
	return anyFileNewer(s.st.packageSourceDir(pkg), artifact, s.exec)
}

// SelectCandidates enumerates the source root and returns the sorted list
// of package names to build. With forceAll set the staleness check is
// bypassed entirely. Entries that are not directories or lack a control
// file are left out here; the explicit-package path surfaces that problem
// later inside the builder instead.
func (s *StalenessOracle) SelectCandidates(forceAll bool) ([]string, error) {
	entries, err := os.ReadDir(s.st.SourceDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var selected []string
	for _, pkg := range names {
		stale := true
		if !forceAll {
			stale, err = s.IsStale(pkg)
			if err != nil {
				return nil, err
			}
		}
		if stale {
			if isBuildablePackage(s.st, pkg) {
				selected = append(selected, pkg)
			}
		} else {
			s.out.Put("skipping package %q - .deb file already current", pkg)
		}
	}
	return selected, nil
}

// isBuildablePackage requires a real source directory with a control file.
func isBuildablePackage(st *Settings, pkg string) bool {
	info, err := os.Stat(st.packageSourceDir(pkg))
	if err != nil || !info.IsDir() {
		return false
	}
	if _, err := os.Stat(st.controlFilePath(pkg)); err != nil {
		return false
	}
	return true
}
