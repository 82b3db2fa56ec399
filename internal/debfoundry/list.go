package debfoundry

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// pkgInfo is one row of the list/status views.
type pkgInfo struct {
	Name         string
	Version      string
	HasArtifact  bool
	ArtifactTime string
	Stale        bool
}

// declaredVersion reads the Version field from a package's control file.
func declaredVersion(st *Settings, pkg string) string {
	data, err := os.ReadFile(st.controlFilePath(pkg))
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "Version: "); ok {
			return strings.TrimSpace(value)
		}
	}
	return "unknown"
}

// gatherPackages collects the buildable packages under the source root,
// optionally filtered by a partial name match.
func gatherPackages(st *Settings, oracle *StalenessOracle, searchTerm string) ([]pkgInfo, error) {
	entries, err := os.ReadDir(st.SourceDir)
	if err != nil {
		return nil, err
	}

	var infos []pkgInfo
	for _, e := range entries {
		pkg := e.Name()
		if searchTerm != "" && !strings.Contains(pkg, searchTerm) {
			continue
		}
		if !isBuildablePackage(st, pkg) {
			continue
		}
		info := pkgInfo{Name: pkg, Version: declaredVersion(st, pkg)}
		if fi, err := os.Stat(st.artifactPath(pkg)); err == nil {
			info.HasArtifact = true
			info.ArtifactTime = fi.ModTime().Format("2006-01-02 15:04")
		}
		if oracle != nil {
			if stale, err := oracle.IsStale(pkg); err == nil {
				info.Stale = stale
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// listPackages implements the 'debfoundry list' command, supporting
// partial matches.
func listPackages(st *Settings, oracle *StalenessOracle, searchTerm string) error {
	infos, err := gatherPackages(st, oracle, searchTerm)
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		if searchTerm != "" {
			return fmt.Errorf("no packages found matching: %s", searchTerm)
		}
		fmt.Println("No buildable packages found.")
		return nil
	}

	for _, p := range infos {
		state := "no artifact"
		if p.HasArtifact {
			state = "built " + p.ArtifactTime
			if p.Stale {
				state += " (stale)"
			}
		}
		fmt.Printf("%s %s [%s]\n", p.Name, p.Version, state)
	}
	return nil
}
