package debfoundry

import (
	"strings"
)

// Selection names the package set for one orchestration pass: every
// discoverable package, one explicit package, or (default) only the stale
// ones. The explicit modes bypass the staleness check entirely.
type Selection struct {
	All     bool
	Package string
}

// RunReport summarizes one pass.
type RunReport struct {
	Built   []string
	Skipped []string
}

// Orchestrator sequences the whole pass: candidate selection, one build at
// a time in sorted order, then a single index refresh if anything was built.
type Orchestrator struct {
	st      *Settings
	out     *Output
	oracle  *StalenessOracle
	builder *PackageBuilder
	indexer *RepositoryIndexer
}

func NewOrchestrator(st *Settings, out *Output, execCtx *Executor) *Orchestrator {
	return &Orchestrator{
		st:      st,
		out:     out,
		oracle:  NewStalenessOracle(st, out, execCtx),
		builder: NewPackageBuilder(st, out, execCtx),
		indexer: NewRepositoryIndexer(st, out, execCtx),
	}
}

// Run executes one orchestration pass. Builds are strictly sequential: a
// package's staging area is fully released before the next build starts.
func (o *Orchestrator) Run(sel Selection) (RunReport, error) {
	var report RunReport

	candidates, err := o.resolveSelection(sel)
	if err != nil {
		return report, err
	}

	for _, pkg := range candidates {
		pkg = strings.TrimSuffix(pkg, ".deb")
		o.out.Indent("Building package %q", pkg)
		result, err := o.builder.Build(pkg)
		if err != nil {
			o.out.UnIndent()
			return report, err
		}
		o.out.UnIndent()
		switch result.Status {
		case Built:
			report.Built = append(report.Built, pkg)
			o.out.Put("done with %q", pkg)
		case Skipped:
			report.Skipped = append(report.Skipped, pkg)
			o.out.Put("skipping package %q", pkg)
		}
	}

	if len(report.Built) == 0 {
		o.out.Put("Not rebuilding repository metadata (no packages updated)")
		return report, nil
	}
	if err := o.indexer.Refresh(); err != nil {
		return report, err
	}
	return report, nil
}

// resolveSelection turns a Selection into the ordered candidate list. The
// explicit single-package mode never consults the staleness oracle.
func (o *Orchestrator) resolveSelection(sel Selection) ([]string, error) {
	if sel.All {
		return o.oracle.SelectCandidates(true)
	}
	if sel.Package != "" {
		return []string{sel.Package}, nil
	}
	// default: build only what's changed
	return o.oracle.SelectCandidates(false)
}
