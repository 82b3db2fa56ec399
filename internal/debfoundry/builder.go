package debfoundry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BuildStatus is the terminal state of one package's build.
type BuildStatus int

const (
	// Built means the artifact was created and is current.
	Built BuildStatus = iota
	// Skipped means a recoverable per-package problem stopped the build;
	// the orchestrator carries on with the remaining packages.
	Skipped
)

// BuildResult reports what happened to a single package. Environment and
// tooling failures are not represented here: those come back as errors and
// abort the whole run.
type BuildResult struct {
	Package    string
	Status     BuildStatus
	Reason     string // set when Skipped
	OldVersion string
	NewVersion string
}

// PackageBuilder drives the per-package lifecycle: version bump, staging,
// packaging-tool invocation, staging release.
type PackageBuilder struct {
	st      *Settings
	out     *Output
	exec    *Executor
	debTool string
}

func NewPackageBuilder(st *Settings, out *Output, execCtx *Executor) *PackageBuilder {
	return &PackageBuilder{st: st, out: out, exec: execCtx, debTool: "dpkg-deb"}
}

// Build runs the four-step state machine for one package. The version bump
// is committed to disk before packaging starts, so a later failure leaves
// the control file bumped with no matching artifact; that inconsistency is
// accepted and the next run simply rebuilds.
func (b *PackageBuilder) Build(pkg string) (BuildResult, error) {
	result := BuildResult{Package: pkg}

	// 1. Version bump (the only recoverable step).
	oldVer, newVer, err := b.stampVersion(pkg)
	if err != nil {
		if errors.Is(err, ErrMalformedVersion) || os.IsNotExist(err) {
			b.out.Warn("ERROR: no usable control file found for %s: %v", pkg, err)
			result.Status = Skipped
			result.Reason = err.Error()
			return result, nil
		}
		return result, err
	}
	result.OldVersion = oldVer
	result.NewVersion = newVer
	b.out.Put("incremented package version from %s to %s", oldVer, newVer)

	// 2. Stage. A copy failure is an environment problem and aborts the run.
	b.out.Put("creating staging dir")
	staging, err := prepareStaging(b.st.packageSourceDir(pkg), b.st.StagingDir, b.exec)
	if err != nil {
		return result, err
	}
	// 4. Release happens on every exit path, success or failure.
	defer staging.Teardown()

	// 3. Package.
	if err := b.packageStaging(pkg, staging); err != nil {
		return result, err
	}

	b.out.Put("cleaning up staging dir")
	result.Status = Built
	return result, nil
}

// stampVersion bumps the control file's patch version in place. The write
// is durable before packaging begins.
func (b *PackageBuilder) stampVersion(pkg string) (oldVer, newVer string, err error) {
	path := b.st.controlFilePath(pkg)
	info, err := os.Stat(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	oldVer, newVer, updated, err := bumpVersion(string(data))
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode()); err != nil {
		return "", "", fmt.Errorf("failed to rewrite control file %s: %w", path, err)
	}
	return oldVer, newVer, nil
}

// packageStaging deletes any prior artifact and invokes dpkg-deb against
// the staging tree. A packaging failure is fatal for the run.
func (b *PackageBuilder) packageStaging(pkg string, staging *StagingArea) error {
	b.out.Indent("building .deb file")
	defer b.out.UnIndent()

	artifact := b.st.artifactPath(pkg)
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale artifact %s: %w", artifact, err)
	}

	out, err := b.exec.Capture(b.debTool,
		[]string{"--build", staging.Path, artifact},
		RunOpts{Dir: b.st.OutputDir, DropEmptyLines: true})
	b.writeBuildLog(pkg, out, err)
	if err != nil {
		return fmt.Errorf("packaging %s: %w", pkg, err)
	}
	b.out.Raw(out)
	return nil
}

// writeBuildLog keeps the packaging tool's output under {output}/.logs for
// the status viewer. Log failures never affect the build itself.
func (b *PackageBuilder) writeBuildLog(pkg, toolOutput string, buildErr error) {
	logPath := b.st.buildLogPath(pkg)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		debugf("cannot create log dir: %v\n", err)
		return
	}
	var sb strings.Builder
	sb.WriteString(toolOutput)
	if buildErr != nil {
		sb.WriteString("\nBUILD FAILED: " + buildErr.Error() + "\n")
	}
	if err := os.WriteFile(logPath, []byte(sb.String()), 0o644); err != nil {
		debugf("cannot write build log for %s: %v\n", pkg, err)
	}
}
