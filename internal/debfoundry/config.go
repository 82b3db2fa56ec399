package debfoundry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/debfoundry.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge DEBFOUNDRY_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge DEBFOUNDRY_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "DEBFOUNDRY_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

// Settings holds the resolved directory layout and mirror credentials for
// one run. Resolved once at startup and passed explicitly, never re-read.
type Settings struct {
	SourceDir  string // one subdirectory per package
	OutputDir  string // built artifacts plus repository index
	StagingDir string // shared ephemeral staging path

	MirrorEndpoint  string
	MirrorBucket    string
	MirrorAccessKey string
	MirrorSecretKey string
	MirrorRegion    string
}

// resolveSettings validates the two required directories and fills defaults.
func resolveSettings(cfg *Config) (*Settings, error) {
	st := &Settings{
		SourceDir: cfg.Values["DEBFOUNDRY_SOURCE_DIR"],
		OutputDir: cfg.Values["DEBFOUNDRY_OUTPUT_DIR"],

		MirrorEndpoint:  cfg.Values["DEBFOUNDRY_MIRROR_ENDPOINT"],
		MirrorBucket:    cfg.Values["DEBFOUNDRY_MIRROR_BUCKET"],
		MirrorAccessKey: cfg.Values["DEBFOUNDRY_MIRROR_ACCESS_KEY"],
		MirrorSecretKey: cfg.Values["DEBFOUNDRY_MIRROR_SECRET_KEY"],
		MirrorRegion:    cfg.Values["DEBFOUNDRY_MIRROR_REGION"],
	}

	if st.SourceDir == "" {
		return nil, fmt.Errorf("DEBFOUNDRY_SOURCE_DIR is not set in the configuration")
	}
	if st.OutputDir == "" {
		return nil, fmt.Errorf("DEBFOUNDRY_OUTPUT_DIR is not set in the configuration")
	}

	st.StagingDir = cfg.Values["DEBFOUNDRY_STAGING_DIR"]
	if st.StagingDir == "" {
		st.StagingDir = filepath.Join(st.OutputDir, StagingDirRelative)
	}
	if st.MirrorRegion == "" {
		st.MirrorRegion = "auto"
	}

	if cfg.Values["DEBFOUNDRY_DEBUG"] == "1" {
		Debug = true
	}

	return st, nil
}

// Per-package path helpers. The artifact's mtime doubles as the package's
// last-built timestamp, so these derivations must stay deterministic.

func (st *Settings) packageSourceDir(pkg string) string {
	return filepath.Join(st.SourceDir, pkg)
}

func (st *Settings) controlFilePath(pkg string) string {
	return filepath.Join(st.SourceDir, pkg, "DEBIAN", "control")
}

func (st *Settings) artifactPath(pkg string) string {
	return filepath.Join(st.OutputDir, pkg+".deb")
}

func (st *Settings) buildLogPath(pkg string) string {
	return filepath.Join(st.OutputDir, LogDirRelative, pkg+".log")
}

func (st *Settings) packagesFilePath() string {
	return filepath.Join(st.OutputDir, PackagesBaseFilename)
}
