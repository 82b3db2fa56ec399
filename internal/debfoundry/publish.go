package debfoundry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lukechampine.com/blake3"
)

// MirrorEntry records one published file in the mirror state manifest.
type MirrorEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	B3Sum    string `json:"b3sum"`
}

// handlePublishCommand implements the 'debfoundry publish' command: sync
// local artifacts plus the index files to the S3-compatible mirror,
// skipping files whose checksums match the remote state manifest.
func handlePublishCommand(ctx context.Context, st *Settings, out *Output, cleanup bool) error {
	mirror, err := NewMirrorClient(st)
	if err != nil {
		return err
	}

	// 1. Fetch remote state
	out.Put("Fetching mirror state")
	var remoteState map[string]MirrorEntry
	if data, err := mirror.DownloadFile(ctx, MirrorStateFilename); err != nil {
		debugf("mirror state not found or error fetching: %v\n", err)
		remoteState = make(map[string]MirrorEntry)
	} else {
		remoteState, err = parseMirrorState(data)
		if err != nil {
			return fmt.Errorf("failed to parse mirror state: %w", err)
		}
	}

	// 2. Collect local publishable files: artifacts plus the index pair.
	out.Put("Scanning local artifacts in %s", st.OutputDir)
	localFiles, err := filepath.Glob(filepath.Join(st.OutputDir, "*.deb"))
	if err != nil {
		return err
	}
	for _, index := range []string{st.packagesFilePath(), st.packagesFilePath() + ".gz"} {
		if _, err := os.Stat(index); err == nil {
			localFiles = append(localFiles, index)
		}
	}
	sort.Strings(localFiles)

	// 3. Upload what changed
	newState := make(map[string]MirrorEntry, len(remoteState))
	for k, v := range remoteState {
		newState[k] = v
	}

	var uploadedCount int
	for _, path := range localFiles {
		key := filepath.Base(path)
		entry, err := localMirrorEntry(path)
		if err != nil {
			return err
		}

		if remote, ok := newState[key]; ok && remote.B3Sum == entry.B3Sum {
			debugf("unchanged, skipping: %s\n", key)
			continue
		}

		out.Put("Uploading %s (%s)", key, humanReadableSize(entry.Size))
		if err := mirror.UploadLocalFile(ctx, key, path); err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
		newState[key] = entry
		uploadedCount++
	}

	// 4. Cleanup artifacts that no longer exist locally
	if cleanup {
		out.Put("Checking for obsolete artifacts on the mirror")
		localSet := make(map[string]bool, len(localFiles))
		for _, path := range localFiles {
			localSet[filepath.Base(path)] = true
		}

		remoteObjects, err := mirror.ListObjects(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list remote files: %w", err)
		}

		var deletedCount int
		for _, obj := range remoteObjects {
			if localSet[obj.Key] || !strings.HasSuffix(obj.Key, ".deb") {
				continue
			}
			if !askForConfirmation("Delete obsolete artifact from mirror: %s?", obj.Key) {
				continue
			}
			if err := mirror.DeleteFile(ctx, obj.Key); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to delete %s: %v\n", obj.Key, err)
				continue
			}
			delete(newState, obj.Key)
			deletedCount++
		}
		if deletedCount > 0 {
			out.Put("Cleanup complete. Deleted %d obsolete files.", deletedCount)
		}
	}

	// 5. Storage reporting
	if allObjects, err := mirror.ListObjects(ctx, ""); err == nil {
		var totalSize int64
		for _, obj := range allObjects {
			totalSize += obj.Size
		}
		out.Put("Mirror storage used: %s", humanReadableSize(totalSize))
	}

	// 6. Finalize state
	if uploadedCount == 0 && !cleanup {
		out.Put("Everything up to date.")
		return nil
	}
	out.Put("Updating mirror state")
	stateBytes, err := json.MarshalIndent(sortedState(newState), "", "  ")
	if err != nil {
		return err
	}
	if err := mirror.UploadFile(ctx, MirrorStateFilename, stateBytes); err != nil {
		return fmt.Errorf("failed to upload mirror state: %w", err)
	}
	out.Put("Sync complete. %d file(s) uploaded.", uploadedCount)
	return nil
}

// localMirrorEntry computes the size and BLAKE3 checksum of a local file.
func localMirrorEntry(path string) (MirrorEntry, error) {
	entry := MirrorEntry{Filename: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		return entry, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return entry, err
	}
	entry.Size = info.Size()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return entry, fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	entry.B3Sum = fmt.Sprintf("%x", h.Sum(nil))
	return entry, nil
}

// parseMirrorState reads the published manifest, keyed by filename.
func parseMirrorState(data []byte) (map[string]MirrorEntry, error) {
	var entries []MirrorEntry
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
	}
	state := make(map[string]MirrorEntry, len(entries))
	for _, e := range entries {
		state[e.Filename] = e
	}
	return state, nil
}

// sortedState flattens the state map into a deterministic slice.
func sortedState(state map[string]MirrorEntry) []MirrorEntry {
	entries := make([]MirrorEntry, 0, len(state))
	for _, e := range state {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	return entries
}

// askForConfirmation prompts for a y/N answer on stdin.
func askForConfirmation(format string, a ...any) bool {
	colArrow.Print("-> ")
	colWarn.Printf(format+" [y/N]: ", a...)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
