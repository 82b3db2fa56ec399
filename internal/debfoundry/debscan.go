package debfoundry

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// scanDebArchives is the Go-native replacement for dpkg-scanpackages: it
// reads the control stanza out of every .deb in outputDir and emits a
// Packages index with Filename/Size/checksum fields, sorted by filename.
func scanDebArchives(outputDir string) (string, error) {
	debs, err := filepath.Glob(filepath.Join(outputDir, "*.deb"))
	if err != nil {
		return "", err
	}
	sort.Strings(debs)

	var sb strings.Builder
	for _, deb := range debs {
		stanza, err := readDebStanza(deb)
		if err != nil {
			return "", fmt.Errorf("failed to scan %s: %w", deb, err)
		}
		sb.WriteString(stanza)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// readDebStanza produces one Packages stanza for a single .deb file.
func readDebStanza(debPath string) (string, error) {
	data, err := os.ReadFile(debPath)
	if err != nil {
		return "", err
	}

	control, err := extractControl(data)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(debPath)
	if err != nil {
		return "", err
	}

	md5sum := md5.Sum(data)
	sha1sum := sha1.Sum(data)
	sha256sum := sha256.Sum256(data)

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(control, "\n"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Filename: ./%s\n", filepath.Base(debPath))
	fmt.Fprintf(&sb, "Size: %d\n", info.Size())
	fmt.Fprintf(&sb, "MD5sum: %x\n", md5sum)
	fmt.Fprintf(&sb, "SHA1: %x\n", sha1sum)
	fmt.Fprintf(&sb, "SHA256: %x\n", sha256sum)
	return sb.String(), nil
}

// extractControl walks the deb's ar container, finds the control tarball
// and returns the control file's text.
func extractControl(deb []byte) (string, error) {
	const arMagic = "!<arch>\n"
	if len(deb) < len(arMagic) || string(deb[:len(arMagic)]) != arMagic {
		return "", fmt.Errorf("not an ar archive")
	}

	off := len(arMagic)
	for off+60 <= len(deb) {
		header := deb[off : off+60]
		off += 60

		name := strings.TrimRight(string(header[0:16]), " ")
		name = strings.TrimSuffix(name, "/") // GNU ar style
		sizeStr := strings.TrimSpace(string(header[48:58]))
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return "", fmt.Errorf("bad ar member header at offset %d", off-60)
		}
		if off+size > len(deb) {
			return "", fmt.Errorf("truncated ar member %q", name)
		}
		member := deb[off : off+size]
		// Member data is padded to an even boundary.
		off += size + size%2

		if strings.HasPrefix(name, "control.tar") {
			return controlFromTarball(name, member)
		}
	}
	return "", fmt.Errorf("no control.tar member found")
}

// controlFromTarball decompresses the control tarball and pulls out the
// control file.
func controlFromTarball(name string, data []byte) (string, error) {
	var r io.Reader = bytes.NewReader(data)
	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(name, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("failed to create xz reader for %s: %w", name, err)
		}
		r = xzr
	case strings.HasSuffix(name, ".zst"):
		zst, err := zstd.NewReader(r)
		if err != nil {
			return "", fmt.Errorf("failed to create zstd reader for %s: %w", name, err)
		}
		defer zst.Close()
		r = zst
	case strings.HasSuffix(name, ".bz2"):
		r = bzip2.NewReader(r)
	case strings.HasSuffix(name, ".tar"):
		// No compression
	default:
		return "", fmt.Errorf("unsupported control tarball format: %s", name)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("error reading %s: %w", name, err)
		}
		base := strings.TrimPrefix(hdr.Name, "./")
		if base == "control" {
			content, err := io.ReadAll(tr)
			if err != nil {
				return "", fmt.Errorf("failed to read control file: %w", err)
			}
			return string(content), nil
		}
	}
	return "", fmt.Errorf("control file missing from %s", name)
}
