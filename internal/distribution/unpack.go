// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/go-archive"
)

// IsArchive reports whether path names an archive that Unpack can expand.
func IsArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".jar", ".tar":
		return true
	default:
		return false
	}
}

// Unpack extracts a .zip, .jar or .tar archive into dest, which must exist.
// Unix permission bits and modification times are preserved.
func Unpack(archivePath, dest string) error {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip", ".jar":
		return unzip(archivePath, dest)
	case ".tar":
		return untar(archivePath, dest)
	default:
		return &UnsupportedArchiveError{Path: archivePath}
	}
}

func unzip(archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer func() { _ = zr.Close() }() // read-only archive

	for _, f := range zr.File {
		target, err := SafeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, dirPerm(f.Mode())); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}
		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only entry

	if err := writeFile(target, rc, filePerm(f.Mode())); err != nil {
		return err
	}
	if !f.Modified.IsZero() {
		_ = os.Chtimes(target, f.Modified, f.Modified) // mtime is best effort
	}
	return nil
}

// untar expands a tar distribution with archive.Untar, which rejects entries
// and links escaping dest. Ownership is left to the current user.
func untar(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening tar: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only archive

	if err := archive.Untar(f, dest, &archive.TarOptions{NoLchown: true}); err != nil {
		return fmt.Errorf("expanding tar %s: %w", archivePath, err)
	}
	return nil
}

func writeFile(target string, r io.Reader, perm fs.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// SafeJoin joins an archive entry name onto dest, rejecting names that
// would escape dest.
func SafeJoin(dest, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(name, "/")))
	if clean == "." {
		return dest, nil
	}
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return filepath.Join(dest, clean), nil
}

func filePerm(m fs.FileMode) fs.FileMode {
	if p := m.Perm(); p != 0 {
		return p
	}
	return 0o644
}

func dirPerm(m fs.FileMode) fs.FileMode {
	if p := m.Perm(); p != 0 {
		return p | 0o700
	}
	return 0o755
}
