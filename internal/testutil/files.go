// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// WriteFiles creates the given slash-separated files below root.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		MustMkdirAll(t, filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

// MustMkdirAll creates a directory tree or fails the test.
func MustMkdirAll(t testing.TB, path string, perm fs.FileMode) {
	t.Helper()

	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// ZipEntry is a file placed in an archive built by WriteZip.
type ZipEntry struct {
	Body string
	Mode fs.FileMode
}

// WriteZip writes a zip archive at path holding entries, in name order.
// Entries with a zero Mode get 0644.
func WriteZip(t testing.TB, path string, entries map[string]ZipEntry) {
	t.Helper()

	MustMkdirAll(t, filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		e := entries[name]
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		mode := e.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(e.Body)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close %s: %v", path, err)
	}
}
