// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extract writes the entries of a tar stream produced by copying
// containerDir out of a container into hostDir. The stream's first path
// segment is the leaf name of containerDir and is stripped. Parent
// directories are created and existing files are overwritten.
func Extract(r io.Reader, containerDir, hostDir string) error {
	leaf := path.Base(path.Clean("/" + containerDir))
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return extractErr(hostDir, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return extractErr(hostDir, err)
		}

		rel, ok := stripLeaf(hdr.Name, leaf)
		if !ok {
			continue
		}
		target, err := safeJoin(hostDir, rel)
		if err != nil {
			return extractErr(hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirPerm(hdr.FileInfo().Mode())); err != nil {
				return extractErr(target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr); err != nil {
				return extractErr(target, err)
			}
		}
	}
}

// ExtractFile writes the first regular file of a tar stream to hostFile.
func ExtractFile(r io.Reader, hostFile string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return extractErr(hostFile, ErrEntryNotFound)
		}
		if err != nil {
			return extractErr(hostFile, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(hostFile), 0o755); err != nil {
			return extractErr(hostFile, err)
		}
		if err := writeFile(hostFile, tr, hdr); err != nil {
			return extractErr(hostFile, err)
		}
		return nil
	}
}

// stripLeaf removes the leading segment equal to leaf from an entry name.
// The entry for the leaf itself maps to "". Entries outside leaf are skipped.
func stripLeaf(name, leaf string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == leaf {
		return "", true
	}
	rest, ok := strings.CutPrefix(name, leaf+"/")
	return rest, ok
}

func safeJoin(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	back, err := filepath.Rel(root, target)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", ErrUnsafePath
	}
	return target, nil
}

func writeFile(target string, r io.Reader, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm(hdr.FileInfo().Mode()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if hdr.ModTime.IsZero() {
		return nil
	}
	return os.Chtimes(target, hdr.ModTime, hdr.ModTime)
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
