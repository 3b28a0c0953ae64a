// SPDX-License-Identifier: MPL-2.0

package cmdline

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrStopWalk can be returned from a WalkFunc to end a walk early without error.
var ErrStopWalk = errors.New("stop walk")

type (
	// Tree is a finite, restartable set of host files visited in lexical
	// order of their relative paths.
	Tree interface {
		Walk(fn WalkFunc) error
	}

	// WalkFunc is called once per Element. Element.Open is only valid for
	// the duration of the call.
	WalkFunc func(elem Element) error

	// Element is one node of a Tree.
	Element struct {
		// RelPath is slash separated and relative to the tree root.
		RelPath string
		IsDir   bool
		Mode    fs.FileMode
		ModTime time.Time
		Size    int64

		open func() (io.ReadCloser, error)
	}

	// DirTree is the tree of files below Root. When Include is non-empty,
	// only regular files matching one of its patterns are visited, together
	// with the directories that contain them. A pattern without a '/' is
	// matched against the file name, any other pattern against the relative
	// path, using path.Match syntax.
	DirTree struct {
		Root    string
		Include []string
	}

	// ArchiveTree is the tree of entries of a .zip, .jar or .tar file.
	// Directories implied by file paths are visited even when the archive
	// has no explicit entry for them.
	ArchiveTree struct {
		Path string
	}
)

// Open opens the element's content. It fails for directories.
func (e Element) Open() (io.ReadCloser, error) {
	if e.IsDir {
		return nil, fmt.Errorf("%s is a directory", e.RelPath)
	}
	if e.open == nil {
		return nil, fmt.Errorf("%s has no content", e.RelPath)
	}
	return e.open()
}

// NewElement builds an Element whose content comes from open.
func NewElement(relPath string, isDir bool, mode fs.FileMode, modTime time.Time, size int64, open func() (io.ReadCloser, error)) Element {
	return Element{RelPath: relPath, IsDir: isDir, Mode: mode, ModTime: modTime, Size: size, open: open}
}

// Walk visits every matching node below Root in lexical order. A missing
// Root is an empty tree.
func (t DirTree) Walk(fn WalkFunc) error {
	if _, err := os.Stat(t.Root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	var elems []Element
	err := filepath.WalkDir(t.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == t.Root {
			return nil
		}
		rel, err := filepath.Rel(t.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			elems = append(elems, NewElement(rel, true, info.Mode(), info.ModTime(), 0, nil))
			return nil
		}
		if !info.Mode().IsRegular() || !t.includes(rel) {
			return nil
		}
		hostPath := p
		elems = append(elems, NewElement(rel, false, info.Mode(), info.ModTime(), info.Size(), func() (io.ReadCloser, error) {
			return os.Open(hostPath)
		}))
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", t.Root, err)
	}

	if len(t.Include) > 0 {
		elems = pruneEmptyDirs(elems)
	}
	return visit(elems, fn)
}

func (t DirTree) includes(rel string) bool {
	if len(t.Include) == 0 {
		return true
	}
	for _, pattern := range t.Include {
		subject := rel
		if !strings.Contains(pattern, "/") {
			subject = path.Base(rel)
		}
		if ok, _ := path.Match(pattern, subject); ok {
			return true
		}
	}
	return false
}

// Walk visits every entry of the archive in lexical order.
func (t ArchiveTree) Walk(fn WalkFunc) error {
	switch strings.ToLower(filepath.Ext(t.Path)) {
	case ".zip", ".jar":
		return t.walkZip(fn)
	case ".tar":
		return t.walkTar(fn)
	default:
		return fmt.Errorf("unsupported archive type: %s", t.Path)
	}
}

func (t ArchiveTree) walkZip(fn WalkFunc) error {
	r, err := zip.OpenReader(t.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.Path, err)
	}
	defer r.Close()

	elems := make([]Element, 0, len(r.File))
	for _, f := range r.File {
		name, ok := cleanEntryName(f.Name)
		if !ok {
			continue
		}
		info := f.FileInfo()
		if info.IsDir() {
			elems = append(elems, NewElement(name, true, info.Mode(), f.Modified, 0, nil))
			continue
		}
		elems = append(elems, NewElement(name, false, info.Mode(), f.Modified, int64(f.UncompressedSize64), f.Open))
	}
	return visit(withImpliedDirs(elems), fn)
}

// walkTar buffers file contents because tar entries can only be read in
// stream order, which is not lexical.
func (t ArchiveTree) walkTar(fn WalkFunc) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", t.Path, err)
	}
	defer f.Close()

	var elems []Element
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", t.Path, err)
		}
		name, ok := cleanEntryName(hdr.Name)
		if !ok {
			continue
		}
		info := hdr.FileInfo()
		switch hdr.Typeflag {
		case tar.TypeDir:
			elems = append(elems, NewElement(name, true, info.Mode(), hdr.ModTime, 0, nil))
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("reading %s from %s: %w", hdr.Name, t.Path, err)
			}
			elems = append(elems, NewElement(name, false, info.Mode(), hdr.ModTime, int64(len(data)), func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			}))
		}
	}
	return visit(withImpliedDirs(elems), fn)
}

// cleanEntryName normalises an archive entry name, rejecting names that
// leave the archive root.
func cleanEntryName(name string) (string, bool) {
	name = path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, true
}

func withImpliedDirs(elems []Element) []Element {
	seen := make(map[string]bool, len(elems))
	for _, e := range elems {
		if e.IsDir {
			seen[e.RelPath] = true
		}
	}
	out := elems
	for _, e := range elems {
		for dir := path.Dir(e.RelPath); dir != "."; dir = path.Dir(dir) {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			out = append(out, NewElement(dir, true, fs.ModeDir|0o755, e.ModTime, 0, nil))
		}
	}
	return out
}

func pruneEmptyDirs(elems []Element) []Element {
	keep := make(map[string]bool)
	for _, e := range elems {
		if e.IsDir {
			continue
		}
		for dir := path.Dir(e.RelPath); dir != "."; dir = path.Dir(dir) {
			keep[dir] = true
		}
	}
	return slices.DeleteFunc(elems, func(e Element) bool {
		return e.IsDir && !keep[e.RelPath]
	})
}

func visit(elems []Element, fn WalkFunc) error {
	slices.SortStableFunc(elems, func(a, b Element) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	for i, e := range elems {
		// Duplicate entries in an archive keep the last occurrence.
		if i+1 < len(elems) && elems[i+1].RelPath == e.RelPath {
			continue
		}
		if err := fn(e); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
	return nil
}
