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
	"time"

	"github.com/helix-collective/adlgen/internal/cmdline"

	"github.com/moby/go-archive"
)

// Writer produces a tar stream intended to be unpacked at a container's "/".
// Entry names are container paths with the leading "/" removed.
type Writer struct {
	tw *tar.Writer
}

// NewWriter starts a tar stream on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{tw: tar.NewWriter(w)}
}

// Close finishes the tar stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		return writeErr("", err)
	}
	return nil
}

// WriteTree writes one entry per element of tree below containerBase,
// preceded by containerBase itself. Directory entries come first, in walk
// order, followed by the files.
func (w *Writer) WriteTree(tree cmdline.Tree, containerBase string) error {
	if err := w.WriteEmptyDir(containerBase); err != nil {
		return err
	}

	var err error
	switch t := tree.(type) {
	case cmdline.DirTree:
		err = w.writeDirTree(t, containerBase)
	case *cmdline.DirTree:
		err = w.writeDirTree(*t, containerBase)
	default:
		err = w.writeElements(tree, containerBase)
	}
	if err != nil {
		return asWriteErr(containerBase, err)
	}
	return nil
}

// writeElements copies every element of tree through Element.Open.
func (w *Writer) writeElements(tree cmdline.Tree, containerBase string) error {
	return tree.Walk(func(elem cmdline.Element) error {
		name := path.Join(containerBase, elem.RelPath)
		if elem.IsDir {
			return w.dir(name, elem.Mode, elem.ModTime)
		}

		r, err := elem.Open()
		if err != nil {
			return writeErr(name, err)
		}
		defer r.Close()
		return w.file(name, elem.Mode, elem.ModTime, elem.Size, r)
	})
}

// writeDirTree selects the files of a host directory with the tree's include
// patterns and lets archive.TarWithOptions read them, renamed below
// containerBase.
func (w *Writer) writeDirTree(tree cmdline.DirTree, containerBase string) error {
	var files []string
	rebase := make(map[string]string)
	err := tree.Walk(func(elem cmdline.Element) error {
		if elem.IsDir {
			return w.dir(path.Join(containerBase, elem.RelPath), elem.Mode, elem.ModTime)
		}
		include := filepath.FromSlash(elem.RelPath)
		files = append(files, include)
		rebase[include] = entryName(path.Join(containerBase, elem.RelPath))
		return nil
	})
	if err != nil || len(files) == 0 {
		return err
	}

	rc, err := archive.TarWithOptions(tree.Root, &archive.TarOptions{
		IncludeFiles: files,
		RebaseNames:  rebase,
	})
	if err != nil {
		return writeErr(tree.Root, err)
	}
	defer rc.Close()
	return w.copyEntries(rc)
}

// copyEntries appends every entry of the tar stream r.
func (w *Writer) copyEntries(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return writeErr("", err)
		}
		if err := w.tw.WriteHeader(hdr); err != nil {
			return writeErr(hdr.Name, err)
		}
		if _, err := io.Copy(w.tw, tr); err != nil {
			return writeErr(hdr.Name, err)
		}
	}
}

// WriteFile writes hostFile as the single entry containerPath.
func (w *Writer) WriteFile(hostFile, containerPath string) error {
	f, err := os.Open(hostFile)
	if err != nil {
		return writeErr(hostFile, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return writeErr(hostFile, err)
	}
	return w.file(containerPath, info.Mode(), info.ModTime(), info.Size(), f)
}

// WriteEmptyDir writes a single directory entry for containerPath.
func (w *Writer) WriteEmptyDir(containerPath string) error {
	return w.dir(containerPath, fs.ModeDir|0o755, time.Now())
}

func (w *Writer) dir(containerPath string, mode fs.FileMode, modTime time.Time) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     entryName(containerPath) + "/",
		Mode:     int64(mode.Perm()),
		ModTime:  modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return writeErr(containerPath, err)
	}
	return nil
}

func (w *Writer) file(containerPath string, mode fs.FileMode, modTime time.Time, size int64, r io.Reader) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     entryName(containerPath),
		Mode:     int64(mode.Perm()),
		ModTime:  modTime,
		Size:     size,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return writeErr(containerPath, err)
	}
	if _, err := io.CopyN(w.tw, r, size); err != nil {
		return writeErr(containerPath, err)
	}
	return nil
}

func entryName(containerPath string) string {
	return strings.TrimPrefix(path.Clean("/"+containerPath), "/")
}

// WriteTree writes a complete tar stream holding tree below containerBase.
func WriteTree(w io.Writer, tree cmdline.Tree, containerBase string) error {
	return single(w, func(tw *Writer) error { return tw.WriteTree(tree, containerBase) })
}

// WriteFile writes a complete tar stream holding hostFile as containerPath.
func WriteFile(w io.Writer, hostFile, containerPath string) error {
	return single(w, func(tw *Writer) error { return tw.WriteFile(hostFile, containerPath) })
}

// WriteEmptyDir writes a complete tar stream holding one directory entry.
func WriteEmptyDir(w io.Writer, containerPath string) error {
	return single(w, func(tw *Writer) error { return tw.WriteEmptyDir(containerPath) })
}

func single(w io.Writer, fn func(*Writer) error) error {
	tw := NewWriter(w)
	if err := fn(tw); err != nil {
		return err
	}
	return tw.Close()
}
