// SPDX-License-Identifier: MPL-2.0

package cmdline

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/helix-collective/adlgen/internal/distribution"
)

type (
	// ContainerMapper places every mapped file at BaseDir/label inside a container.
	ContainerMapper struct {
		BaseDir string
	}

	// HostMapper maps files to absolute host paths. Archives used as
	// directories are expanded into temporary directories that Cleanup removes.
	HostMapper struct {
		tempRoot string
		expanded map[string]string
	}
)

// Path returns the container path for label.
func (m ContainerMapper) Path(label Label) string {
	return strings.TrimRight(m.BaseDir, "/") + "/" + string(label)
}

// MapFile implements PathMapper.
func (m ContainerMapper) MapFile(f MappedFile) (string, error) {
	return m.Path(f.Label), nil
}

// MapTree implements PathMapper.
func (m ContainerMapper) MapTree(t MappedFileTree) ([]string, error) {
	return []string{m.Path(t.Label)}, nil
}

// MapTreeElement implements PathMapper.
func (m ContainerMapper) MapTreeElement(t MappedFileTree, elem Element) (string, error) {
	return path.Join(m.Path(t.Label), elem.RelPath), nil
}

// NewHostMapper creates a HostMapper expanding archives below tempRoot.
// An empty tempRoot means the system temp directory.
func NewHostMapper(tempRoot string) *HostMapper {
	return &HostMapper{tempRoot: tempRoot, expanded: make(map[string]string)}
}

// MapFile implements PathMapper. A DIRECTORY whose host path is an archive
// maps to the root of its expanded contents, so entry paths stay relative to
// the mapped directory exactly as they are inside a container.
func (m *HostMapper) MapFile(f MappedFile) (string, error) {
	abs, err := filepath.Abs(f.HostPath)
	if err != nil {
		return "", err
	}
	if f.Kind != KindDirectory || !isArchiveFile(abs) {
		return abs, nil
	}

	return m.expand(abs)
}

// MapTree implements PathMapper.
func (m *HostMapper) MapTree(t MappedFileTree) ([]string, error) {
	base, err := m.treeBase(t.Tree)
	if err != nil {
		return nil, err
	}
	return []string{base}, nil
}

// MapTreeElement implements PathMapper.
func (m *HostMapper) MapTreeElement(t MappedFileTree, elem Element) (string, error) {
	base, err := m.treeBase(t.Tree)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.FromSlash(elem.RelPath)), nil
}

// Cleanup removes every directory created for expanded archives.
func (m *HostMapper) Cleanup() error {
	var errs []error
	for archive, dir := range m.expanded {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
		delete(m.expanded, archive)
	}
	return errors.Join(errs...)
}

func (m *HostMapper) treeBase(tree Tree) (string, error) {
	switch t := tree.(type) {
	case DirTree:
		return filepath.Abs(t.Root)
	case *DirTree:
		return filepath.Abs(t.Root)
	case ArchiveTree:
		return m.expandPath(t.Path)
	case *ArchiveTree:
		return m.expandPath(t.Path)
	default:
		return "", fmt.Errorf("tree type %T cannot be mapped to the host", tree)
	}
}

func (m *HostMapper) expandPath(archive string) (string, error) {
	abs, err := filepath.Abs(archive)
	if err != nil {
		return "", err
	}
	return m.expand(abs)
}

func (m *HostMapper) expand(archive string) (string, error) {
	if dir, ok := m.expanded[archive]; ok {
		return dir, nil
	}
	dir, err := os.MkdirTemp(m.tempRoot, "adlgen-expand-")
	if err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", archive, err)
	}
	if err := distribution.Unpack(archive, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", fmt.Errorf("expanding %s: %w", archive, err)
	}
	m.expanded[archive] = dir
	return dir, nil
}

func isArchiveFile(p string) bool {
	if !distribution.IsArchive(p) {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
