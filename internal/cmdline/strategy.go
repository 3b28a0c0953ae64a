// SPDX-License-Identifier: MPL-2.0

package cmdline

var (
	// EachFile emits one argument per regular file of the tree.
	EachFile TreeStrategy = eachFile{}
	// BaseDir emits one argument per tree base directory and nothing per file.
	BaseDir TreeStrategy = baseDir{}
)

type (
	// TreeStrategy decides which arguments a MappedFileTree contributes.
	// FromTree is called once with the mapped base directories, then
	// FromElement once per element with its mapped path.
	TreeStrategy interface {
		FromTree(bases []string) []string
		FromElement(elem Element, path string) []string
	}

	eachFile struct{}
	baseDir  struct{}
)

func (eachFile) FromTree([]string) []string { return nil }

func (eachFile) FromElement(elem Element, path string) []string {
	if elem.IsDir {
		return nil
	}
	return []string{path}
}

func (baseDir) FromTree(bases []string) []string { return bases }

func (baseDir) FromElement(Element, string) []string { return nil }
