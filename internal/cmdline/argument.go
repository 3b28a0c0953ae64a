// SPDX-License-Identifier: MPL-2.0

package cmdline

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// ModeInput marks files the tool reads.
	ModeInput TransferMode = "input"
	// ModeOutput marks files the tool writes.
	ModeOutput TransferMode = "output"
	// ModeInputOutput marks files the tool both reads and writes.
	ModeInputOutput TransferMode = "input-output"

	// KindDirectory is a directory, or an archive treated as one.
	KindDirectory FileKind = "directory"
	// KindSingleFile is a single regular file.
	KindSingleFile FileKind = "single-file"
)

var (
	// ErrInvalidLabel is the sentinel wrapped by InvalidLabelError.
	ErrInvalidLabel = errors.New("invalid label")
	// ErrDuplicateLabel is returned when a label is used twice in one command line.
	ErrDuplicateLabel = errors.New("duplicate label")

	labelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

type (
	// TransferMode says which direction a mapped file travels.
	TransferMode string

	// FileKind says whether a mapped file is a directory or a single file.
	FileKind string

	// Label names a mapped file and doubles as its path segment inside the
	// execution environment.
	Label string

	// InvalidLabelError is returned when a Label cannot be used as a path segment.
	InvalidLabelError struct {
		Value Label
	}

	// RenderFunc turns a mapped path into the argument text, e.g. "--outputdir=" + path.
	RenderFunc func(path string) string

	// Argument is one element of a CommandLine: StringArgument, MappedFile
	// or MappedFileTree.
	Argument interface {
		isArgument()
	}

	// StringArgument is passed to the tool verbatim.
	StringArgument struct {
		Value string
	}

	// MappedFile references one host file or directory.
	MappedFile struct {
		Label    Label
		HostPath string
		Mode     TransferMode
		Kind     FileKind
		Render   RenderFunc
	}

	// MappedFileTree references a tree of host files, expanded into zero or
	// more arguments by its Strategy.
	MappedFileTree struct {
		Label    Label
		Tree     Tree
		Strategy TreeStrategy
	}
)

func (StringArgument) isArgument() {}
func (MappedFile) isArgument()     {}
func (MappedFileTree) isArgument() {}

// IsInput reports whether content is copied towards the tool before it runs.
func (m TransferMode) IsInput() bool {
	return m == ModeInput || m == ModeInputOutput
}

// IsOutput reports whether content is copied back after the tool succeeds.
func (m TransferMode) IsOutput() bool {
	return m == ModeOutput || m == ModeInputOutput
}

// Validate returns an error if m is not a known mode.
func (m TransferMode) Validate() error {
	switch m {
	case ModeInput, ModeOutput, ModeInputOutput:
		return nil
	default:
		return fmt.Errorf("unknown transfer mode %q", string(m))
	}
}

// Validate returns an error if k is not a known kind.
func (k FileKind) Validate() error {
	switch k {
	case KindDirectory, KindSingleFile:
		return nil
	default:
		return fmt.Errorf("unknown file kind %q", string(k))
	}
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid label %q: must be a single path segment of letters, digits, '.', '_' or '-'", string(e.Value))
}

func (e *InvalidLabelError) Unwrap() error { return ErrInvalidLabel }

// Validate returns an *InvalidLabelError if l is not a usable path segment.
func (l Label) Validate() error {
	if !labelPattern.MatchString(string(l)) || l == "." || l == ".." {
		return &InvalidLabelError{Value: l}
	}
	return nil
}

// String returns the label text.
func (l Label) String() string { return string(l) }

// Text returns the argument text for a file mapped to path.
func (f MappedFile) Text(path string) string {
	if f.Render == nil {
		return path
	}
	return f.Render(path)
}

// Prefixed returns a RenderFunc that prepends prefix to the mapped path.
func Prefixed(prefix string) RenderFunc {
	return func(path string) string { return prefix + path }
}
