// SPDX-License-Identifier: MPL-2.0

package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrTransferFailed is the sentinel wrapped by every TransferError.
	ErrTransferFailed = errors.New("file transfer failed")
	// ErrEntryNotFound is returned by ExtractFile when the stream holds no regular file.
	ErrEntryNotFound = errors.New("no file entry in archive")
	// ErrUnsafePath is returned for entries that would be written outside the target directory.
	ErrUnsafePath = errors.New("archive entry escapes target directory")
)

// TransferError describes an archive read or write failure.
type TransferError struct {
	Op   string // "write" or "extract"
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns both the sentinel and the cause so either can be matched.
func (e *TransferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Err}
}

func writeErr(path string, err error) error {
	return &TransferError{Op: "write", Path: path, Err: err}
}

// asWriteErr keeps an existing TransferError and wraps anything else.
func asWriteErr(path string, err error) error {
	var te *TransferError
	if errors.As(err, &te) {
		return err
	}
	return writeErr(path, err)
}

func extractErr(path string, err error) error {
	return &TransferError{Op: "extract", Path: path, Err: err}
}
