// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"errors"
	"fmt"
)

var (
	// ErrDistributionNotFound is the sentinel error wrapped by NotFoundError.
	ErrDistributionNotFound = errors.New("distribution not found")

	// ErrUnsupportedArchive is the sentinel error wrapped by UnsupportedArchiveError.
	ErrUnsupportedArchive = errors.New("unsupported archive type")
)

type (
	// NotFoundError is returned when no distribution exists for the requested
	// version, OS and architecture. It is never retried.
	NotFoundError struct {
		Tool   string
		Spec   Specifier
		Reason string
	}

	// UnsupportedArchiveError is returned when a distribution archive has an
	// extension other than .zip or .tar.
	UnsupportedArchiveError struct {
		Path string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s distribution %s not found", e.Tool, e.Spec)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns ErrDistributionNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrDistributionNotFound }

// Error implements the error interface.
func (e *UnsupportedArchiveError) Error() string {
	return fmt.Sprintf("unsupported distribution archive type: %s", e.Path)
}

// Unwrap returns ErrUnsupportedArchive for errors.Is() compatibility.
func (e *UnsupportedArchiveError) Unwrap() error { return ErrUnsupportedArchive }

// IsNotFound reports whether err is, or wraps, a distribution-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDistributionNotFound)
}
