// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PlatformAuto runs natively when a host distribution exists, otherwise in Docker.
	PlatformAuto Platform = "auto"
	// PlatformNative runs the tool as a host process.
	PlatformNative Platform = "native"
	// PlatformDocker runs the tool in a Docker container.
	PlatformDocker Platform = "docker"
)

// ErrInvalidPlatform is the sentinel wrapped by InvalidPlatformError.
var ErrInvalidPlatform = errors.New("invalid platform")

type (
	// Platform selects where a tool runs.
	Platform string

	// InvalidPlatformError is returned for an unknown platform name.
	InvalidPlatformError struct {
		Value Platform
	}
)

func (e *InvalidPlatformError) Error() string {
	return fmt.Sprintf("invalid platform %q (valid: auto, native, docker)", string(e.Value))
}

func (e *InvalidPlatformError) Unwrap() error { return ErrInvalidPlatform }

// Validate returns an error if p is not a known platform. The empty value means auto.
func (p Platform) Validate() error {
	switch p {
	case "", PlatformAuto, PlatformNative, PlatformDocker:
		return nil
	default:
		return &InvalidPlatformError{Value: p}
	}
}

// String returns the upper-case platform name used in log messages.
func (p Platform) String() string {
	if p == "" {
		p = PlatformAuto
	}
	return strings.ToUpper(string(p))
}

// ParsePlatform accepts platform names case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p == "" {
		return PlatformAuto, nil
	}
	return p, nil
}
