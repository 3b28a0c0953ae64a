// SPDX-License-Identifier: MPL-2.0

package distribution

import (
	"errors"
	"fmt"
	goruntime "runtime"
	"strings"

	"github.com/helix-collective/adlgen/pkg/platform"
)

const (
	// OSLinux is the Linux OS family.
	OSLinux OS = "linux"
	// OSMac is the macOS family. Release classifiers name it "osx".
	OSMac OS = "osx"
	// OSWindows is the Windows OS family.
	OSWindows OS = "windows"

	// ArchAMD64 is the 64-bit x86 architecture.
	ArchAMD64 Arch = "amd64"
	// ArchARM64 is the 64-bit ARM architecture.
	ArchARM64 Arch = "arm64"
)

// ErrInvalidSpecifier is the sentinel error wrapped by InvalidSpecifierError.
var ErrInvalidSpecifier = errors.New("invalid distribution specifier")

type (
	// OS is a normalised operating system family name.
	OS string

	// Arch is a normalised, lower-case architecture name.
	Arch string

	// Specifier identifies one tool build: a version for an OS and architecture.
	// It is comparable and used as a cache key.
	Specifier struct {
		Version string
		Arch    Arch
		OS      OS
	}

	// InvalidSpecifierError is returned when a Specifier cannot name a distribution.
	InvalidSpecifierError struct {
		Value  Specifier
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidSpecifierError) Error() string {
	return fmt.Sprintf("invalid distribution specifier %s: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidSpecifier for errors.Is() compatibility.
func (e *InvalidSpecifierError) Unwrap() error { return ErrInvalidSpecifier }

// NormalizeOS maps an operating system name to its family.
// "darwin", "macos" and "mac os x" become "osx"; anything starting with
// "windows" becomes "windows". Unknown names are lower-cased and kept.
func NormalizeOS(name string) OS {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == platform.Darwin, n == "macos", n == "mac os x", n == "osx", n == "mac":
		return OSMac
	case strings.HasPrefix(n, platform.Windows):
		return OSWindows
	case n == platform.Linux:
		return OSLinux
	default:
		return OS(n)
	}
}

// NormalizeArch lower-cases an architecture name and folds the x86_64
// aliases into "amd64".
func NormalizeArch(name string) Arch {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "x86_64", "x86-64", "x64", "amd64":
		return ArchAMD64
	case "aarch64", "arm64":
		return ArchARM64
	default:
		return Arch(n)
	}
}

// NewSpecifier creates a Specifier with normalised OS and architecture names.
func NewSpecifier(version, arch, os string) Specifier {
	return Specifier{
		Version: strings.TrimSpace(version),
		Arch:    NormalizeArch(arch),
		OS:      NormalizeOS(os),
	}
}

// HostSpecifier returns the Specifier for the given version on the current host.
func HostSpecifier(version string) Specifier {
	return NewSpecifier(version, goruntime.GOARCH, goruntime.GOOS)
}

// LinuxSpecifier returns the Specifier used inside containers, which always
// run linux/amd64 images.
func LinuxSpecifier(version string) Specifier {
	return Specifier{Version: strings.TrimSpace(version), Arch: ArchAMD64, OS: OSLinux}
}

// IsWindows reports whether the Specifier targets Windows.
func (s Specifier) IsWindows() bool {
	return s.OS == OSWindows
}

// String returns "version-os-arch".
func (s Specifier) String() string {
	return fmt.Sprintf("%s-%s-%s", s.Version, s.OS, s.Arch)
}

// Validate returns an error if the Specifier has no version or if any field
// contains path separators, which would break cache directory naming.
func (s Specifier) Validate() error {
	if s.Version == "" {
		return &InvalidSpecifierError{Value: s, Reason: "version must not be empty"}
	}
	for _, field := range []string{s.Version, string(s.OS), string(s.Arch)} {
		if strings.ContainsAny(field, `/\`) || strings.Contains(field, "..") {
			return &InvalidSpecifierError{Value: s, Reason: fmt.Sprintf("%q contains path characters", field)}
		}
	}
	if s.OS == "" || s.Arch == "" {
		return &InvalidSpecifierError{Value: s, Reason: "os and arch must not be empty"}
	}
	return nil
}
