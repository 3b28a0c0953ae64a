// SPDX-License-Identifier: MPL-2.0

// Package distribution resolves, downloads and caches versioned, OS and
// architecture specific tool distributions (the ADL compiler and hx-adl).
//
// The package is organized into four concerns:
//   - specifier.go: the Specifier identity (version, os, arch) and its normalisation
//   - release.go: HTTP client for release asset downloads
//   - service.go: Service, which maps a Specifier to a cached archive and an unpacked install directory
//   - unpack.go: zip and tar extraction into a staging directory
//
// Unpacked distributions appear atomically: they are extracted into a
// temporary sibling directory of the cache root and renamed into place, so a
// concurrent invocation never observes a partially installed distribution.
package distribution
