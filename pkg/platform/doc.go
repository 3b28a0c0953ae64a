// SPDX-License-Identifier: MPL-2.0

// Package platform holds the operating system names adlgen compares
// runtime.GOOS and user-supplied target names against.
package platform
