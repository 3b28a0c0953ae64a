// SPDX-License-Identifier: MPL-2.0

package platform

// runtime.GOOS values that tool distributions are published for, or that
// need special handling.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
