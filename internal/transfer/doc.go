// SPDX-License-Identifier: MPL-2.0

// Package transfer encodes host files as tar streams for copying into a
// container and decodes the tar streams a container returns onto the host.
package transfer
