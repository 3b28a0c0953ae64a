// SPDX-License-Identifier: MPL-2.0

// Package adl describes the ADL code-generation targets and the tools
// that produce them, and turns each target into an environment-neutral
// command line.
package adl
