// SPDX-License-Identifier: MPL-2.0

// Package cmdline models a tool command line independently of where the tool
// runs. Arguments are plain strings or references to host files and file
// trees; a PathMapper turns those references into paths that make sense in
// the execution environment (the host itself, or a container filesystem).
package cmdline
