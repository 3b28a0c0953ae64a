// SPDX-License-Identifier: MPL-2.0

// Package console captures and replays the console output of wrapped tools.
//
// LineDecoder turns a byte stream into text lines as it arrives. Recorder
// buffers interleaved stdout and stderr chunks in arrival order so that
// container output can be logged after the run without interleaving with
// other invocations. ToolLogger is the sink both feed.
package console
