// SPDX-License-Identifier: MPL-2.0

// Package runtime runs a code-generation tool on a platform.
//
// NativeRuntime starts the tool as a host process from a resolved host
// distribution. ContainerRuntime runs it in a throwaway Docker container,
// copying mapped inputs in and outputs back out as tar streams. The
// Orchestrator picks one of them once per invocation: AUTO prefers a native
// distribution and falls back to Docker only when none exists for the host.
//
// Both runtimes log tool output line by line through a console.ToolLogger,
// stdout at info and stderr at error, and report failures as *ExecutionError.
package runtime
