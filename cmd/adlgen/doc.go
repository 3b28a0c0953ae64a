// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the adlgen CLI commands.
//
// The root command wires configuration, logging and the tool runtimes
// together through an App; generate runs the configured generations, dist
// manages cached tool distributions and config inspects the configuration.
package cmd
