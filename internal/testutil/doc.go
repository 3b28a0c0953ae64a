// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: filesystem
// fixtures, environment overrides, a recording tool logger, and gating for
// tests that need a Docker engine.
package testutil
