// SPDX-License-Identifier: MPL-2.0

// Package generate runs every configured ADL generation through the
// platform orchestrator, one after another, and turns failures into
// actionable errors.
package generate
