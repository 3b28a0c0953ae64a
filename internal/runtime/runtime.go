// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/helix-collective/adlgen/internal/cmdline"
)

type (
	// ExecutionContext is one tool invocation.
	ExecutionContext struct {
		Tool        *Tool
		Version     string
		CommandLine *cmdline.CommandLine
	}

	// Runtime runs a tool invocation on one platform.
	Runtime interface {
		// Platform returns the platform this runtime runs tools on.
		Platform() Platform
		// Execute runs the invocation. Tool output is logged before any
		// error is returned.
		Execute(ctx context.Context, exec *ExecutionContext) error
	}

	// Registry holds the runtime for each concrete platform.
	Registry struct {
		runtimes map[Platform]Runtime
	}
)

// Validate checks that the invocation is complete.
func (e *ExecutionContext) Validate() error {
	if e.Tool == nil {
		return errors.New("execution has no tool")
	}
	if err := e.Tool.Validate(); err != nil {
		return err
	}
	if e.Version == "" {
		return fmt.Errorf("%s: version is empty", e.Tool.Name)
	}
	if e.CommandLine == nil {
		return fmt.Errorf("%s: command line is nil", e.Tool.Name)
	}
	return e.CommandLine.Err()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[Platform]Runtime)}
}

// Register adds rt under its platform, replacing any previous runtime.
func (r *Registry) Register(rt Runtime) {
	r.runtimes[rt.Platform()] = rt
}

// Get returns the runtime registered for p.
func (r *Registry) Get(p Platform) (Runtime, error) {
	rt, ok := r.runtimes[p]
	if !ok {
		return nil, fmt.Errorf("no runtime registered for platform %s", p)
	}
	return rt, nil
}
