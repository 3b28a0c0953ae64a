// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/distribution"
)

// Orchestrator chooses a platform for each invocation and runs it there.
type Orchestrator struct {
	registry *Registry
	logger   console.ToolLogger
}

// NewOrchestrator creates an Orchestrator over the runtimes in registry.
func NewOrchestrator(registry *Registry, logger console.ToolLogger) *Orchestrator {
	return &Orchestrator{registry: registry, logger: logger}
}

// Select resolves PlatformAuto to a concrete platform. AUTO tries to resolve
// a distribution for the exact host os and arch: success selects NATIVE, a
// not-found result selects DOCKER and any other failure is returned.
func (o *Orchestrator) Select(ctx context.Context, requested Platform, tool *Tool, version string) (Platform, error) {
	if err := requested.Validate(); err != nil {
		return "", err
	}
	if requested != "" && requested != PlatformAuto {
		return requested, nil
	}

	_, err := tool.Distribution.ResolveDistribution(ctx, distribution.HostSpecifier(version))
	switch {
	case err == nil:
		return PlatformNative, nil
	case distribution.IsNotFound(err):
		slog.Debug("no native distribution for host", "tool", tool.Name, "version", version, "reason", err)
		return PlatformDocker, nil
	default:
		return "", fmt.Errorf("resolving native %s distribution: %w", tool.Name, err)
	}
}

// Run selects a platform and executes the invocation on it. A failure on
// the selected platform is returned as is; no other platform is tried.
func (o *Orchestrator) Run(ctx context.Context, requested Platform, ex *ExecutionContext) error {
	if err := ex.Validate(); err != nil {
		return err
	}

	platform, err := o.Select(ctx, requested, ex.Tool, ex.Version)
	if err != nil {
		return err
	}
	o.logger.Info(ex.Tool.Name, "Selected tool platform: "+platform.String())

	rt, err := o.registry.Get(platform)
	if err != nil {
		return err
	}
	return rt.Execute(ctx, ex)
}
