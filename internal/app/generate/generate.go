// SPDX-License-Identifier: MPL-2.0

package generate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/helix-collective/adlgen/internal/adl"
	"github.com/helix-collective/adlgen/internal/cmdline"
	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
	"github.com/helix-collective/adlgen/internal/issue"
	"github.com/helix-collective/adlgen/internal/runtime"
	"github.com/helix-collective/adlgen/internal/transfer"
)

type (
	// Runner executes one tool invocation. *runtime.Orchestrator implements it.
	Runner interface {
		Run(ctx context.Context, requested runtime.Platform, ex *runtime.ExecutionContext) error
	}

	// Request is one adlgen generate invocation.
	Request struct {
		Platform     runtime.Platform
		Sources      adl.Sources
		ADLVersion   string
		HxADLVersion string
		Generations  []adl.Generation
	}

	// Service runs generations with the ADL and hx-adl tools.
	Service struct {
		runner Runner
		adl    *runtime.Tool
		hxADL  *runtime.Tool
	}
)

// NewService creates a Service.
func NewService(runner Runner, adlTool, hxADLTool *runtime.Tool) *Service {
	return &Service{runner: runner, adl: adlTool, hxADL: hxADLTool}
}

// invocation is one generation with its built command line.
type invocation struct {
	gen adl.Generation
	cl  *cmdline.CommandLine
}

// Run executes the generations of req in kind order, keeping the
// configured order within a kind, and stops at the first failure. Every
// command line is built before the first tool runs, so an invalid or
// unsupported generation fails the run without partial output.
func (s *Service) Run(ctx context.Context, req Request) error {
	ordered := Ordered(req.Generations)
	invocations := make([]invocation, 0, len(ordered))
	for _, g := range ordered {
		cl, err := adl.CommandLine(req.Sources, g)
		if err != nil {
			return generationError(g, err)
		}
		invocations = append(invocations, invocation{gen: g, cl: cl})
	}

	for _, inv := range invocations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runOne(ctx, req, inv); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) runOne(ctx context.Context, req Request, inv invocation) error {
	tool := adl.ToolFor(inv.gen, s.adl, s.hxADL)
	version := req.ADLVersion
	if tool == s.hxADL {
		version = req.HxADLVersion
	}

	err := s.runner.Run(ctx, req.Platform, &runtime.ExecutionContext{Tool: tool, Version: version, CommandLine: inv.cl})
	if err == nil {
		return nil
	}
	return generationError(inv.gen, err)
}

func generationError(g adl.Generation, err error) error {
	return issue.NewErrorContext().
		WithOperation(fmt.Sprintf("generate %s", g.Kind())).
		WithResource(g.Output()).
		WithIssue(Classify(err)).
		Wrap(err).
		BuildError()
}

// Ordered returns generations sorted by kind, stable within a kind.
func Ordered(gens []adl.Generation) []adl.Generation {
	kinds := adl.Kinds()
	out := slices.Clone(gens)
	slices.SortStableFunc(out, func(a, b adl.Generation) int {
		return slices.Index(kinds, a.Kind()) - slices.Index(kinds, b.Kind())
	})
	return out
}

// Classify picks the catalog entry shown for a failed generation.
func Classify(err error) issue.Id {
	switch {
	case errors.Is(err, adl.ErrUnsupportedGeneration):
		return issue.UnsupportedGenerationId
	case errors.Is(err, distribution.ErrDistributionNotFound):
		return issue.DistributionNotFoundId
	case errors.Is(err, runtime.ErrInvalidPlatform):
		return issue.InvalidPlatformId
	case errors.Is(err, transfer.ErrTransferFailed):
		return issue.TransferFailedId
	case errors.Is(err, container.ErrEngineUnavailable):
		return issue.DockerNotAvailableId
	case errors.Is(err, container.ErrImageUnavailable):
		return issue.ImagePrepareFailedId
	default:
		return issue.ToolExecutionFailedId
	}
}
