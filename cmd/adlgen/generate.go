// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/helix-collective/adlgen/internal/adl"
	"github.com/helix-collective/adlgen/internal/app/generate"
	"github.com/helix-collective/adlgen/internal/config"
	"github.com/helix-collective/adlgen/internal/console"
	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
	"github.com/helix-collective/adlgen/internal/issue"
	"github.com/helix-collective/adlgen/internal/runtime"

	"github.com/spf13/cobra"
)

type generateFlags struct {
	platform       string
	imageBuildMode string
}

func newGenerateCommand(app *App) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run every configured generation",
		Long: `Run every configured generation.

Generations run in the order java, java_tables, typescript, javascript,
sql, and in file order within a kind. The first failure stops the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.platform, "platform", "", "where tools run: auto, native or docker (default from config)")
	cmd.Flags().StringVar(&flags.imageBuildMode, "image-build-mode", "", "tool image reuse: use-existing, discard-local or rebuild (default from config)")
	return cmd
}

func runGenerate(ctx context.Context, app *App, flags generateFlags) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return reportFailure(app.stderr, err, app.verbose)
	}
	if flags.platform != "" {
		cfg.Platform = flags.platform
	}
	if flags.imageBuildMode != "" {
		cfg.Docker.ImageBuildMode = flags.imageBuildMode
	}

	verbose := app.verbose || (cfg.UI.Verbose && !app.quiet)
	quiet := app.quiet || (cfg.UI.Quiet && !app.verbose)
	logger := newLogger(app.stderr, logLevel(verbose, quiet))

	svc, req, err := app.generateService(cfg, console.NewCharmLogger(logger))
	if err != nil {
		ec := issue.NewErrorContext().WithOperation("prepare generation")
		if errors.Is(err, runtime.ErrInvalidPlatform) {
			ec = ec.WithIssue(issue.InvalidPlatformId).WithSuggestion("Use --platform auto, native or docker")
		}
		return reportFailure(app.stderr, ec.Wrap(err).BuildError(), verbose)
	}
	if len(req.Generations) == 0 {
		logger.Warn("no generations configured")
		return nil
	}

	if err := svc.Run(ctx, req); err != nil {
		return reportFailure(app.stderr, err, verbose)
	}
	slog.Debug("generations complete", "count", len(req.Generations))
	return nil
}

// generateService builds the runtimes for cfg and the request running
// its generations.
func (a *App) generateService(cfg *config.Config, toolLog console.ToolLogger) (*generate.Service, generate.Request, error) {
	platform, err := runtime.ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, generate.Request{}, err
	}
	mode, err := container.ParseImageBuildMode(cfg.Docker.ImageBuildMode)
	if err != nil {
		return nil, generate.Request{}, err
	}
	charset, err := console.LookupCharset(cfg.Charset)
	if err != nil {
		return nil, generate.Request{}, err
	}

	clientCfg := container.ClientConfig{
		Host:             cfg.Docker.Host,
		TLSVerify:        cfg.Docker.TLSVerify,
		CertPath:         cfg.Docker.CertPath,
		APIVersion:       cfg.Docker.APIVersion,
		RegistryURL:      cfg.Docker.RegistryURL,
		RegistryUsername: cfg.Docker.RegistryUsername,
		RegistryPassword: cfg.Docker.RegistryPassword,
	}
	connect := func(ctx context.Context) (container.Engine, error) {
		return a.Engines(ctx, clientCfg)
	}

	registry := runtime.NewRegistry()
	registry.Register(runtime.NewNativeRuntime(toolLog,
		runtime.WithCharset(charset),
		runtime.WithNativeTimeout(cfg.Native.Timeout),
	))
	registry.Register(runtime.NewContainerRuntime(toolLog, connect, runtime.ContainerOptions{
		BuildMode:        mode,
		PullTimeout:      cfg.Docker.PullTimeout,
		BuildTimeout:     cfg.Docker.BuildTimeout,
		ContainerTimeout: cfg.Docker.ContainerTimeout,
		Charset:          charset,
		GeneratorVersion: Version,
	}))

	svc := generate.NewService(
		runtime.NewOrchestrator(registry, toolLog),
		adl.NewADLTool(a.distributionService(cfg, distribution.ADL)),
		adl.NewHxADLTool(a.distributionService(cfg, distribution.HxADL)),
	)
	req := generate.Request{
		Platform:     platform,
		Sources:      cfg.Sources(),
		ADLVersion:   cfg.ADL.Version,
		HxADLVersion: cfg.HxADL.Version,
		Generations:  cfg.Generations.List(),
	}
	return svc, req, nil
}
