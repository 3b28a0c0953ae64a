// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/helix-collective/adlgen/internal/config"
	"github.com/helix-collective/adlgen/internal/container"
	"github.com/helix-collective/adlgen/internal/distribution"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EngineConnector connects to a container engine.
	EngineConnector func(ctx context.Context, cfg container.ClientConfig) (container.Engine, error)

	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and reads its collaborators from it.
	App struct {
		Config  ConfigProvider
		Engines EngineConnector
		// Release configures the HTTP client distributions are downloaded with.
		Release []distribution.ClientOption
		stdout  io.Writer
		stderr  io.Writer

		// Root flags, bound by NewRootCommand.
		configPath string
		verbose    bool
		quiet      bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Engines EngineConnector
		Release []distribution.ClientOption
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Engines == nil {
		deps.Engines = connectDocker
	}
	if deps.Release == nil {
		deps.Release = defaultReleaseOptions()
	}

	return &App{
		Config:  deps.Config,
		Engines: deps.Engines,
		Release: deps.Release,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.configPath}
}

func connectDocker(ctx context.Context, cfg container.ClientConfig) (container.Engine, error) {
	return container.NewDockerEngine(ctx, cfg)
}

// defaultReleaseOptions authenticates GitHub downloads with GITHUB_TOKEN
// when it is set.
func defaultReleaseOptions() []distribution.ClientOption {
	opts := []distribution.ClientOption{distribution.WithUserAgent("adlgen/" + Version)}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts = append(opts, distribution.WithToken(token))
	}
	return opts
}

func (a *App) distributionService(cfg *config.Config, tool distribution.Tool) *distribution.Service {
	client := distribution.NewReleaseClient(a.Release...)
	return distribution.NewService(tool, cfg.CacheDir, distribution.WithReleaseClient(client))
}
