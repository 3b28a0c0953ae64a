// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/helix-collective/adlgen/internal/adl"
	"github.com/helix-collective/adlgen/internal/config"
	"github.com/helix-collective/adlgen/internal/distribution"
	"github.com/helix-collective/adlgen/internal/issue"
	"github.com/helix-collective/adlgen/internal/runtime"

	"github.com/spf13/cobra"
)

type distFlags struct {
	tool    string
	version string
	os      string
	arch    string
}

func newDistCommand(app *App) *cobra.Command {
	distCmd := &cobra.Command{
		Use:   "dist",
		Short: "Manage cached tool distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var flags distFlags
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and unpack a tool distribution",
		Long: `Download and unpack a tool distribution into the cache directory and
print the directory. An already installed distribution is not downloaded again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchDistribution(cmd.Context(), app, flags)
		},
	}
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the executable path of an installed tool distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDistributionPath(cmd.Context(), app, flags)
		},
	}

	for _, c := range []*cobra.Command{fetchCmd, pathCmd} {
		c.Flags().StringVar(&flags.tool, "tool", "adl", "tool to resolve: adl or hxadl")
		c.Flags().StringVar(&flags.version, "version", "", "tool version (default from config)")
		c.Flags().StringVar(&flags.os, "os", "", "target operating system (default this machine)")
		c.Flags().StringVar(&flags.arch, "arch", "", "target architecture (default this machine)")
		distCmd.AddCommand(c)
	}
	return distCmd
}

// distTarget is the tool and specifier a dist command operates on.
type distTarget struct {
	tool *runtime.Tool
	spec distribution.Specifier
}

func (a *App) resolveDistTarget(cfg *config.Config, flags distFlags) (distTarget, error) {
	var (
		tool    *runtime.Tool
		version string
	)
	switch strings.ToLower(flags.tool) {
	case "adl", "adlc":
		tool = adl.NewADLTool(a.distributionService(cfg, distribution.ADL))
		version = cfg.ADL.Version
	case "hxadl", "hx-adl":
		tool = adl.NewHxADLTool(a.distributionService(cfg, distribution.HxADL))
		version = cfg.HxADL.Version
	default:
		return distTarget{}, fmt.Errorf("unknown tool %q (valid: adl, hxadl)", flags.tool)
	}
	if flags.version != "" {
		version = flags.version
	}

	targetOS, targetArch := flags.os, flags.arch
	if targetOS == "" {
		targetOS = goruntime.GOOS
	}
	if targetArch == "" {
		targetArch = goruntime.GOARCH
	}
	spec := distribution.NewSpecifier(version, targetArch, targetOS)
	if err := spec.Validate(); err != nil {
		return distTarget{}, err
	}
	return distTarget{tool: tool, spec: spec}, nil
}

func fetchDistribution(ctx context.Context, app *App, flags distFlags) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return reportFailure(app.stderr, err, app.verbose)
	}
	newLogger(app.stderr, logLevel(app.verbose, app.quiet))

	target, err := app.resolveDistTarget(cfg, flags)
	if err != nil {
		return err
	}
	dir, err := target.tool.Distribution.ResolveDistribution(ctx, target.spec)
	if err != nil {
		ec := issue.NewErrorContext().
			WithOperation("fetch distribution").
			WithResource(target.tool.Name + " " + target.spec.String())
		if distribution.IsNotFound(err) {
			ec = ec.WithIssue(issue.DistributionNotFoundId)
		}
		return reportFailure(app.stderr, ec.Wrap(err).BuildError(), app.verbose)
	}
	_, err = fmt.Fprintln(app.stdout, dir)
	return err
}

func printDistributionPath(ctx context.Context, app *App, flags distFlags) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return reportFailure(app.stderr, err, app.verbose)
	}

	target, err := app.resolveDistTarget(cfg, flags)
	if err != nil {
		return err
	}
	dir := target.tool.Distribution.InstallDir(target.spec)
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return fmt.Errorf("%s %s is not installed in %s; run 'adlgen dist fetch' first",
			target.tool.Name, target.spec, cfg.CacheDir)
	}
	_, err = fmt.Fprintln(app.stdout, target.tool.Executable.Resolve(dir, target.spec))
	return err
}
