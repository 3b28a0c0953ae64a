// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/helix-collective/adlgen/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `adlgen config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage adlgen configuration",
		Long: `Manage adlgen configuration.

Configuration is read from the --config file, or else from:
  - Linux: ~/.config/adlgen/config.cue
  - macOS: ~/Library/Application Support/adlgen/config.cue
  - Windows: %APPDATA%\adlgen\config.cue
  - ./adlgen.cue when none of the above exists`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a default configuration file",
		Long: `Create a default configuration file at path, or in the configuration
directory when no path is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return initConfig(app.stdout, path, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		return reportFailure(app.stderr, err, app.verbose)
	}

	source := SubtitleStyle.Render("(using defaults)")
	if path, pathErr := config.ResolvePath(app.loadOptions()); pathErr == nil && path != "" {
		source = path
	}
	fmt.Fprintf(app.stderr, "%s: %s\n\n", KeyStyle.Render("Config file"), source)

	_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return err
}

func initConfig(w io.Writer, path string, force bool) error {
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if err := config.WriteFile(path, config.DefaultConfig(), force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%w; use --force to overwrite it", err)
		}
		return err
	}
	_, err := fmt.Fprintln(w, SuccessStyle.Render("Created ")+path)
	return err
}
