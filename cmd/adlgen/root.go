// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the adlgen command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "adlgen",
		Short: "Generate code from ADL models",
		Long: TitleStyle.Render("adlgen") + SubtitleStyle.Render(" - generate code from ADL models") + `

adlgen runs the ADL compiler (adlc) and the Helix ADL tools (hx-adl) for
every generation in the configuration. Tools run natively when a binary
distribution exists for this machine, otherwise in a Docker container.

` + SubtitleStyle.Render("Examples:") + `
  adlgen generate                      Run every configured generation
  adlgen generate --platform docker    Force Docker execution
  adlgen dist fetch --version 1.1      Download the adlc distribution
  adlgen config show                   Show the effective configuration`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is {config dir}/adlgen/config.cue, then ./adlgen.cue)")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log debug messages")
	root.PersistentFlags().BoolVarP(&app.quiet, "quiet", "q", false, "only log warnings and errors")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(newGenerateCommand(app))
	root.AddCommand(newDistCommand(app))
	root.AddCommand(newConfigCommand(app))
	root.AddCommand(newVersionCommand(app))
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the resulting status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// handleError leaves failures that a command already reported alone.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
