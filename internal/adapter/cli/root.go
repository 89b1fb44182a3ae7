// Package cli wires the worker's commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chatagent/code-analyzer/internal/adapter/store/sqlite"
)

// ErrVersionRequested indicates the user requested the version and no further
// work should be done.
var ErrVersionRequested = errors.New("version requested")

// Runner is the long-lived worker loop behind the serve command.
type Runner interface {
	Run(ctx context.Context) error
}

// RunHistory reads back processed runs. Nil when the store is disabled.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner  Runner
	History RunHistory
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "analyzer",
		Short: "Asynchronous code analysis worker",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(serveCommand(deps.Runner))
	root.AddCommand(runsCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func serveCommand(runner Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume analysis requests from the queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return errors.New("worker is not configured")
			}
			return runner.Run(cmd.Context())
		},
	}
}

func runsCommand(history RunHistory) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent analysis runs from the local history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return errors.New("run history is disabled; enable the store in configuration")
			}
			runs, err := history.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, r := range runs {
				status := "failed"
				if r.Posted {
					status = "posted"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-14s %-30s files=%d %s (%s)\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Provider, r.Mode,
					r.Repository, r.FilesAnalyzed, status, r.Duration)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}
