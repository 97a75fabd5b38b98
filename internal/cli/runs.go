package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/emtab/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Store string
}

// NewRunsCommand creates the runs command, which lists compilations recorded
// with `compile --store`.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recorded compilation runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "emtab.db", "run store database path")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.Open(opts.Store)
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer s.Close()

	runs, err := s.ListRuns()
	if err != nil {
		return formatter.Failure(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(runs, nil)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s  %s  %d bytes\n",
			run.ID, run.Model, run.CreatedAt.Format(time.RFC3339), run.Size)
	}
	return nil
}
