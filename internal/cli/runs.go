package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/kaks/internal/ledger"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Ledger string
	RunID  string // optional - show the steps of one run
}

// RunDetail is one run with its steps.
type RunDetail struct {
	Run   ledger.Run    `json:"run"`
	Steps []ledger.Step `json:"steps"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded in a ledger, or the steps of one run.

Steps are listed in the order they were recorded: one align step per pair,
then one estimate step per pair.

Examples:
  kaks runs --ledger runs.db
  kaks runs --ledger runs.db --run 01925f3e-8a3c-7b2e-9d4f-6a1b2c3d4e5f
  kaks runs --ledger runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to the ledger database (required)")
	_ = cmd.MarkFlagRequired("ledger")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the steps of this run")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}

	st, err := ledger.Open(opts.Ledger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		return showRun(ctx, st, opts, out)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return out.Success(runs, "")
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "No runs recorded")
		return nil
	}
	return writeRunTable(out.Writer, runs)
}

func showRun(ctx context.Context, st *ledger.Store, opts *RunsOptions, out *OutputFormatter) error {
	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, ledger.ErrRunNotFound) {
		_ = out.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		return &ExitError{Code: ExitCommandError, Err: err, Reported: true}
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read run", err)
	}

	steps, err := st.RunSteps(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read steps", err)
	}
	if opts.Format == "json" {
		return out.Success(RunDetail{Run: run, Steps: steps}, run.ID)
	}

	w := out.Writer
	fmt.Fprintf(w, "Run:    %s\n", run.ID)
	fmt.Fprintf(w, "Status: %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "Error:  %s\n", run.Error)
	}
	fmt.Fprintf(w, "Config: %s\n", run.ConfigHash)
	fmt.Fprintf(w, "Pairs:  %d\n\n", run.PairCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tSTAGE\tPAIR\tARTIFACT\tOUTPUT")
	for _, s := range steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Seq, s.Stage, s.PairLabel, s.Artifact, strings.ReplaceAll(s.Output, "\t", " "))
	}
	return tw.Flush()
}

func writeRunTable(w io.Writer, runs []ledger.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tPAIRS\tCONFIG")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.Status, r.PairCount, shortHash(r.ConfigHash))
	}
	return tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
