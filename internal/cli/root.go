package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/kaks/internal/config"
	"github.com/roach88/kaks/internal/ledger"
	"github.com/roach88/kaks/internal/pipeline"
	"github.com/roach88/kaks/internal/tools"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// PipelineOptions holds the flags of the root command, which runs the pipeline.
type PipelineOptions struct {
	*RootOptions
	ConfigFile string

	PairFile   string
	OutFile    string
	CDSFile    string
	PepFile    string
	Separator  string
	ScratchDir string
	Sort       bool
	Force      bool
	NoStrict   bool
	Ledger     string

	Aligner   string
	Projector string
	Estimator string

	// Ports overrides the external tools (for testing).
	Ports *pipeline.Ports

	// RunIDs overrides the ledger run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs ledger.IDGenerator
}

// requiredFields are the config fields a user must supply.
var requiredFields = []string{"out", "cds", "pep", "pair"}

// NewRootCommand creates the kaks command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&PipelineOptions{RootOptions: &RootOptions{}})
}

func newRootCommand(opts *PipelineOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kaks",
		Short: "Calculate Ka, Ks and Ka/Ks for gene pairs",
		Long: `Calculate Ka, Ks and Ka/Ks for gene pairs.

For every pair in the pair file the peptides are aligned with MUSCLE, the
alignment is projected onto the coding sequences with pal2nal, and the
codon alignment is passed to the yn00 wrapper. One line per pair is written
to the output file: the pair label, a tab, and the estimator output.

MUSCLE, pal2nal.pl, perl, PAML's yn00 and run_yn00.pl must be available.
Tool locations can be set with --aligner, --projector and --estimator or in
a --config file.`,
		Example: `  kaks -i pairs.tsv --cds cds.fasta --pep pep.fasta -o kaks.tsv
  kaks -p pairs.csv --sep , --sort --tmp aln --force --cds cds.fa --pep pep.fa -o out.tsv
  kaks --config kaks.yaml --ledger runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return cmd.Help()
			}
			return runPipeline(opts, cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	f := cmd.Flags()
	f.StringVarP(&opts.PairFile, "in", "i", "", "pair file, two genes per line")
	f.StringVarP(&opts.PairFile, "pair", "p", "", "same as --in")
	f.StringVarP(&opts.OutFile, "out", "o", "", "result file")
	f.StringVar(&opts.CDSFile, "cds", "", "coding sequence FASTA file")
	f.StringVar(&opts.PepFile, "pep", "", "peptide FASTA file")
	f.StringVar(&opts.Separator, "sep", config.DefaultSeparator, "separator between the genes of a pair (default TAB)")
	f.StringVar(&opts.ScratchDir, "tmp", config.DefaultScratchDir, "directory the alignments are written to")
	f.StringVar(&opts.ScratchDir, "tmp_outdir", config.DefaultScratchDir, "same as --tmp")
	f.BoolVar(&opts.Sort, "sort", false, "sort gene names in each pair")
	f.BoolVar(&opts.Force, "force", false, "remove the tmp directory if it exists")
	f.StringVar(&opts.ConfigFile, "config", "", "YAML config file; flags override its values")
	f.StringVar(&opts.Aligner, "aligner", config.DefaultAligner, "MUSCLE command")
	f.StringVar(&opts.Projector, "projector", config.DefaultProjector, "pal2nal command")
	f.StringVar(&opts.Estimator, "estimator", "", "yn00 wrapper command (default: perl run_yn00.pl next to the executable)")
	f.BoolVar(&opts.NoStrict, "no-strict", false, "ignore non-zero exit codes of the external tools")
	f.StringVar(&opts.Ledger, "ledger", "", "record the run in this SQLite database")

	cmd.AddCommand(NewRunsCommand(opts.RootOptions))

	return cmd
}

// Execute runs the kaks command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil && !isReported(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return GetExitCode(err)
}

func runPipeline(opts *PipelineOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return report(out, err)
	}
	if err := cfg.Validate(); err != nil {
		return reportInvalid(out, cmd, err)
	}

	ports := pipeline.Ports{}
	if opts.Ports != nil {
		ports = *opts.Ports
	} else if ports, err = execPorts(cfg, logger, cmd.ErrOrStderr()); err != nil {
		return report(out, err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	pipeOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Ledger != "" {
		st, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return report(out, fmt.Errorf("open ledger %s: %w", cfg.Ledger, err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(ledger.New(st, opts.RunIDs)))
	}

	sum, err := pipeline.New(cfg, ports, pipeOpts...).Run(ctx)
	if err != nil {
		return report(out, err)
	}
	return out.Success(runSummary{sum}, sum.RunID)
}

// resolveConfig layers defaults, the optional config file and the flags the
// user actually set.
func resolveConfig(opts *PipelineOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.LoadFile(opts.ConfigFile, cfg); err != nil {
			return cfg, err
		}
	}

	changed := func(names ...string) bool {
		for _, n := range names {
			if cmd.Flags().Changed(n) {
				return true
			}
		}
		return false
	}
	if changed("in", "pair") {
		cfg.PairFile = opts.PairFile
	}
	if changed("out") {
		cfg.OutFile = opts.OutFile
	}
	if changed("cds") {
		cfg.CDSFile = opts.CDSFile
	}
	if changed("pep") {
		cfg.PepFile = opts.PepFile
	}
	if changed("sep") {
		cfg.Separator = opts.Separator
	}
	if changed("tmp", "tmp_outdir") {
		cfg.ScratchDir = opts.ScratchDir
	}
	if changed("sort") {
		cfg.Sort = opts.Sort
	}
	if changed("force") {
		cfg.Force = opts.Force
	}
	if changed("no-strict") {
		cfg.Strict = !opts.NoStrict
	}
	if changed("ledger") {
		cfg.Ledger = opts.Ledger
	}
	if changed("aligner") {
		cfg.Tools.Aligner = opts.Aligner
	}
	if changed("projector") {
		cfg.Tools.Projector = opts.Projector
	}
	if changed("estimator") {
		cfg.Tools.Estimator = opts.Estimator
	}
	return cfg, nil
}

// execPorts builds the subprocess-backed tools from the configured commands.
func execPorts(cfg config.Config, logger *slog.Logger, stderr io.Writer) (pipeline.Ports, error) {
	runner := tools.Runner{Strict: cfg.Strict, Logger: logger, Stderr: stderr}

	parse := func(field, s string) (tools.Command, error) {
		c, err := tools.ParseCommand(s)
		if err != nil {
			return c, &config.Error{Field: field, Message: "invalid " + field + " command", Err: err}
		}
		return c, nil
	}
	aligner, err := parse("aligner", cfg.Tools.Aligner)
	if err != nil {
		return pipeline.Ports{}, err
	}
	projector, err := parse("projector", cfg.Tools.Projector)
	if err != nil {
		return pipeline.Ports{}, err
	}
	estimator, err := parse("estimator", cfg.Tools.Estimator)
	if err != nil {
		return pipeline.Ports{}, err
	}
	return pipeline.Ports{
		Aligner:   tools.NewMuscle(aligner, runner),
		Projector: tools.NewPal2Nal(projector, runner),
		Estimator: tools.NewYn00(estimator, runner),
	}, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// report writes err in the configured format and returns it as an exit error.
func report(out *OutputFormatter, err error) error {
	code, exit := classify(err)
	_ = out.Error(code, err.Error(), errorDetails(err))
	return &ExitError{Code: exit, Err: err, Reported: true}
}

// reportInvalid handles a config that failed Validate. A missing required
// option prints the message and the usage on stdout, as -h does.
func reportInvalid(out *OutputFormatter, cmd *cobra.Command, err error) error {
	var ce *config.Error
	if !errors.As(err, &ce) || !slices.Contains(requiredFields, ce.Field) {
		return report(out, err)
	}
	if out.Format == "json" {
		_ = out.Error(ErrCodeMissingOption, ce.Message, map[string]string{"option": ce.Field})
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), ce.Message)
		fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
	}
	return &ExitError{Code: ExitCommandError, Err: err, Reported: true}
}

func errorDetails(err error) any {
	var te *tools.ToolError
	if errors.As(err, &te) {
		return map[string]any{
			"tool":      te.Tool,
			"argv":      te.Argv,
			"exit_code": te.ExitCode,
			"stderr":    te.Stderr,
		}
	}
	return nil
}

// runSummary renders a pipeline summary for text output.
type runSummary struct {
	*pipeline.Summary
}

func (s runSummary) String() string {
	msg := fmt.Sprintf("wrote %d results to %s (alignments in %s)", len(s.Results), s.OutFile, s.ScratchDir)
	if s.RunID != "" {
		msg += "\nrun " + s.RunID
	}
	return msg
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
