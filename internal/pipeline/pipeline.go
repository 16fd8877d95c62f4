package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/biogo/biogo/alphabet"

	"github.com/roach88/kaks/internal/config"
	"github.com/roach88/kaks/internal/pairs"
	"github.com/roach88/kaks/internal/seqstore"
	"github.com/roach88/kaks/internal/tools"
)

// StepRecorder receives one call per completed stage of a pair.
type StepRecorder interface {
	RecordAlignment(ctx context.Context, label, geneA, geneB, codonAln string) error
	RecordEstimate(ctx context.Context, label, codonAln, output string) error
}

// Recorder brackets a whole run. ledger.Recorder implements it.
type Recorder interface {
	StepRecorder
	BeginRun(ctx context.Context, fingerprint string, config []byte) (string, error)
	FinishRun(ctx context.Context, runErr error) error
}

// Ports bundles the external tool implementations.
type Ports struct {
	Aligner   tools.Aligner
	Projector tools.Projector
	Estimator tools.Estimator
}

// Summary describes a completed run.
type Summary struct {
	RunID      string   `json:"run_id,omitempty"`
	Pairs      int      `json:"pairs"`
	Results    []Result `json:"results"`
	OutFile    string   `json:"out_file"`
	ScratchDir string   `json:"scratch_dir"`
}

// Pipeline runs one batch described by a Config.
type Pipeline struct {
	cfg    config.Config
	ports  Ports
	logger *slog.Logger
	rec    Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRecorder records the run and its steps.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.rec = r }
}

// New creates a Pipeline. cfg is expected to have passed Validate.
func New(cfg config.Config, ports Ports, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, ports: ports, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the batch. The scratch directory is prepared before any input
// is read; the stores and the pair list are loaded next, then every pair is
// aligned, then every codon alignment is estimated.
func (p *Pipeline) Run(ctx context.Context) (sum *Summary, err error) {
	if err := PrepareScratch(p.cfg.ScratchDir, p.cfg.Force); err != nil {
		return nil, err
	}

	var runID string
	var steps StepRecorder
	if p.rec != nil {
		runID, err = p.beginRun(ctx)
		if err != nil {
			return nil, err
		}
		steps = p.rec
		defer func() {
			// The run row is closed even when ctx was cancelled.
			if ferr := p.rec.FinishRun(context.WithoutCancel(ctx), err); ferr != nil {
				if err == nil {
					err = fmt.Errorf("finish run: %w", ferr)
				} else {
					p.logger.Warn("failed to finish ledger run", "run", runID, "error", ferr)
				}
			}
		}()
		p.logger.Debug("ledger run started", "run", runID)
	}

	cds, err := seqstore.Load(p.cfg.CDSFile, seqstore.WithAlphabet(alphabet.DNA))
	if err != nil {
		return nil, fmt.Errorf("load cds file: %w", err)
	}
	pep, err := seqstore.Load(p.cfg.PepFile)
	if err != nil {
		return nil, fmt.Errorf("load pep file: %w", err)
	}
	p.logger.Debug("sequences loaded",
		"cds", cds.Path(), "cds_records", cds.Len(),
		"pep", pep.Path(), "pep_records", pep.Len())
	if n := unmatched(cds, pep); n > 0 {
		p.logger.Debug("cds records without a peptide", "count", n)
	}

	set, err := pairs.Read(p.cfg.PairFile, p.cfg.Separator, p.cfg.Sort)
	if err != nil {
		return nil, err
	}

	aligner := &Aligner{
		ScratchDir: p.cfg.ScratchDir,
		Peptides:   p.ports.Aligner,
		Codons:     p.ports.Projector,
		Recorder:   steps,
		Logger:     p.logger,
	}
	artifacts, err := aligner.Align(ctx, set, cds, pep)
	if err != nil {
		return nil, err
	}

	results, err := Estimate(ctx, p.ports.Estimator, CodonPaths(artifacts), p.cfg.OutFile, steps)
	if err != nil {
		return nil, err
	}
	p.logger.Info("run complete", "pairs", len(results), "out", p.cfg.OutFile)

	return &Summary{
		RunID:      runID,
		Pairs:      set.Len(),
		Results:    results,
		OutFile:    p.cfg.OutFile,
		ScratchDir: p.cfg.ScratchDir,
	}, nil
}

// unmatched counts the ids of a that b does not hold.
func unmatched(a, b *seqstore.Store) int {
	n := 0
	for _, id := range a.IDs() {
		if !b.Has(id) {
			n++
		}
	}
	return n
}

func (p *Pipeline) beginRun(ctx context.Context) (string, error) {
	fp, err := p.cfg.Fingerprint()
	if err != nil {
		return "", fmt.Errorf("fingerprint config: %w", err)
	}
	cfgJSON, err := p.cfg.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	id, err := p.rec.BeginRun(ctx, fp, cfgJSON)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// PrepareScratch makes dir an empty directory. An existing dir is removed when
// force is set and is an error otherwise.
func PrepareScratch(dir string, force bool) error {
	_, err := os.Stat(dir)
	switch {
	case err == nil:
		if !force {
			return &ScratchDirExistsError{Dir: dir}
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove tmp_outdir %s: %w", dir, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat tmp_outdir %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tmp_outdir %s: %w", dir, err)
	}
	return nil
}
