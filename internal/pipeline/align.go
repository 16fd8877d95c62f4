package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/kaks/internal/pairs"
	"github.com/roach88/kaks/internal/seqstore"
	"github.com/roach88/kaks/internal/tools"
)

// Scratch file suffixes, appended to the pair label.
const (
	suffixPepFASTA = ".pep.fasta"
	suffixCDSFASTA = ".cds.fasta"
	suffixPepAln   = ".pep.aln"
	suffixCodonAln = ".codon.aln"
)

// Artifact is the set of scratch files produced for one pair.
type Artifact struct {
	Pair     pairs.Pair
	Label    string
	PepFASTA string
	CDSFASTA string
	PepAln   string
	CodonAln string
}

func newArtifact(dir string, p pairs.Pair) Artifact {
	label := p.Label()
	return Artifact{
		Pair:     p,
		Label:    label,
		PepFASTA: filepath.Join(dir, label+suffixPepFASTA),
		CDSFASTA: filepath.Join(dir, label+suffixCDSFASTA),
		PepAln:   filepath.Join(dir, label+suffixPepAln),
		CodonAln: filepath.Join(dir, label+suffixCodonAln),
	}
}

// Aligner produces a codon alignment for every pair.
type Aligner struct {
	ScratchDir string
	Peptides   tools.Aligner
	Codons     tools.Projector

	// Recorder and Logger are optional.
	Recorder StepRecorder
	Logger   *slog.Logger
}

// Align processes pairs in set order. Both genes of a pair are checked in
// both stores before any tool runs for that pair.
func (a *Aligner) Align(ctx context.Context, set *pairs.Set, cds, pep *seqstore.Store) ([]Artifact, error) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting aligning sequences", "pairs", set.Len())

	artifacts := make([]Artifact, 0, set.Len())
	for _, p := range set.Pairs() {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		for _, gene := range p.Genes() {
			if !cds.Has(gene) {
				return artifacts, &MissingSequenceError{Gene: gene, Store: "cds"}
			}
			if !pep.Has(gene) {
				return artifacts, &MissingSequenceError{Gene: gene, Store: "pep"}
			}
		}

		art := newArtifact(a.ScratchDir, p)
		if err := writePairFASTA(art.CDSFASTA, p, cds); err != nil {
			return artifacts, err
		}
		if err := writePairFASTA(art.PepFASTA, p, pep); err != nil {
			return artifacts, err
		}

		logger.Info("aligning pair", "pair", art.Label)
		if err := a.Peptides.AlignPeptides(ctx, art.PepFASTA, art.PepAln); err != nil {
			return artifacts, fmt.Errorf("align %s: %w", art.Label, err)
		}
		if err := a.Codons.ProjectCodons(ctx, art.PepAln, art.CDSFASTA, art.CodonAln); err != nil {
			return artifacts, fmt.Errorf("project %s: %w", art.Label, err)
		}

		artifacts = append(artifacts, art)
		if a.Recorder != nil {
			if err := a.Recorder.RecordAlignment(ctx, art.Label, p.A, p.B, art.CodonAln); err != nil {
				return artifacts, fmt.Errorf("record alignment %s: %w", art.Label, err)
			}
		}
	}
	return artifacts, nil
}

// CodonPaths returns the codon alignment paths of artifacts, in order.
func CodonPaths(artifacts []Artifact) []string {
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.CodonAln
	}
	return paths
}

// writePairFASTA writes the two genes of p as unwrapped ">id\nseq\n" records.
func writePairFASTA(path string, p pairs.Pair, store *seqstore.Store) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, gene := range p.Genes() {
		rec, _ := store.Get(gene)
		if _, err := fmt.Fprintf(w, ">%s\n%s\n", rec.ID, rec.Seq); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
