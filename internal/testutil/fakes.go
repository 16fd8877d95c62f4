package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FakeAligner copies the peptide FASTA to the alignment path and counts calls.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeAligner struct {
	mu    sync.Mutex
	calls [][2]string

	// Err, when set, is returned instead of writing output.
	Err error
}

func (f *FakeAligner) AlignPeptides(ctx context.Context, pepFASTA, pepAln string) error {
	f.mu.Lock()
	f.calls = append(f.calls, [2]string{pepFASTA, pepAln})
	f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	data, err := os.ReadFile(pepFASTA)
	if err != nil {
		return err
	}
	return os.WriteFile(pepAln, data, 0644)
}

// Calls returns the number of AlignPeptides invocations.
func (f *FakeAligner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Inputs returns the peptide FASTA paths in call order.
func (f *FakeAligner) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c[0]
	}
	return out
}

// FakeProjector writes a fixed body to the codon alignment path.
type FakeProjector struct {
	mu    sync.Mutex
	calls int

	// Body is written to the codon alignment; empty means "codon alignment\n".
	Body string
	Err  error
}

func (f *FakeProjector) ProjectCodons(ctx context.Context, pepAln, cdsFASTA, codonAln string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	if _, err := os.Stat(pepAln); err != nil {
		return fmt.Errorf("peptide alignment missing: %w", err)
	}
	body := f.Body
	if body == "" {
		body = "codon alignment\n"
	}
	return os.WriteFile(codonAln, []byte(body), 0644)
}

// Calls returns the number of ProjectCodons invocations.
func (f *FakeProjector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeEstimator returns canned rate output for each codon alignment.
type FakeEstimator struct {
	mu     sync.Mutex
	inputs []string

	// Respond computes the output; nil uses DefaultEstimate.
	Respond func(codonAln string) (string, error)
}

// DefaultEstimate is the FakeEstimator output when Respond is nil.
func DefaultEstimate(codonAln string) (string, error) {
	return fmt.Sprintf("0.1\t0.2\t0.5\t%s\n", filepath.Base(codonAln)), nil
}

func (f *FakeEstimator) Estimate(ctx context.Context, codonAln string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, codonAln)
	f.mu.Unlock()

	if f.Respond != nil {
		return f.Respond(codonAln)
	}
	return DefaultEstimate(codonAln)
}

// Calls returns the number of Estimate invocations.
func (f *FakeEstimator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// Inputs returns the codon alignment paths in call order.
func (f *FakeEstimator) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.inputs))
	copy(out, f.inputs)
	return out
}
