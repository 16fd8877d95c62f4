package ledger

import (
	"context"
	"errors"
	"sync"
)

// Recorder writes the steps of a single run. It is created unbound; BeginRun
// inserts the run row and fixes its id.
type Recorder struct {
	store *Store
	gen   IDGenerator
	clock *Clock

	mu     sync.Mutex
	runID  string
	aligns int
}

// New returns a Recorder writing to store, drawing its run id from gen.
// A nil gen uses UUIDv7Generator.
func New(store *Store, gen IDGenerator) *Recorder {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &Recorder{store: store, gen: gen, clock: NewClock()}
}

// BeginRun inserts the run row and returns its id.
func (r *Recorder) BeginRun(ctx context.Context, fingerprint string, config []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runID != "" {
		return "", errors.New("ledger: run already started")
	}
	id := r.gen.Generate()
	if err := r.store.WriteRun(ctx, Run{ID: id, ConfigHash: fingerprint, Config: string(config)}); err != nil {
		return "", err
	}
	r.runID = id
	return id, nil
}

// RecordAlignment records an align step for one pair.
func (r *Recorder) RecordAlignment(ctx context.Context, label, geneA, geneB, codonAln string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writeStep(ctx, Step{
		Stage:     StageAlign,
		PairLabel: label,
		GeneA:     geneA,
		GeneB:     geneB,
		Artifact:  codonAln,
	}); err != nil {
		return err
	}
	r.aligns++
	return nil
}

// RecordEstimate records an estimate step with the estimator output as written.
func (r *Recorder) RecordEstimate(ctx context.Context, label, codonAln, output string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeStep(ctx, Step{
		Stage:     StageEstimate,
		PairLabel: label,
		Artifact:  codonAln,
		Output:    output,
	})
}

// FinishRun marks the run done, or failed with runErr's text.
func (r *Recorder) FinishRun(ctx context.Context, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runID == "" {
		return errors.New("ledger: run not started")
	}
	status, text := StatusDone, ""
	if runErr != nil {
		status, text = StatusFailed, runErr.Error()
	}
	return r.store.FinishRun(ctx, r.runID, status, text, r.aligns)
}

// writeStep must be called with r.mu held.
func (r *Recorder) writeStep(ctx context.Context, step Step) error {
	if r.runID == "" {
		return errors.New("ledger: run not started")
	}
	step.RunID = r.runID
	step.Seq = r.clock.Next()
	return r.store.WriteStep(ctx, step)
}
