package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FullRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := New(s, NewFixedGenerator("run-1"))

	id, err := r.BeginRun(ctx, "abc123", []byte(`{"sort":false}`))
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	require.NoError(t, r.RecordAlignment(ctx, "g1-g2", "g1", "g2", "tmp/g1-g2.codon.aln"))
	require.NoError(t, r.RecordAlignment(ctx, "g1-g3", "g1", "g3", "tmp/g1-g3.codon.aln"))
	require.NoError(t, r.RecordEstimate(ctx, "g1-g2", "tmp/g1-g2.codon.aln", "0.1\t0.2"))
	require.NoError(t, r.RecordEstimate(ctx, "g1-g3", "tmp/g1-g3.codon.aln", "0.3\t0.4"))
	require.NoError(t, r.FinishRun(ctx, nil))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, Run{
		ID:         "run-1",
		ConfigHash: "abc123",
		Config:     `{"sort":false}`,
		Status:     StatusDone,
		PairCount:  2,
	}, run)

	steps, err := s.RunSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, 4)
	for i, st := range steps {
		assert.Equal(t, int64(i+1), st.Seq)
	}
	assert.Equal(t, Step{RunID: "run-1", Seq: 1, Stage: StageAlign, PairLabel: "g1-g2", GeneA: "g1", GeneB: "g2", Artifact: "tmp/g1-g2.codon.aln"}, steps[0])
	assert.Equal(t, StageEstimate, steps[3].Stage)
	assert.Equal(t, "0.3\t0.4", steps[3].Output)
}

func TestRecorder_FailedRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := New(s, NewFixedGenerator("run-1"))

	_, err := r.BeginRun(ctx, "h", []byte("{}"))
	require.NoError(t, err)
	require.NoError(t, r.FinishRun(ctx, errors.New("g9 is not found in cds file")))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "g9 is not found in cds file", run.Error)
	assert.Zero(t, run.PairCount)
}

func TestRecorder_RequiresBegin(t *testing.T) {
	r := New(openTestStore(t), NewFixedGenerator("run-1"))
	ctx := context.Background()

	assert.Error(t, r.RecordAlignment(ctx, "a-b", "a", "b", "x"))
	assert.Error(t, r.RecordEstimate(ctx, "a-b", "x", "y"))
	assert.Error(t, r.FinishRun(ctx, nil))
}

func TestRecorder_BeginTwice(t *testing.T) {
	r := New(openTestStore(t), NewFixedGenerator("run-1", "run-2"))
	ctx := context.Background()

	_, err := r.BeginRun(ctx, "h", []byte("{}"))
	require.NoError(t, err)
	_, err = r.BeginRun(ctx, "h", []byte("{}"))
	assert.Error(t, err)
}

func TestRecorder_DefaultGenerator(t *testing.T) {
	r := New(openTestStore(t), nil)
	id, err := r.BeginRun(context.Background(), "h", []byte("{}"))
	require.NoError(t, err)
	assert.Len(t, id, 36)
}
