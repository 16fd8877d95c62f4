package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kaks/internal/testutil"
)

func TestLabelFromPath(t *testing.T) {
	tests := map[string]string{
		"tmp/g1-g2.codon.aln":     "g1-g2",
		"g1-g2.codon.aln":         "g1-g2",
		"/a/b/x.y-z.w.codon.aln":  "x.y-z.w",
		"tmp/g1-g2.pep.aln":       "",
		".codon.aln":              "",
		"tmp/g1-g2.codon.aln.bak": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, LabelFromPath(in), in)
	}
}

func TestChomp(t *testing.T) {
	tests := map[string]string{
		"a\n":   "a",
		"a\r\n": "a",
		"a\r":   "a",
		"a\n\n": "a\n",
		"a":     "a",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, chomp(in), "%q", in)
	}
}

func TestEstimate_WritesLinesInOrder(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.tsv")
	est := &testutil.FakeEstimator{Respond: func(p string) (string, error) {
		return "S=1 N=2\r\n", nil
	}}
	files := []string{"tmp/b-a.codon.aln", "tmp/a-c.codon.aln"}

	results, err := Estimate(context.Background(), est, files, out, nil)
	require.NoError(t, err)
	assert.Equal(t, []Result{{"b-a", "S=1 N=2"}, {"a-c", "S=1 N=2"}}, results)
	assert.Equal(t, files, est.Inputs())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "b-a\tS=1 N=2\na-c\tS=1 N=2\n", string(data))
}

func TestEstimate_EmptyLabelOnUnexpectedName(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.tsv")
	est := &testutil.FakeEstimator{Respond: func(string) (string, error) { return "x\n", nil }}

	results, err := Estimate(context.Background(), est, []string{"weird.aln"}, out, nil)
	require.NoError(t, err)
	assert.Equal(t, "", results[0].Label)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\tx\n", string(data))
}

func TestEstimate_OutputCreationFailsBeforeEstimator(t *testing.T) {
	est := &testutil.FakeEstimator{}
	out := filepath.Join(t.TempDir(), "missing", "out.tsv")

	_, err := Estimate(context.Background(), est, []string{"a-b.codon.aln"}, out, nil)
	require.Error(t, err)
	assert.True(t, IsOutputCreationError(err))

	var oe *OutputCreationError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, out, oe.Path)
	assert.Zero(t, est.Calls())
}

func TestEstimate_EmptyInputTruncatesOutput(t *testing.T) {
	dir := t.TempDir()
	out := testutil.WriteFile(t, dir, "out.tsv", "stale\n")

	results, err := Estimate(context.Background(), &testutil.FakeEstimator{}, nil, out, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEstimate_ErrorKeepsEarlierLines(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.tsv")
	boom := errors.New("boom")
	est := &testutil.FakeEstimator{Respond: func(p string) (string, error) {
		if filepath.Base(p) == "c-d.codon.aln" {
			return "", boom
		}
		return "ok\n", nil
	}}

	results, err := Estimate(context.Background(), est, []string{"a-b.codon.aln", "c-d.codon.aln", "e-f.codon.aln"}, out, nil)
	require.ErrorIs(t, err, boom)
	assert.Len(t, results, 1)
	assert.Equal(t, 2, est.Calls())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a-b\tok\n", string(data))
}

func TestEstimate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	est := &testutil.FakeEstimator{}

	_, err := Estimate(ctx, est, []string{"a-b.codon.aln"}, filepath.Join(t.TempDir(), "out.tsv"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, est.Calls())
}
