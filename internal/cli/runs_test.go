package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kaks/internal/ledger"
)

func TestRunsMissingLedgerFlag(t *testing.T) {
	_, _, err := execute(t, nil, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRunsBadLedgerPath(t *testing.T) {
	_, _, err := execute(t, nil, "runs", "--ledger", "/nonexistent/path/runs.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open ledger")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunsEmptyLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, nil, "runs", "--ledger", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded\n", stdout)

	stdout, _, err = execute(t, nil, "runs", "--ledger", db, "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, stdout)
}

func TestRunsUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, stderr, err := execute(t, nil, "runs", "--ledger", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E005]: run nope not found")
}

func TestRunsShowRunText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := ledger.Open(db)
	require.NoError(t, err)
	rec := ledger.New(st, ledger.NewFixedGenerator("run-7"))
	ctx := context.Background()
	_, err = rec.BeginRun(ctx, "0123456789abcdef0123", []byte("{}"))
	require.NoError(t, err)
	require.NoError(t, rec.RecordAlignment(ctx, "a-b", "a", "b", "tmp/a-b.codon.aln"))
	require.NoError(t, rec.RecordEstimate(ctx, "a-b", "tmp/a-b.codon.aln", "0.1\t0.2"))
	require.NoError(t, rec.FinishRun(ctx, nil))
	require.NoError(t, st.Close())

	stdout, _, err := execute(t, nil, "runs", "--ledger", db, "--run", "run-7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run:    run-7\n")
	assert.Contains(t, stdout, "Status: done\n")
	assert.Contains(t, stdout, "Pairs:  1\n")
	assert.Contains(t, stdout, "0.1 0.2")

	stdout, _, err = execute(t, nil, "runs", "--ledger", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "0123456789ab")
	assert.NotContains(t, stdout, "0123456789abc")
}
