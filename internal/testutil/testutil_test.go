package testutil

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFASTA(t *testing.T) {
	assert.Equal(t, ">a\nAC\n>b\nGT\n", FASTA("a", "AC", "b", "GT"))
	assert.Panics(t, func() { FASTA("a") })
}

func TestFakeAligner_CopiesInput(t *testing.T) {
	dir := t.TempDir()
	in := WriteFile(t, dir, "in.fasta", ">a\nMK\n")
	out := filepath.Join(dir, "out.aln")

	f := &FakeAligner{}
	require.NoError(t, f.AlignPeptides(context.Background(), in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, ">a\nMK\n", string(data))
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, []string{in}, f.Inputs())
}

func TestFakeAligner_Err(t *testing.T) {
	boom := errors.New("boom")
	f := &FakeAligner{Err: boom}
	err := f.AlignPeptides(context.Background(), "x", "y")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.Calls())
}

func TestFakeProjector_RequiresPeptideAlignment(t *testing.T) {
	dir := t.TempDir()
	f := &FakeProjector{}
	err := f.ProjectCodons(context.Background(), filepath.Join(dir, "missing"), "cds", filepath.Join(dir, "out"))
	require.Error(t, err)

	aln := WriteFile(t, dir, "p.aln", "x")
	out := filepath.Join(dir, "c.aln")
	require.NoError(t, f.ProjectCodons(context.Background(), aln, "cds", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "codon alignment\n", string(data))
	assert.Equal(t, 2, f.Calls())
}

func TestFakeEstimator_Default(t *testing.T) {
	f := &FakeEstimator{}
	out, err := f.Estimate(context.Background(), "/tmp/x/g1-g2.codon.aln")
	require.NoError(t, err)
	assert.Equal(t, "0.1\t0.2\t0.5\tg1-g2.codon.aln\n", out)
	assert.Equal(t, []string{"/tmp/x/g1-g2.codon.aln"}, f.Inputs())
}

func TestWriteStubTools_Estimator(t *testing.T) {
	stubs := WriteStubTools(t)

	out, err := exec.Command(stubs.Estimator, "--in", "/x/g1-g3.codon.aln").Output()
	require.NoError(t, err)
	assert.Equal(t, "0.1\t0.2\t0.5\tg1-g3.codon.aln\n", string(out))
}

func TestNewFixture(t *testing.T) {
	fx := NewFixture(t, "g1\tg2\n")
	for _, p := range []string{fx.CDS, fx.Pep, fx.PairFile} {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}
}
