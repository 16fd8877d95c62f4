package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kaks/internal/pairs"
	"github.com/roach88/kaks/internal/seqstore"
	"github.com/roach88/kaks/internal/testutil"
)

func loadStore(t *testing.T, dir, name, content string) *seqstore.Store {
	t.Helper()
	s, err := seqstore.Load(testutil.WriteFile(t, dir, name, content))
	require.NoError(t, err)
	return s
}

func setOf(ps ...pairs.Pair) *pairs.Set {
	s := pairs.NewSet()
	for _, p := range ps {
		s.Add(p)
	}
	return s
}

func TestAlign_WritesPairFASTA(t *testing.T) {
	dir := t.TempDir()
	cds := loadStore(t, dir, "cds.fasta", testutil.FASTA("g1", "ATGAAA", "g2", "ATGCCC", "g3", "ATGGGG"))
	pep := loadStore(t, dir, "pep.fasta", testutil.FASTA("g1", "MK", "g2", "MP", "g3", "MG"))
	scratch := t.TempDir()

	fa, fp := &testutil.FakeAligner{}, &testutil.FakeProjector{}
	a := &Aligner{ScratchDir: scratch, Peptides: fa, Codons: fp}

	arts, err := a.Align(context.Background(), setOf(pairs.Pair{A: "g2", B: "g1"}), cds, pep)
	require.NoError(t, err)
	require.Len(t, arts, 1)

	art := arts[0]
	assert.Equal(t, "g2-g1", art.Label)
	assert.Equal(t, filepath.Join(scratch, "g2-g1.codon.aln"), art.CodonAln)

	data, err := os.ReadFile(art.CDSFASTA)
	require.NoError(t, err)
	assert.Equal(t, ">g2\nATGCCC\n>g1\nATGAAA\n", string(data))

	data, err = os.ReadFile(art.PepFASTA)
	require.NoError(t, err)
	assert.Equal(t, ">g2\nMP\n>g1\nMK\n", string(data))

	assert.Equal(t, []string{art.PepFASTA}, fa.Inputs())
	assert.Equal(t, 1, fp.Calls())
}

func TestAlign_MissingSequence(t *testing.T) {
	tests := []struct {
		name  string
		pair  pairs.Pair
		gene  string
		store string
	}{
		{"absent everywhere", pairs.Pair{A: "g1", B: "g9"}, "g9", "cds"},
		{"cds only", pairs.Pair{A: "g1", B: "g4"}, "g4", "pep"},
		{"first gene checked first", pairs.Pair{A: "g8", B: "g9"}, "g8", "cds"},
	}

	dir := t.TempDir()
	cds := loadStore(t, dir, "cds.fasta", testutil.FASTA("g1", "ATG", "g4", "ATG"))
	pep := loadStore(t, dir, "pep.fasta", testutil.FASTA("g1", "M"))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := &testutil.FakeAligner{}
			a := &Aligner{ScratchDir: t.TempDir(), Peptides: fa, Codons: &testutil.FakeProjector{}}

			_, err := a.Align(context.Background(), setOf(tt.pair), cds, pep)
			var me *MissingSequenceError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.gene, me.Gene)
			assert.Equal(t, tt.store, me.Store)
			assert.Zero(t, fa.Calls())
		})
	}
}

func TestAlign_StopsAtFailingPair(t *testing.T) {
	dir := t.TempDir()
	cds := loadStore(t, dir, "cds.fasta", testutil.FASTA("g1", "ATG", "g2", "ATG"))
	pep := loadStore(t, dir, "pep.fasta", testutil.FASTA("g1", "M", "g2", "M"))

	fa := &testutil.FakeAligner{}
	a := &Aligner{ScratchDir: t.TempDir(), Peptides: fa, Codons: &testutil.FakeProjector{}}
	set := setOf(pairs.Pair{A: "g1", B: "g2"}, pairs.Pair{A: "g1", B: "g3"}, pairs.Pair{A: "g2", B: "g1"})

	arts, err := a.Align(context.Background(), set, cds, pep)
	require.Error(t, err)
	assert.Len(t, arts, 1)
	assert.Equal(t, 1, fa.Calls())
}

func TestCodonPaths(t *testing.T) {
	arts := []Artifact{{CodonAln: "a.codon.aln"}, {CodonAln: "b.codon.aln"}}
	assert.Equal(t, []string{"a.codon.aln", "b.codon.aln"}, CodonPaths(arts))
	assert.Empty(t, CodonPaths(nil))
}

func TestPrepareScratch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")

	require.NoError(t, PrepareScratch(dir, false))
	assert.DirExists(t, dir)
	testutil.WriteFile(t, dir, "old.aln", "x")

	err := PrepareScratch(dir, false)
	require.Error(t, err)
	assert.True(t, IsScratchDirExistsError(err))
	assert.FileExists(t, filepath.Join(dir, "old.aln"))

	require.NoError(t, PrepareScratch(dir, true))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmatched(t *testing.T) {
	dir := t.TempDir()
	cds := loadStore(t, dir, "cds.fasta", testutil.FASTA("g1", "ATG", "g2", "ATG", "g3", "ATG"))
	pep := loadStore(t, dir, "pep.fasta", testutil.FASTA("g1", "M", "g3", "M"))

	assert.Equal(t, 1, unmatched(cds, pep))
	assert.Equal(t, 0, unmatched(pep, cds))
	assert.Equal(t, 0, unmatched(cds, cds))
}
