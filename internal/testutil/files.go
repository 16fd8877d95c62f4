package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// FASTA renders id/sequence pairs as single-line FASTA records.
func FASTA(records ...string) string {
	if len(records)%2 != 0 {
		panic("testutil.FASTA: odd number of arguments")
	}
	var b strings.Builder
	for i := 0; i < len(records); i += 2 {
		b.WriteString(">" + records[i] + "\n" + records[i+1] + "\n")
	}
	return b.String()
}

// Fixture holds the paths of a small three-gene data set.
type Fixture struct {
	Dir      string
	CDS      string
	Pep      string
	PairFile string
}

// NewFixture writes cds.fasta and pep.fasta with genes g1, g2, g3 and a
// tab-separated pair file with the given content.
func NewFixture(t *testing.T, pairs string) Fixture {
	t.Helper()
	dir := t.TempDir()
	return Fixture{
		Dir: dir,
		CDS: WriteFile(t, dir, "cds.fasta", FASTA(
			"g1", "ATGAAATTTTAA",
			"g2", "ATGAAGTTCTAA",
			"g3", "ATGCAATTTTGA",
		)),
		Pep: WriteFile(t, dir, "pep.fasta", FASTA(
			"g1", "MKF*",
			"g2", "MKF*",
			"g3", "MQF*",
		)),
		PairFile: WriteFile(t, dir, "pairs.tsv", pairs),
	}
}

// StubTools holds command strings for shell-script stand-ins of MUSCLE,
// pal2nal and the yn00 wrapper.
type StubTools struct {
	Aligner   string
	Projector string
	Estimator string
}

// WriteStubTools writes POSIX shell stubs into a temp dir. The aligner copies
// its -in file to its -out file, the projector prints its peptide alignment
// argument, and the estimator prints "0.1\t0.2\t0.5\t<basename of --in>".
// The test is skipped where /bin/sh is unavailable.
func WriteStubTools(t *testing.T) StubTools {
	t.Helper()
	RequireShell(t)
	dir := t.TempDir()
	return StubTools{
		Aligner: WriteScript(t, dir, "muscle", `# -in <pep> -out <aln> -quiet
cp "$2" "$4"
`),
		Projector: WriteScript(t, dir, "pal2nal.pl", `# <pepAln> <cdsFasta> -output paml
cat "$1"
`),
		Estimator: WriteScript(t, dir, "run_yn00", `# --in <codonAln>
printf '0.1\t0.2\t0.5\t%s\n' "$(basename "$2")"
`),
	}
}

// WriteScript writes an executable /bin/sh script and returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	RequireShell(t)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}

// RequireShell skips the test on platforms without /bin/sh.
func RequireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("shell stubs require /bin/sh")
	}
}
