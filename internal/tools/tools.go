// Package tools wraps the external programs the pipeline delegates to.
//
// The pipeline talks to three ports: an Aligner that aligns a peptide FASTA,
// a Projector that turns a peptide alignment plus coding sequences into a
// codon alignment, and an Estimator that computes substitution rates for one
// codon alignment. The exec-backed implementations here run MUSCLE, pal2nal
// and a yn00 wrapper as child processes, synchronously and without a timeout.
// Tests substitute in-memory fakes (see internal/testutil).
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Aligner aligns the sequences of a peptide FASTA file into pepAln.
type Aligner interface {
	AlignPeptides(ctx context.Context, pepFASTA, pepAln string) error
}

// Projector writes a PAML codon alignment to codonAln.
type Projector interface {
	ProjectCodons(ctx context.Context, pepAln, cdsFASTA, codonAln string) error
}

// Estimator returns the raw rate-estimation output for one codon alignment.
type Estimator interface {
	Estimate(ctx context.Context, codonAln string) (string, error)
}

// Command is a program plus leading arguments, e.g. "perl run_yn00.pl".
type Command struct {
	Argv []string
}

// ParseCommand splits s with shell quoting rules. No shell is involved when
// the command runs; quoting only groups words.
func ParseCommand(s string) (Command, error) {
	argv, err := shlex.Split(s)
	if err != nil {
		return Command{}, fmt.Errorf("parse command %q: %w", s, err)
	}
	if len(argv) == 0 {
		return Command{}, fmt.Errorf("parse command %q: empty command", s)
	}
	return Command{Argv: argv}, nil
}

// MustParseCommand is ParseCommand for literals; it panics on error.
func MustParseCommand(s string) Command {
	c, err := ParseCommand(s)
	if err != nil {
		panic(err)
	}
	return c
}

// With returns the full argv with args appended.
func (c Command) With(args ...string) []string {
	out := make([]string, 0, len(c.Argv)+len(args))
	out = append(out, c.Argv...)
	return append(out, args...)
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// ToolError reports an external program that could not be started or exited non-zero.
type ToolError struct {
	Tool     string
	Argv     []string
	ExitCode int    // -1 when the process never ran
	Stderr   string // tail of captured stderr
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed (%s)", e.Tool, strings.Join(e.Argv, " "))
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	} else if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// IsToolError reports whether err is (or wraps) a ToolError.
func IsToolError(err error) bool {
	var te *ToolError
	return errors.As(err, &te)
}
