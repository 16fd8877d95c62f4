package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// maxStderrTail bounds the stderr text kept for a ToolError.
const maxStderrTail = 2048

// Runner executes child processes on behalf of the exec-backed ports.
type Runner struct {
	// Strict turns a non-zero exit status into a *ToolError. When false the
	// status is logged and the call succeeds, trusting whatever the tool wrote.
	Strict bool

	// Logger receives argv at debug level and ignored failures at warn level.
	// Nil means slog.Default().
	Logger *slog.Logger

	// Stderr receives the stderr of tools whose diagnostics are shown to the
	// user (projector, estimator). Nil means os.Stderr.
	Stderr io.Writer
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

// run starts argv, waits for it, and classifies the outcome.
// showStderr mirrors the child's stderr to r.Stderr; it is always captured.
func (r Runner) run(ctx context.Context, tool string, argv []string, stdout io.Writer, showStderr bool) error {
	log := r.logger()
	log.Debug("running tool", "tool", tool, "argv", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var errBuf bytes.Buffer
	cmd.Stdout = stdout
	if showStderr {
		cmd.Stderr = io.MultiWriter(r.stderr(), &errBuf)
	} else {
		cmd.Stderr = &errBuf
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || ctx.Err() != nil {
		cause := err
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		return &ToolError{Tool: tool, Argv: argv, ExitCode: -1, Stderr: tail(errBuf.Bytes()), Err: cause}
	}

	te := &ToolError{
		Tool:     tool,
		Argv:     argv,
		ExitCode: exitErr.ExitCode(),
		Stderr:   tail(errBuf.Bytes()),
		Err:      err,
	}
	if r.Strict {
		return te
	}
	log.Warn("ignoring tool failure", "tool", tool, "exit_code", te.ExitCode, "stderr", te.Stderr)
	return nil
}

func tail(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxStderrTail {
		b = b[len(b)-maxStderrTail:]
	}
	return string(b)
}

// Muscle runs MUSCLE as `<cmd> -in <pepFASTA> -out <pepAln> -quiet`.
// Its stderr is never shown.
type Muscle struct {
	Cmd    Command
	Runner Runner
}

// NewMuscle returns an Aligner running cmd.
func NewMuscle(cmd Command, r Runner) *Muscle {
	return &Muscle{Cmd: cmd, Runner: r}
}

func (m *Muscle) AlignPeptides(ctx context.Context, pepFASTA, pepAln string) error {
	argv := m.Cmd.With("-in", pepFASTA, "-out", pepAln, "-quiet")
	return m.Runner.run(ctx, "aligner", argv, io.Discard, false)
}

// Pal2Nal runs pal2nal as `<cmd> <pepAln> <cdsFASTA> -output paml`, with
// stdout redirected into the codon alignment file.
type Pal2Nal struct {
	Cmd    Command
	Runner Runner
}

// NewPal2Nal returns a Projector running cmd.
func NewPal2Nal(cmd Command, r Runner) *Pal2Nal {
	return &Pal2Nal{Cmd: cmd, Runner: r}
}

func (p *Pal2Nal) ProjectCodons(ctx context.Context, pepAln, cdsFASTA, codonAln string) (err error) {
	out, err := os.Create(codonAln)
	if err != nil {
		return fmt.Errorf("create codon alignment: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close codon alignment: %w", cerr)
		}
	}()

	argv := p.Cmd.With(pepAln, cdsFASTA, "-output", "paml")
	return p.Runner.run(ctx, "projector", argv, out, true)
}

// Yn00 runs the rate-estimator wrapper as `<cmd> --in <codonAln>` and
// returns its standard output unmodified.
type Yn00 struct {
	Cmd    Command
	Runner Runner
}

// NewYn00 returns an Estimator running cmd.
func NewYn00(cmd Command, r Runner) *Yn00 {
	return &Yn00{Cmd: cmd, Runner: r}
}

func (y *Yn00) Estimate(ctx context.Context, codonAln string) (string, error) {
	var stdout bytes.Buffer
	argv := y.Cmd.With("--in", codonAln)
	if err := y.Runner.run(ctx, "estimator", argv, &stdout, true); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
