package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/roach88/kaks/internal/tools"
)

var codonAlnName = regexp.MustCompile(`^(.+)\.codon\.aln$`)

// Result is one line of the result file.
type Result struct {
	Label  string `json:"label"`
	Output string `json:"output"`
}

// Line renders r as it appears in the result file, newline included.
func (r Result) Line() string {
	return r.Label + "\t" + r.Output + "\n"
}

// LabelFromPath recovers the pair label from a codon alignment path. It
// returns "" when the base name does not end in ".codon.aln".
func LabelFromPath(path string) string {
	m := codonAlnName.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return ""
	}
	return m[1]
}

// Estimate runs est over each file in order and writes "label\toutput" lines
// to outFile, which is created (truncated) before the first estimator call.
// rec may be nil.
func Estimate(ctx context.Context, est tools.Estimator, files []string, outFile string, rec StepRecorder) (results []Result, err error) {
	f, err := os.Create(outFile)
	if err != nil {
		return nil, &OutputCreationError{Path: outFile, Err: err}
	}
	w := bufio.NewWriter(f)
	defer func() {
		ferr := w.Flush()
		cerr := f.Close()
		if err == nil && ferr != nil {
			err = fmt.Errorf("write %s: %w", outFile, ferr)
		}
		if err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", outFile, cerr)
		}
	}()

	results = make([]Result, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		label := LabelFromPath(file)

		out, err := est.Estimate(ctx, file)
		if err != nil {
			return results, fmt.Errorf("estimate %s: %w", file, err)
		}
		r := Result{Label: label, Output: chomp(out)}

		if _, err := w.WriteString(r.Line()); err != nil {
			return results, fmt.Errorf("write %s: %w", outFile, err)
		}
		results = append(results, r)

		if rec != nil {
			if err := rec.RecordEstimate(ctx, label, file, r.Output); err != nil {
				return results, fmt.Errorf("record estimate %s: %w", label, err)
			}
		}
	}
	return results, nil
}

// chomp removes one trailing line terminator: "\r\n", "\n" or "\r".
func chomp(s string) string {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "\n"), strings.HasSuffix(s, "\r"):
		return s[:len(s)-1]
	}
	return s
}
