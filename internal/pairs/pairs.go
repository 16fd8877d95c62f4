// Package pairs reads gene-pair list files into an insertion-ordered set.
package pairs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LabelSeparator joins the two gene identifiers of a pair label.
const LabelSeparator = "-"

// Pair is a two-gene tuple.
type Pair struct {
	A string
	B string
}

// Label joins the genes with a hyphen. Identifiers that themselves contain a
// hyphen can produce colliding labels.
func (p Pair) Label() string {
	return p.A + LabelSeparator + p.B
}

// Genes returns the identifiers in pair order.
func (p Pair) Genes() [2]string {
	return [2]string{p.A, p.B}
}

// Set is an insertion-ordered set of pairs.
type Set struct {
	order []Pair
	seen  map[Pair]struct{}
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{seen: make(map[Pair]struct{})}
}

// Add inserts p and reports whether it was new. A duplicate keeps its first position.
func (s *Set) Add(p Pair) bool {
	if _, ok := s.seen[p]; ok {
		return false
	}
	s.seen[p] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// Contains reports whether p is in the set.
func (s *Set) Contains(p Pair) bool {
	_, ok := s.seen[p]
	return ok
}

// Len returns the number of distinct pairs.
func (s *Set) Len() int {
	return len(s.order)
}

// Pairs returns the pairs in first-insertion order.
func (s *Set) Pairs() []Pair {
	out := make([]Pair, len(s.order))
	copy(out, s.order)
	return out
}

// MalformedPairError reports a line that does not hold exactly two distinct genes.
type MalformedPairError struct {
	Line    int // 1-based
	Content string
	Reason  string
}

func (e *MalformedPairError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Content, e.Reason)
}

// IsMalformedPairError reports whether err is (or wraps) a MalformedPairError.
func IsMalformedPairError(err error) bool {
	var me *MalformedPairError
	return errors.As(err, &me)
}

// Read parses the pair file at path. See Parse.
func Read(path, sep string, sortPair bool) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pair file: %w", err)
	}
	defer f.Close()

	set, err := Parse(f, sep, sortPair)
	if err != nil {
		return nil, fmt.Errorf("read pair file %s: %w", path, err)
	}
	return set, nil
}

// Parse reads one pair per line, split on sep.
//
// Blank lines are skipped. A single space separator splits on runs of
// whitespace; any other separator splits literally and trailing empty fields
// are dropped. Each remaining line must yield exactly two non-empty, distinct
// tokens. With sortPair the tokens are ordered lexicographically, so "B A" and
// "A B" collapse into the same pair.
func Parse(r io.Reader, sep string, sortPair bool) (*Set, error) {
	if sep == "" {
		return nil, errors.New("pair separator must not be empty")
	}

	set := NewSet()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		fields := split(line, sep)
		if len(fields) != 2 {
			return nil, &MalformedPairError{
				Line:    lineNo,
				Content: line,
				Reason:  fmt.Sprintf("expected 2 genes, found %d", len(fields)),
			}
		}
		a, b := fields[0], fields[1]
		if a == "" || b == "" {
			return nil, &MalformedPairError{Line: lineNo, Content: line, Reason: "empty gene identifier"}
		}
		if a == b {
			return nil, &MalformedPairError{Line: lineNo, Content: line, Reason: "gene paired with itself"}
		}
		if sortPair && b < a {
			a, b = b, a
		}
		set.Add(Pair{A: a, B: b})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

func split(line, sep string) []string {
	if sep == " " {
		return strings.Fields(line)
	}
	fields := strings.Split(line, sep)
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}
