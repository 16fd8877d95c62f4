package seqstore

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Record is a single sequence entry.
type Record struct {
	ID  string // definition line without the leading '>'
	Seq string // sequence letters, line breaks removed
}

// Store maps definition lines to records.
type Store struct {
	path    string
	records map[string]Record
}

// ParseError reports a sequence file that could not be read as a FASTA collection.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrNoRecords is wrapped by ParseError when a file holds no sequence entries.
var ErrNoRecords = errors.New("no sequence records found")

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

type options struct {
	alpha alphabet.Alphabet
}

// Option configures Load.
type Option func(*options)

// WithAlphabet sets the alphabet of the template sequence handed to the reader.
// Letters are not validated against it; it only labels the parsed records.
func WithAlphabet(a alphabet.Alphabet) Option {
	return func(o *options) { o.alpha = a }
}

// Load reads every entry of the FASTA file at path.
//
// A missing file returns the underlying open error, so errors.Is(err,
// fs.ErrNotExist) holds. Content that the reader rejects, or a file without
// any entry, returns a *ParseError.
func Load(path string, opts ...Option) (*Store, error) {
	o := options{alpha: alphabet.Protein}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sequence file: %w", err)
	}
	defer f.Close()

	s := &Store{path: path, records: make(map[string]Record)}

	sc := seqio.NewScanner(fasta.NewReader(f, linear.NewSeq("", nil, o.alpha)))
	n := 0
	for sc.Next() {
		ls, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("unexpected sequence type %T", sc.Seq())}
		}
		rec := Record{
			ID:  definition(ls),
			Seq: string(alphabet.LettersToBytes(ls.Seq)),
		}
		s.records[rec.ID] = rec
		n++
	}
	if err := sc.Error(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if n == 0 {
		return nil, &ParseError{Path: path, Err: ErrNoRecords}
	}

	return s, nil
}

// definition rebuilds the header text: biogo splits it into name and description.
func definition(s *linear.Seq) string {
	if d := s.Description(); d != "" {
		return s.Name() + " " + d
	}
	return s.Name()
}

// Path returns the file the store was loaded from.
func (s *Store) Path() string {
	return s.path
}

// Get returns the record for id.
func (s *Store) Get(id string) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.records[id]
	return ok
}

// Len returns the number of distinct identifiers.
func (s *Store) Len() int {
	return len(s.records)
}

// IDs returns all identifiers in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
