// Package seqstore loads FASTA sequence files into an in-memory map keyed by
// definition line.
//
// Records are parsed with biogo's streaming FASTA reader. A store is built once
// per file (coding sequences, peptides) and never mutated afterwards. When a
// definition line occurs twice, the later record replaces the earlier one.
package seqstore
