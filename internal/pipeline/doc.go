// Package pipeline runs the Ka/Ks batch: prepare the scratch directory, load
// the CDS and peptide stores, read the pair list, align every pair, then run
// the rate estimator over every codon alignment and write one result line per
// pair.
//
// Processing is strictly sequential and in pair-file order. The external
// programs are reached only through the tools.Aligner, tools.Projector and
// tools.Estimator ports, so tests substitute fakes. Any error aborts the
// batch; files already written to the scratch directory stay there.
package pipeline
