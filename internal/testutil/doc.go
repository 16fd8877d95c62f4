// Package testutil provides test doubles for the pipeline's tool ports and
// helpers that lay out fixture files and stub executables in temp directories.
package testutil
