package pipeline

import (
	"errors"
	"fmt"
)

// MissingSequenceError reports a pair gene absent from one of the stores.
type MissingSequenceError struct {
	// Gene is the identifier that was looked up.
	Gene string

	// Store is "cds" or "pep".
	Store string
}

func (e *MissingSequenceError) Error() string {
	return fmt.Sprintf("%s is not found in %s file", e.Gene, e.Store)
}

// ScratchDirExistsError reports an existing scratch directory when force was
// not requested.
type ScratchDirExistsError struct {
	Dir string
}

func (e *ScratchDirExistsError) Error() string {
	return fmt.Sprintf("tmp_outdir %s has already existed! Use --force to remove it", e.Dir)
}

// OutputCreationError reports that the result file could not be created.
type OutputCreationError struct {
	Path string
	Err  error
}

func (e *OutputCreationError) Error() string {
	return fmt.Sprintf("outfile %s cannot be created: %v", e.Path, e.Err)
}

func (e *OutputCreationError) Unwrap() error {
	return e.Err
}

// IsMissingSequenceError returns true if err is or wraps a MissingSequenceError.
func IsMissingSequenceError(err error) bool {
	var me *MissingSequenceError
	return errors.As(err, &me)
}

// IsScratchDirExistsError returns true if err is or wraps a ScratchDirExistsError.
func IsScratchDirExistsError(err error) bool {
	var se *ScratchDirExistsError
	return errors.As(err, &se)
}

// IsOutputCreationError returns true if err is or wraps an OutputCreationError.
func IsOutputCreationError(err error) bool {
	var oe *OutputCreationError
	return errors.As(err, &oe)
}
