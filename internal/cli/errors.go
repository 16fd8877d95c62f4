package cli

import (
	"errors"
	"io/fs"

	"github.com/roach88/kaks/internal/config"
	"github.com/roach88/kaks/internal/pairs"
	"github.com/roach88/kaks/internal/pipeline"
	"github.com/roach88/kaks/internal/seqstore"
	"github.com/roach88/kaks/internal/tools"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeConfig          = "E002" // Invalid config file or tool command
	ErrCodeMissingOption   = "E003" // Required option not given
	ErrCodeScratchExists   = "E004" // Scratch directory exists without --force
	ErrCodeNotFound        = "E005" // Input file not found
	ErrCodeParse           = "E006" // FASTA parse error
	ErrCodeMalformedPair   = "E007" // Pair file line is not two genes
	ErrCodeMissingSequence = "E008" // Pair gene absent from a FASTA file
	ErrCodeOutput          = "E009" // Result file cannot be created
	ErrCodeToolFailure     = "E010" // External tool failed
)

// classify maps an error to its error code and exit code.
// Order matters: a tool failure wrapping fs.ErrNotExist is still a tool failure.
func classify(err error) (code string, exit int) {
	switch {
	case config.IsConfigError(err):
		return ErrCodeConfig, ExitCommandError
	case pipeline.IsScratchDirExistsError(err):
		return ErrCodeScratchExists, ExitFailure
	case tools.IsToolError(err):
		return ErrCodeToolFailure, ExitFailure
	case pipeline.IsOutputCreationError(err):
		return ErrCodeOutput, ExitFailure
	case seqstore.IsParseError(err):
		return ErrCodeParse, ExitFailure
	case pairs.IsMalformedPairError(err):
		return ErrCodeMalformedPair, ExitFailure
	case pipeline.IsMissingSequenceError(err):
		return ErrCodeMissingSequence, ExitFailure
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, ExitFailure
	default:
		return ErrCodeGeneric, ExitFailure
	}
}
