// Package config holds the run configuration threaded through the pipeline.
//
// Values come from three layers, lowest precedence first: Default(), an
// optional YAML file (validated against an embedded CUE schema before it is
// decoded), and flags set explicitly on the command line. The resulting Config
// is passed by value; nothing in the program keeps process-wide tool paths or
// scratch directories.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in defaults.
const (
	DefaultSeparator  = "\t"
	DefaultScratchDir = "tmp"
	DefaultAligner    = "muscle"
	DefaultProjector  = "pal2nal.pl"
	estimatorScript   = "run_yn00.pl"
)

// Config is the complete description of one pipeline run.
type Config struct {
	PairFile   string `yaml:"pair_file" json:"pair_file"`
	OutFile    string `yaml:"out_file" json:"out_file"`
	CDSFile    string `yaml:"cds_file" json:"cds_file"`
	PepFile    string `yaml:"pep_file" json:"pep_file"`
	Separator  string `yaml:"separator" json:"separator"`
	ScratchDir string `yaml:"scratch_dir" json:"scratch_dir"`
	Sort       bool   `yaml:"sort" json:"sort"`
	Force      bool   `yaml:"force" json:"force"`
	Strict     bool   `yaml:"strict" json:"strict"`
	Ledger     string `yaml:"ledger" json:"ledger"`
	Tools      Tools  `yaml:"tools" json:"tools"`
}

// Tools holds the command strings of the external programs. A command may
// carry leading arguments, e.g. "perl /opt/kaks/run_yn00.pl".
type Tools struct {
	Aligner   string `yaml:"aligner" json:"aligner"`
	Projector string `yaml:"projector" json:"projector"`
	Estimator string `yaml:"estimator" json:"estimator"`
}

// Default returns the built-in configuration. The estimator wrapper is
// expected next to the executable, run through perl.
func Default() Config {
	return Config{
		Separator:  DefaultSeparator,
		ScratchDir: DefaultScratchDir,
		Strict:     true,
		Tools: Tools{
			Aligner:   DefaultAligner,
			Projector: DefaultProjector,
			Estimator: estimatorCommand(executableDir()),
		},
	}
}

// estimatorCommand runs the wrapper script in dir through perl. The script
// path is quoted so the command string splits back into exactly two words
// whatever characters dir contains.
func estimatorCommand(dir string) string {
	return "perl " + quoteWord(filepath.Join(dir, estimatorScript))
}

// quoteWord double-quotes s for shell-style splitting, escaping backslashes
// and double quotes.
func quoteWord(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Error reports an invalid or incomplete configuration.
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is (or wraps) a config Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// LoadFile overlays the YAML file at path onto base. The file is checked
// against the CUE schema first, so unknown keys, empty strings and wrongly
// typed values are rejected before decoding.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, &Error{Field: "config", Message: "cannot read config file", Err: err}
	}
	if err := ValidateYAML(path, data); err != nil {
		return base, err
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, &Error{Field: "config", Message: fmt.Sprintf("cannot decode %s", path), Err: err}
	}
	return cfg, nil
}

// Validate checks the required inputs in the order the usage text lists them.
func (c *Config) Validate() error {
	switch {
	case c.OutFile == "":
		return &Error{Field: "out", Message: "outfile must be specified!"}
	case c.CDSFile == "":
		return &Error{Field: "cds", Message: "cds must be specified!"}
	case c.PepFile == "":
		return &Error{Field: "pep", Message: "pep must be specified!"}
	case c.PairFile == "":
		return &Error{Field: "pair", Message: "pair_file must be specified!"}
	case c.Separator == "":
		return &Error{Field: "sep", Message: "separator must not be empty"}
	case c.ScratchDir == "":
		return &Error{Field: "tmp", Message: "tmp_outdir must not be empty"}
	}
	for _, tool := range []struct{ name, cmd string }{
		{"aligner", c.Tools.Aligner},
		{"projector", c.Tools.Projector},
		{"estimator", c.Tools.Estimator},
	} {
		if tool.cmd == "" {
			return &Error{Field: tool.name, Message: tool.name + " command must not be empty"}
		}
	}
	return nil
}
