package config

import (
	"bytes"
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSrc string

// ValidateYAML checks a YAML document against the #Config definition.
// name is used in error positions only. An empty document is valid.
func ValidateYAML(name string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	file, err := cueyaml.Extract(name, data)
	if err != nil {
		return &Error{Field: "config", Message: fmt.Sprintf("invalid YAML in %s", name), Err: err}
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Field: "config", Message: fmt.Sprintf("invalid YAML in %s", name), Err: err}
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &Error{
			Field:   "config",
			Message: fmt.Sprintf("%s does not match the config schema", name),
			Err:     fmt.Errorf("%s", cueerrors.Details(err, nil)),
		}
	}
	return nil
}
