package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain separates config hashes from any other hash of the same bytes.
const fingerprintDomain = "kaks/config/v1"

// Fingerprint returns a stable SHA-256 hex digest of the configuration.
//
// The digest is computed over canonical JSON: object keys ordered by UTF-16
// code units, strings NFC-normalised, no HTML escaping. Two configs that differ
// only in Unicode normalisation form hash identically.
func (c Config) Fingerprint() (string, error) {
	canonical, err := c.CanonicalJSON()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanonicalJSON renders the configuration in canonical JSON form.
func (c Config) CanonicalJSON() ([]byte, error) {
	return marshalCanonical(c.asMap())
}

func (c Config) asMap() map[string]any {
	return map[string]any{
		"pair_file":   c.PairFile,
		"out_file":    c.OutFile,
		"cds_file":    c.CDSFile,
		"pep_file":    c.PepFile,
		"separator":   c.Separator,
		"scratch_dir": c.ScratchDir,
		"sort":        c.Sort,
		"force":       c.Force,
		"strict":      c.Strict,
		"ledger":      c.Ledger,
		"tools": map[string]any{
			"aligner":   c.Tools.Aligner,
			"projector": c.Tools.Projector,
			"estimator": c.Tools.Estimator,
		},
	}
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case string:
		return marshalCanonicalString(val)
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case map[string]any:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString NFC-normalises s and escapes only what JSON requires.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareUTF16 orders strings by UTF-16 code units; Go's native order is UTF-8.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
