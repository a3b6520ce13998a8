package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form of a program.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// The form is fixed:
//
//	{"instructions":[{"arg":2,"op":"add"},{"op":"output"}],"ir_version":"1"}
//
// Object keys are emitted in sorted order, no whitespace, no HTML escaping,
// and strings are NFC normalized. Arg is omitted for output and input.
func MarshalCanonical(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"instructions":[`)
	for i, in := range p.instrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := in.Op.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		buf.WriteByte('{')
		if in.Op.HasArg() {
			buf.WriteString(`"arg":`)
			buf.WriteString(strconv.Itoa(in.Arg))
			buf.WriteByte(',')
		}
		buf.WriteString(`"op":`)
		opBytes, err := marshalCanonicalString(string(name))
		if err != nil {
			return nil, err
		}
		buf.Write(opBytes)
		buf.WriteByte('}')
	}
	buf.WriteString(`],"ir_version":`)
	verBytes, err := marshalCanonicalString(IRVersion)
	if err != nil {
		return nil, err
	}
	buf.Write(verBytes)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler using the canonical form.
func (p *Program) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(p)
}

// programDoc is the decoded shape of the canonical form.
type programDoc struct {
	Instructions []Instruction `json:"instructions"`
	IRVersion    string        `json:"ir_version"`
}

// UnmarshalJSON decodes the canonical form and re-validates the jump
// invariant.
func (p *Program) UnmarshalJSON(data []byte) error {
	var doc programDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode program: %w", err)
	}
	if doc.IRVersion != IRVersion {
		return fmt.Errorf("decode program: ir_version %q not supported (want %q)", doc.IRVersion, IRVersion)
	}
	decoded, err := NewProgram(doc.Instructions)
	if err != nil {
		return fmt.Errorf("decode program: %w", err)
	}
	*p = *decoded
	return nil
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	// NFC normalize at serialization boundary
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
