package coverage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/verilab/addercheck/internal/stimulus"
)

// FormatError is returned by Load when the file content is not a well-formed
// coverage snapshot. I/O failures are wrapped separately so callers can tell
// a missing file from a corrupt one with errors.As.
type FormatError struct {
	Path   string
	Detail string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed coverage file %s: %s", e.Path, e.Detail)
}

// Save serializes the covered set to path as a JSON array of [a, b, c_in]
// integer tuples, sorted for stable output. The format carries no header or
// version marker; any entry is one unique covered vector.
func (t *Tracker) Save(path string) error {
	tuples := make([][3]uint64, 0, len(t.covered))
	for _, v := range t.Covered() {
		tuples = append(tuples, [3]uint64{v.A, v.B, v.Cin})
	}
	data, err := json.Marshal(tuples)
	if err != nil {
		return fmt.Errorf("failed to encode coverage: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write coverage file: %w", err)
	}
	return nil
}

// Load replaces the covered set with the contents of the file at path.
//
// The file is parsed into a fresh set which is swapped in only on full
// success: a missing file, a top-level value that is not an array, an element
// that is not a 3-tuple of bare non-negative integers, or a carry bit outside
// {0, 1} leaves the tracker's prior state untouched. Elements are never
// coerced: a quoted "2" is rejected, not read as 2.
func (t *Tracker) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read coverage file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return &FormatError{Path: path, Detail: err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return &FormatError{Path: path, Detail: "trailing data after the coverage array"}
	}
	entries, ok := raw.([]any)
	if !ok {
		return &FormatError{Path: path, Detail: fmt.Sprintf("top-level value is %v, want an array of tuples", jsonKind(raw))}
	}

	loaded := make(map[stimulus.Vector]struct{}, len(entries))
	for i, entry := range entries {
		tuple, ok := entry.([]any)
		if !ok {
			return &FormatError{Path: path, Detail: fmt.Sprintf("entry %d is %v, want an array", i, jsonKind(entry))}
		}
		if len(tuple) != 3 {
			return &FormatError{Path: path, Detail: fmt.Sprintf("entry %d has %d elements, want 3", i, len(tuple))}
		}
		var fields [3]uint64
		for j, field := range tuple {
			v, err := parseField(field)
			if err != nil {
				return &FormatError{Path: path, Detail: fmt.Sprintf("entry %d element %d: %v", i, j, err)}
			}
			fields[j] = v
		}
		if fields[2] > 1 {
			return &FormatError{Path: path, Detail: fmt.Sprintf("entry %d has carry bit %d, want 0 or 1", i, fields[2])}
		}
		loaded[stimulus.Vector{A: fields[0], B: fields[1], Cin: fields[2]}] = struct{}{}
	}

	t.covered = loaded
	return nil
}

// parseField accepts only a bare JSON number holding a non-negative integer.
// Quoted numbers, floats, and negatives are rejected, not coerced.
func parseField(field any) (uint64, error) {
	n, ok := field.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%v is not a bare number", jsonKind(field))
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", n.String())
	}
	if v < 0 {
		return 0, fmt.Errorf("%d is negative", v)
	}
	return uint64(v), nil
}

// jsonKind names a decoded JSON value's type for error messages.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
