// Package orderedjson encodes JSON objects whose key order is significant.
package orderedjson

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object encodes keys[i] -> values[i] as a JSON object, preserving order.
// HTML characters are left unescaped so titles survive verbatim.
func Object[V any](keys []string, values []V) ([]byte, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("orderedjson: %d keys for %d values", len(keys), len(values))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(values[i]); err != nil {
			return nil, fmt.Errorf("orderedjson: value for %q: %w", k, err)
		}
	}
	buf.WriteByte('}')

	// Encode appends newlines; compact them away.
	var out bytes.Buffer
	if err := json.Compact(&out, buf.Bytes()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decode reads a JSON object into parallel key/value slices in document order.
func Decode[V any](data []byte) ([]string, []V, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("orderedjson: expected object, got %v", tok)
	}

	var keys []string
	var values []V
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("orderedjson: expected key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("orderedjson: value for %q: %w", key, err)
		}
		keys = append(keys, key)
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, values, nil
}
