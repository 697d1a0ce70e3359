// Package canonjson implements a single canonical JSON encoding used by
// agent-core's memory dedup fingerprints and the embedding text of records
// without memory_text (memorystore). The event log does not use it:
// eventlog stores nested payload maps as they are. Ordering is
// lexicographic sort of object keys at every level, separators are minimal,
// and Unicode is preserved rather than escaped.
package canonjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal produces the canonical JSON encoding of v. Object keys are sorted
// lexicographically at every nesting level, separators are minimal ("," and
// ":" with no surrounding space), and non-ASCII characters are left
// unescaped. Marshal is idempotent: Marshal(mustUnmarshal(Marshal(v))) equals
// Marshal(v) for any v built from the standard JSON value set (map[string]any,
// []any, string, float64/json.Number, bool, nil).
func Marshal(v any) ([]byte, error) {
	norm, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, norm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal is like Marshal but panics on error. Intended for call sites
// where v is already known to be JSON-representable (e.g. freshly decoded).
func MustMarshal(v any) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("canonjson: %v", err))
	}
	return b
}

// Fingerprint returns the canonical JSON encoding of v as a string, suitable
// for equality comparison between two payloads regardless of map iteration
// order or original key ordering.
func Fingerprint(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalize round-trips v through encoding/json so that arbitrary struct
// values and map[string]any produced by different code paths compare equal
// when their JSON representations are equal. json.Number is used for numbers
// so integers are not forced through float64 precision loss.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(t.String())
	case string:
		return encodeString(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonjson: unsupported normalized type %T", v)
	}
	return nil
}

// encodeString writes a JSON string literal without escaping non-ASCII
// runes. encoding/json escapes '<', '>', '&' (HTMLEscape) and U+2028/U+2029
// by default; we encode manually to avoid that.
func encodeString(buf *bytes.Buffer, s string) error {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return nil
}
