// Package canonical reduces structured documents to a single deterministic
// byte encoding so that logically equal documents hash identically regardless
// of construction order. Mapping keys are sorted at every nesting level,
// sequence order is preserved, and numbers render in a fixed locale-free
// format. The encoding is valid JSON, so canonical output can be parsed and
// re-canonicalized to the same bytes.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Error reports input that cannot be canonicalized: a leaf outside the
// closed document model, or a cyclic structure. It is never a best-effort
// coercion; canonicalization either succeeds exactly or fails.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("canonical: %s", e.Reason)
	}
	return fmt.Sprintf("canonical: %s at %s", e.Reason, e.Path)
}

// Canonicalize encodes doc as canonical bytes under the given contract.
// Volatile key paths declared by the contract are stripped before encoding.
// A nil contract is treated as empty. The result carries no trailing newline.
func Canonicalize(doc any, contract *Contract) ([]byte, error) {
	v, err := normalize(doc, "$", map[uintptr]bool{})
	if err != nil {
		return nil, err
	}
	v = contract.strip(v, nil)
	var buf bytes.Buffer
	encode(&buf, v)
	return buf.Bytes(), nil
}

// HashCanonical returns the lowercase-hex SHA-256 of the canonical bytes.
// Hashing is exact: the contract's numeric tolerance never applies here.
func HashCanonical(doc any, contract *Contract) (string, error) {
	b, err := Canonicalize(doc, contract)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// normalize converts doc into the closed variant set (mapping, sequence,
// string, float64/int64, bool, nil), rejecting anything else. seen tracks
// map and slice identities for cycle detection.
func normalize(doc any, path string, seen map[uintptr]bool) (any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case bool, string, int64:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &Error{Path: path, Reason: "non-finite number"}
		}
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("integer %d overflows int64", v)}
		}
		return int64(v), nil
	case float32:
		return normalize(float64(v), path, seen)
	case json.Number:
		if i, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return nil, &Error{Path: path, Reason: fmt.Sprintf("unparseable number %q", string(v))}
		}
		return f, nil
	case map[string]any:
		ptr := reflect.ValueOf(v).Pointer()
		if seen[ptr] {
			return nil, &Error{Path: path, Reason: "cyclic structure"}
		}
		seen[ptr] = true
		out := make(map[string]any, len(v))
		for k, child := range v {
			nc, err := normalize(child, path+"."+k, seen)
			if err != nil {
				return nil, err
			}
			out[k] = nc
		}
		delete(seen, ptr)
		return out, nil
	case []any:
		if len(v) > 0 {
			ptr := reflect.ValueOf(v).Pointer()
			if seen[ptr] {
				return nil, &Error{Path: path, Reason: "cyclic structure"}
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		out := make([]any, len(v))
		for i, child := range v {
			nc, err := normalize(child, fmt.Sprintf("%s[%d]", path, i), seen)
			if err != nil {
				return nil, err
			}
			out[i] = nc
		}
		return out, nil
	default:
		return nil, &Error{Path: path, Reason: fmt.Sprintf("unsupported leaf type %T", doc)}
	}
}

// encode writes the normalized value. Keys sorted, no insignificant
// whitespace, fixed separators.
func encode(buf *bytes.Buffer, v any) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, t)
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		encodeFloat(buf, t)
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
			encodeString(buf, k)
			buf.WriteByte(':')
			encode(buf, t[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, child := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			encode(buf, child)
		}
		buf.WriteByte(']')
	}
}

func encodeString(buf *bytes.Buffer, s string) {
	// encoding/json escaping is stable and locale-free; reuse it for
	// strings so canonical output stays parseable JSON.
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// encodeFloat renders the shortest decimal that round-trips, so 1.0 and 1
// produce the same bytes. Integral floats render as plain digits at any
// magnitude, never in exponent form, matching the int64 rendering wherever
// both representations exist.
func encodeFloat(buf *bytes.Buffer, f float64) {
	if f == math.Trunc(f) {
		if f == 0 {
			// Folds negative zero.
			buf.WriteByte('0')
			return
		}
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		return
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
