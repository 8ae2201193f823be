package codec

import "time"

// Document is a plain JSON-serializable tree holding one entity's persisted
// state. Values are the shapes encoding/json produces when decoding into
// map[string]any: strings, bools, float64 numbers, nested maps and slices.
type Document = map[string]any

// Serializer is implemented by every persistable entity. Serialize must be
// pure and synchronous and produce only plain mappings, arrays and scalars.
type Serializer interface {
	Serialize() Document
}

// String returns the string stored under key, or "" when absent or of the
// wrong shape.
func String(doc Document, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

// Bool returns the bool stored under key, defaulting to false.
func Bool(doc Document, key string) bool {
	if b, ok := doc[key].(bool); ok {
		return b
	}
	return false
}

// Int returns the number stored under key as an int. JSON decoding yields
// float64, but documents built in memory may hold native ints, so both are
// accepted.
func Int(doc Document, key string) int {
	switch n := doc[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

// Float returns the number stored under key as a float64.
func Float(doc Document, key string) float64 {
	switch n := doc[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Time parses the RFC3339 timestamp stored under key. Absent or malformed
// values yield the zero time.
func Time(doc Document, key string) time.Time {
	s, ok := doc[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Stamp formats a timestamp for storage in a document. The zero time is
// stored as an absent-friendly empty string.
func Stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// Child returns the nested document stored under key, or nil.
func Child(doc Document, key string) Document {
	if d, ok := doc[key].(map[string]any); ok {
		return d
	}
	return nil
}

// List returns the slice of nested documents stored under key. Entries that
// are not documents are skipped.
func List(doc Document, key string) []Document {
	raw, ok := doc[key].([]any)
	if !ok {
		// Documents assembled in memory may hold a typed slice already.
		if ds, ok := doc[key].([]Document); ok {
			return ds
		}
		return nil
	}
	out := make([]Document, 0, len(raw))
	for _, v := range raw {
		if d, ok := v.(map[string]any); ok {
			out = append(out, d)
		}
	}
	return out
}

// Strings returns the slice of strings stored under key.
func Strings(doc Document, key string) []string {
	raw, ok := doc[key].([]any)
	if !ok {
		if ss, ok := doc[key].([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
