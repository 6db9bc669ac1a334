package dispatch

import (
	"encoding/json"
	"strconv"
)

// Args are the handler arguments decoded from the request form. Values are
// strings as submitted, or numbers when the dispatcher's typecasting is on;
// bracket keys arrive as nested maps and lists.
type Args map[string]any

// Has reports whether name was submitted.
func (a Args) Has(name string) bool {
	_, ok := a[name]

	return ok
}

// String returns the value under name rendered as a string. Numbers and
// booleans format naturally; missing and structured values come back empty.
func (a Args) String(name string) string {
	switch t := a[name].(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Int returns the value under name as an int64 and whether it was one.
// Numeric strings parse; floats truncate.
func (a Args) Int(name string) (int64, bool) {
	switch t := a[name].(type) {
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()

		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)

		return n, err == nil
	default:
		return 0, false
	}
}

// Float returns the value under name as a float64 and whether it was one.
func (a Args) Float(name string) (float64, bool) {
	switch t := a[name].(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// Bool reports whether name holds a truthy form value: true, "true", "1",
// 1, or "on" as checkboxes submit it.
func (a Args) Bool(name string) bool {
	switch t := a[name].(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1" || t == "on"
	case int64:
		return t == 1
	case float64:
		return t == 1
	default:
		return false
	}
}

// Map returns the nested arguments under name, as submitted with bracket
// keys like user[name].
func (a Args) Map(name string) (Args, bool) {
	m, ok := a[name].(map[string]any)
	if !ok {
		return nil, false
	}

	return Args(m), true
}

// Slice returns the list under name, as submitted with push keys like
// tags[].
func (a Args) Slice(name string) ([]any, bool) {
	l, ok := a[name].([]any)

	return l, ok
}
