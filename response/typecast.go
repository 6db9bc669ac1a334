package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/suzuki-shunsuke/go-convmap/convmap"

	"github.com/remotedom/remotedom/jsfunc"
)

// DefaultTypecastDepth bounds how far Typecast descends into nested
// containers.
const DefaultTypecastDepth = 4

// Typecast normalizes a value into the plain form sent to the client.
//
// Numeric-looking strings become numbers when coerce is set, but only when
// the numeric form reproduces the original text, so "42" converts while
// "042" and "4.50" stay strings. A nested *Response embeds as {"PR": ...}
// carrying its flattened command map, and a *jsfunc.Expr embeds as
// {"PF": ...} carrying its compiled text. Errors and fmt.Stringer values
// become their string form. Anything else non-scalar is reduced to plain
// maps, slices, and json.Number values.
//
// Containers are walked when deep is set, to DefaultTypecastDepth levels;
// anything deeper passes through untouched.
func Typecast(v any, coerce, deep bool) any {
	return TypecastDepth(v, coerce, deep, DefaultTypecastDepth)
}

// TypecastDepth is Typecast with an explicit depth bound.
func TypecastDepth(v any, coerce, deep bool, maxDepth int) any {
	return typecastValue(v, coerce, deep, maxDepth)
}

func typecastValue(v any, coerce, deep bool, depth int) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *Response:
		if t == nil {
			return nil
		}

		return map[string]any{"PR": t.flatten()}
	case *jsfunc.Expr:
		if t == nil {
			return nil
		}

		return map[string]any{"PF": t.Compile()}
	case json.Number:
		// json.Number implements fmt.Stringer; it must match before the
		// interface cases to survive as a number on the wire.
		return v
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	case string:
		if coerce {
			return CoerceNumeric(t)
		}

		return t
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return v
	case map[string]any:
		if !deep || depth <= 0 {
			return t
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = typecastValue(val, coerce, deep, depth-1)
		}

		return out
	case []any:
		if !deep || depth <= 0 {
			return t
		}
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = typecastValue(val, coerce, deep, depth-1)
		}

		return out
	case []string:
		if !deep || depth <= 0 {
			return t
		}
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = typecastValue(s, coerce, deep, depth-1)
		}

		return out
	case map[any]any:
		// yaml decodes object keys as any; convert before walking.
		conv, err := convmap.Convert(t, nil)
		if err != nil {
			return t
		}

		return typecastValue(conv, coerce, deep, depth)
	default:
		return typecastOpaque(v, coerce, deep, depth)
	}
}

// typecastOpaque reduces structs and typed maps and slices through a JSON
// round trip. Values that cannot be encoded pass through unchanged and fail
// later, at render time.
func typecastOpaque(v any, coerce, deep bool, depth int) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var plain any
	if err := dec.Decode(&plain); err != nil {
		return v
	}

	return typecastValue(plain, coerce, deep, depth)
}

// CoerceNumeric converts a numeric-looking string to an int64 or float64
// when the numeric form reproduces the input exactly, and returns the
// string unchanged otherwise. Leading zeros, trailing decimal zeros, and
// exponent notation all stay strings.
func CoerceNumeric(s string) any {
	if s == "" {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if strconv.FormatInt(i, 10) == s {
			return i
		}

		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if strconv.FormatFloat(f, 'f', -1, 64) == s {
			return f
		}
	}

	return s
}
