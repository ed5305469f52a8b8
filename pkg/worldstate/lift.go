package worldstate

import (
	"encoding/json"
	"errors"
)

// resolveAll resolves every element of xs with f. The result has the same
// length and order as xs; a nil input gives an empty, non-nil slice so the
// output always serializes as [].
func resolveAll[A, B any](xs []A, ctx *Context, f func(A, *Context) B) []B {
	out := make([]B, len(xs))
	for i, x := range xs {
		out[i] = f(x, ctx)
	}
	return out
}

// resolveOpt resolves x with f when present and keeps absence otherwise.
func resolveOpt[A, B any](x *A, ctx *Context, f func(A, *Context) B) *B {
	if x == nil {
		return nil
	}
	b := f(*x, ctx)
	return &b
}

// first resolves the first element of an at-most-one collection. Further
// elements are discarded; an empty collection yields nil.
func first[A, B any](xs []A, ctx *Context, f func(A, *Context) B) *B {
	if len(xs) == 0 {
		return nil
	}
	b := f(xs[0], ctx)
	return &b
}

var errMissingField = errors.New("missing required field")

// decodeObject checks that every key in required is present in the JSON
// object data and then unmarshals data into v. v must not implement
// json.Unmarshaler itself (callers pass a pointer to a local alias type).
func decodeObject(data []byte, v any, kind string, required ...string) error {
	if len(required) > 0 {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(data, &keys); err != nil {
			return &ParseError{Field: kind, Err: err}
		}
		for _, k := range required {
			if _, ok := keys[k]; !ok {
				return &ParseError{Field: kind + "." + k, Err: errMissingField}
			}
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return parseErr(kind, err)
	}
	return nil
}

// orEmpty returns xs, or an empty non-nil slice when xs is nil.
func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
