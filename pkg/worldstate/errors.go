package worldstate

import (
	"errors"
	"fmt"
)

// ErrMissingVariant is the sentinel wrapped by [*MissingVariantError].
var ErrMissingVariant = errors.New("worldstate: missing required variant")

// ParseError reports a structural problem in the wire document: a missing
// required field, an unknown enumeration tag, or a malformed date or id.
// No partial result accompanies a ParseError.
type ParseError struct {
	// Field names the wire key or value kind being decoded. May be empty
	// when the document itself is not valid JSON.
	Field string

	Err error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "worldstate: parse: " + e.Err.Error()
	}
	return fmt.Sprintf("worldstate: parse %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProviderError wraps a failure to obtain a [Context] from a
// [ContextProvider]. The underlying error is passed through untouched.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("worldstate: provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MissingVariantError reports that a collection which must carry one entry
// per variant (for example the normal and steel path circuit choices) is
// missing one of them.
type MissingVariantError struct {
	Kind    string
	Variant string
}

func (e *MissingVariantError) Error() string {
	return fmt.Sprintf("worldstate: %s: missing required variant %q", e.Kind, e.Variant)
}

func (e *MissingVariantError) Unwrap() error { return ErrMissingVariant }

// parseErr wraps err into a *ParseError for field unless it already is one.
func parseErr(field string, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Field: field, Err: err}
}
