package untangle

import (
	"fmt"
	"strings"
)

// ErrorKind classifies engine errors.
type ErrorKind int

const (
	ErrTypeMismatch ErrorKind = iota + 1
	ErrInvalidUTF8
	ErrOutOfRange
	ErrInvalidLength
	ErrMissingField
	ErrUnknownField
	ErrDuplicateField
	ErrUnknownVariant
	ErrNoMatch
	ErrCustom
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrInvalidUTF8:
		return "invalid utf-8"
	case ErrOutOfRange:
		return "out of range"
	case ErrInvalidLength:
		return "invalid length"
	case ErrMissingField:
		return "missing field"
	case ErrUnknownField:
		return "unknown field"
	case ErrDuplicateField:
		return "duplicate field"
	case ErrUnknownVariant:
		return "unknown variant"
	case ErrNoMatch:
		return "no match"
	case ErrCustom:
		return "custom"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned for every failure the engine itself detects. Errors from
// a format decoder pass through unchanged.
type Error struct {
	Kind ErrorKind
	// Field names the field or variant for the field/variant kinds.
	Field string
	// Unexpected describes what was found, Expected what was asked for.
	Unexpected string
	Expected   string
	// OneOf lists the accepted names for unknown field/variant errors.
	OneOf []string
	// Detail overrides the generated message.
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case ErrTypeMismatch:
		return fmt.Sprintf("invalid type: %s, expected %s", e.Unexpected, e.Expected)
	case ErrInvalidUTF8, ErrOutOfRange:
		return fmt.Sprintf("invalid value: %s, expected %s", e.Unexpected, e.Expected)
	case ErrInvalidLength:
		return fmt.Sprintf("invalid length %s, expected %s", e.Unexpected, e.Expected)
	case ErrMissingField:
		return fmt.Sprintf("missing field `%s`", e.Field)
	case ErrDuplicateField:
		return fmt.Sprintf("duplicate field `%s`", e.Field)
	case ErrUnknownField:
		return fmt.Sprintf("unknown field `%s`, %s", e.Field, oneOf(e.OneOf, "there are no fields"))
	case ErrUnknownVariant:
		return fmt.Sprintf("unknown variant `%s`, %s", e.Field, oneOf(e.OneOf, "there are no variants"))
	default:
		return e.Kind.String()
	}
}

func oneOf(names []string, none string) string {
	switch len(names) {
	case 0:
		return none
	case 1:
		return fmt.Sprintf("expected `%s`", names[0])
	case 2:
		return fmt.Sprintf("expected `%s` or `%s`", names[0], names[1])
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return "expected one of " + strings.Join(quoted, ", ")
}

// Custom returns an ErrCustom error with msg as its text.
func Custom(msg string) *Error { return &Error{Kind: ErrCustom, Detail: msg} }

// Customf is Custom with formatting.
func Customf(format string, args ...any) *Error {
	return Custom(fmt.Sprintf(format, args...))
}

// UnknownField reports a key that no field claims.
func UnknownField(name string, expected []string) *Error {
	return &Error{Kind: ErrUnknownField, Field: name, OneOf: expected}
}

// UnknownVariant reports an enum identifier outside the declared variants.
func UnknownVariant(name string, expected []string) *Error {
	return &Error{Kind: ErrUnknownVariant, Field: name, OneOf: expected}
}

// MissingField reports a required field absent from the input.
func MissingField(name string) *Error { return &Error{Kind: ErrMissingField, Field: name} }

// InvalidType reports a value of the wrong shape. unexpected and expected
// are descriptions such as "string \"x\"" and "a boolean".
func InvalidType(unexpected, expected string) *Error {
	return &Error{Kind: ErrTypeMismatch, Unexpected: unexpected, Expected: expected}
}

// InvalidLength reports a sequence or map holding n elements.
func InvalidLength(n int, expected string) *Error {
	return &Error{Kind: ErrInvalidLength, Unexpected: fmt.Sprint(n), Expected: expected}
}
