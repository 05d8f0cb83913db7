package relish

import (
	"errors"
	"fmt"

	intr "github.com/dadrian/untangle/relish/internal"
)

// ErrorKind classifies decoding/encoding errors.
type ErrorKind int

const (
	ErrInvalidTypeID ErrorKind = iota + 1
	ErrInvalidFieldID
	ErrFieldOrder
	ErrDuplicateMapKey
	ErrInvalidUTF8
	ErrLengthOverflow
	ErrUnexpectedEOF
	ErrTypeMismatch
	ErrEnumLengthMismatch
	ErrUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidTypeID:
		return "invalid type id"
	case ErrInvalidFieldID:
		return "invalid field id"
	case ErrFieldOrder:
		return "field order"
	case ErrDuplicateMapKey:
		return "duplicate map key"
	case ErrInvalidUTF8:
		return "invalid utf-8"
	case ErrLengthOverflow:
		return "length overflow"
	case ErrUnexpectedEOF:
		return "unexpected eof"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrEnumLengthMismatch:
		return "enum length mismatch"
	case ErrUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error carries offset and classification for better diagnostics.
type Error struct {
	Offset int64
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset > 0 {
		return fmt.Sprintf("relish: %v at %d: %s", e.Kind, e.Offset, e.Detail)
	}
	return fmt.Sprintf("relish: %v: %s", e.Kind, e.Detail)
}

// wireError classifies an error from the wire layer.
func wireError(err error, off int64) error {
	switch {
	case errors.Is(err, intr.ErrShort):
		return &Error{Offset: off, Kind: ErrUnexpectedEOF, Detail: err.Error()}
	case errors.Is(err, intr.ErrTypeID), errors.Is(err, intr.ErrType):
		return &Error{Offset: off, Kind: ErrInvalidTypeID, Detail: err.Error()}
	case errors.Is(err, intr.ErrLength):
		return &Error{Offset: off, Kind: ErrLengthOverflow, Detail: err.Error()}
	}
	return err
}

func errorf(off int64, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Offset: off, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
