package untangle

import (
	"fmt"
	"math"
)

// signedVisitor accepts any integer that fits in a signed integer of the
// given width.
type signedVisitor struct {
	Expected
	bits int
	out  int64
}

func newSignedVisitor(bits int) *signedVisitor {
	return &signedVisitor{Expected: Expected(fmt.Sprintf("i%d", bits)), bits: bits}
}

func (s *signedVisitor) VisitInt8(v int8) error   { return s.VisitInt64(int64(v)) }
func (s *signedVisitor) VisitInt16(v int16) error { return s.VisitInt64(int64(v)) }
func (s *signedVisitor) VisitInt32(v int32) error { return s.VisitInt64(int64(v)) }

func (s *signedVisitor) VisitInt64(v int64) error {
	lo, hi := int64(math.MinInt64)>>(64-s.bits), int64(math.MaxInt64)>>(64-s.bits)
	if v < lo || v > hi {
		return outOfRange(fmt.Sprintf("integer `%d`", v), s.Expected)
	}
	s.out = v
	return nil
}

func (s *signedVisitor) VisitUint8(v uint8) error   { return s.VisitUint64(uint64(v)) }
func (s *signedVisitor) VisitUint16(v uint16) error { return s.VisitUint64(uint64(v)) }
func (s *signedVisitor) VisitUint32(v uint32) error { return s.VisitUint64(uint64(v)) }

func (s *signedVisitor) VisitUint64(v uint64) error {
	if v > uint64(math.MaxInt64)>>(64-s.bits) {
		return outOfRange(fmt.Sprintf("integer `%d`", v), s.Expected)
	}
	s.out = int64(v)
	return nil
}

// unsignedVisitor accepts any non-negative integer that fits the width.
type unsignedVisitor struct {
	Expected
	bits int
	out  uint64
}

func newUnsignedVisitor(bits int) *unsignedVisitor {
	return &unsignedVisitor{Expected: Expected(fmt.Sprintf("u%d", bits)), bits: bits}
}

func (u *unsignedVisitor) VisitInt8(v int8) error   { return u.VisitInt64(int64(v)) }
func (u *unsignedVisitor) VisitInt16(v int16) error { return u.VisitInt64(int64(v)) }
func (u *unsignedVisitor) VisitInt32(v int32) error { return u.VisitInt64(int64(v)) }

func (u *unsignedVisitor) VisitInt64(v int64) error {
	if v < 0 {
		return outOfRange(fmt.Sprintf("integer `%d`", v), u.Expected)
	}
	return u.VisitUint64(uint64(v))
}

func (u *unsignedVisitor) VisitUint8(v uint8) error   { return u.VisitUint64(uint64(v)) }
func (u *unsignedVisitor) VisitUint16(v uint16) error { return u.VisitUint64(uint64(v)) }
func (u *unsignedVisitor) VisitUint32(v uint32) error { return u.VisitUint64(uint64(v)) }

func (u *unsignedVisitor) VisitUint64(v uint64) error {
	if v > uint64(math.MaxUint64)>>(64-u.bits) {
		return outOfRange(fmt.Sprintf("integer `%d`", v), u.Expected)
	}
	u.out = v
	return nil
}

// floatVisitor accepts floats and integers.
type floatVisitor struct {
	Expected
	out float64
}

func (f *floatVisitor) VisitInt8(v int8) error       { f.out = float64(v); return nil }
func (f *floatVisitor) VisitInt16(v int16) error     { f.out = float64(v); return nil }
func (f *floatVisitor) VisitInt32(v int32) error     { f.out = float64(v); return nil }
func (f *floatVisitor) VisitInt64(v int64) error     { f.out = float64(v); return nil }
func (f *floatVisitor) VisitUint8(v uint8) error     { f.out = float64(v); return nil }
func (f *floatVisitor) VisitUint16(v uint16) error   { f.out = float64(v); return nil }
func (f *floatVisitor) VisitUint32(v uint32) error   { f.out = float64(v); return nil }
func (f *floatVisitor) VisitUint64(v uint64) error   { f.out = float64(v); return nil }
func (f *floatVisitor) VisitFloat32(v float32) error { f.out = float64(v); return nil }
func (f *floatVisitor) VisitFloat64(v float64) error { f.out = v; return nil }

func outOfRange(unexpected string, expected Expected) *Error {
	return &Error{Kind: ErrOutOfRange, Unexpected: unexpected, Expected: string(expected)}
}
