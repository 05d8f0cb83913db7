package untangle

import (
	"strconv"
	"unicode/utf8"
)

// Typed receivers. They hold the coercion rules, so live and replayed
// input accept exactly the same encodings.

type boolVisitor struct {
	Expected
	out bool
}

func (b *boolVisitor) VisitBool(v bool) error { b.out = v; return nil }

func DecodeBool(d Decoder) (bool, error) {
	v := &boolVisitor{Expected: "a boolean"}
	err := d.DecodeBool(v)
	return v.out, err
}

func DecodeInt8(d Decoder) (int8, error) {
	v := newSignedVisitor(8)
	err := d.DecodeInt8(v)
	return int8(v.out), err
}

func DecodeInt16(d Decoder) (int16, error) {
	v := newSignedVisitor(16)
	err := d.DecodeInt16(v)
	return int16(v.out), err
}

func DecodeInt32(d Decoder) (int32, error) {
	v := newSignedVisitor(32)
	err := d.DecodeInt32(v)
	return int32(v.out), err
}

func DecodeInt64(d Decoder) (int64, error) {
	v := newSignedVisitor(64)
	err := d.DecodeInt64(v)
	return v.out, err
}

func DecodeUint8(d Decoder) (uint8, error) {
	v := newUnsignedVisitor(8)
	err := d.DecodeUint8(v)
	return uint8(v.out), err
}

func DecodeUint16(d Decoder) (uint16, error) {
	v := newUnsignedVisitor(16)
	err := d.DecodeUint16(v)
	return uint16(v.out), err
}

func DecodeUint32(d Decoder) (uint32, error) {
	v := newUnsignedVisitor(32)
	err := d.DecodeUint32(v)
	return uint32(v.out), err
}

func DecodeUint64(d Decoder) (uint64, error) {
	v := newUnsignedVisitor(64)
	err := d.DecodeUint64(v)
	return v.out, err
}

func DecodeFloat32(d Decoder) (float32, error) {
	v := &floatVisitor{Expected: "f32"}
	err := d.DecodeFloat32(v)
	return float32(v.out), err
}

func DecodeFloat64(d Decoder) (float64, error) {
	v := &floatVisitor{Expected: "f64"}
	err := d.DecodeFloat64(v)
	return v.out, err
}

type charVisitor struct {
	Expected
	out rune
}

func (c *charVisitor) VisitChar(v rune) error { c.out = v; return nil }

func (c *charVisitor) VisitString(v string) error {
	r, n := utf8.DecodeRuneInString(v)
	if n == 0 || n != len(v) {
		return c.Expected.VisitString(v)
	}
	c.out = r
	return nil
}

func DecodeChar(d Decoder) (rune, error) {
	v := &charVisitor{Expected: "a character"}
	err := d.DecodeChar(v)
	return v.out, err
}

// stringVisitor accepts strings, characters and UTF-8 byte arrays.
type stringVisitor struct {
	Expected
	out string
}

func (s *stringVisitor) VisitString(v string) error { s.out = v; return nil }
func (s *stringVisitor) VisitChar(v rune) error     { s.out = string(v); return nil }

func (s *stringVisitor) VisitBytes(v []byte) error {
	if !utf8.Valid(v) {
		return &Error{Kind: ErrInvalidUTF8, Unexpected: "byte array", Expected: string(s.Expected)}
	}
	s.out = string(v)
	return nil
}

func DecodeString(d Decoder) (string, error) {
	v := &stringVisitor{Expected: "a string"}
	err := d.DecodeString(v)
	return v.out, err
}

// bytesVisitor accepts byte arrays, strings and sequences of u8.
type bytesVisitor struct {
	Expected
	out []byte
}

func (b *bytesVisitor) VisitBytes(v []byte) error  { b.out = append([]byte{}, v...); return nil }
func (b *bytesVisitor) VisitString(v string) error { b.out = []byte(v); return nil }

func (b *bytesVisitor) VisitSeq(seq SeqAccess) (err error) {
	b.out, err = byteSeq(seq)
	return err
}

func byteSeq(seq SeqAccess) ([]byte, error) {
	out := make([]byte, 0, max(seq.Len(), 0))
	for {
		elem, ok, err := seq.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		u, err := DecodeUint8(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
}

func DecodeBytes(d Decoder) ([]byte, error) {
	v := &bytesVisitor{Expected: "a byte array"}
	err := d.DecodeBytes(v)
	return v.out, err
}

type unitVisitor struct{ Expected }

func (unitVisitor) VisitUnit() error             { return nil }
func (unitVisitor) VisitUnitStruct(string) error { return nil }

func DecodeUnit(d Decoder) error { return d.DecodeUnit(unitVisitor{"unit"}) }

// DecodeUnitStruct reads a unit record named name. Plain unit is accepted.
func DecodeUnitStruct(d Decoder, name string) error {
	return d.DecodeUnitStruct(name, unitVisitor{Expected("unit struct " + name)})
}

type newtypeVisitor struct {
	Expected
	fn func(Decoder) error
}

func (n *newtypeVisitor) VisitNewtype(_ string, d Decoder) error { return n.fn(d) }

// DecodeNewtype reads a newtype record named name and hands its inner
// value to fn. Formats without newtype records pass the value itself.
func DecodeNewtype(d Decoder, name string, fn func(inner Decoder) error) error {
	return d.DecodeNewtypeStruct(name, &newtypeVisitor{Expected: Expected("tuple struct " + name), fn: fn})
}

type optionVisitor[T any] struct {
	Expected
	fn  func(Decoder) (T, error)
	out *T
}

func (o *optionVisitor[T]) VisitNone() error { return nil }
func (o *optionVisitor[T]) VisitUnit() error { return nil }

func (o *optionVisitor[T]) VisitSome(d Decoder) error {
	v, err := o.fn(d)
	if err != nil {
		return err
	}
	o.out = &v
	return nil
}

// DecodeOption reads an optional value; absence and unit both yield nil.
func DecodeOption[T any](d Decoder, fn func(Decoder) (T, error)) (*T, error) {
	v := &optionVisitor[T]{Expected: "option", fn: fn}
	if err := d.DecodeOption(v); err != nil {
		return nil, err
	}
	return v.out, nil
}

type seqVisitor struct {
	Expected
	fn func(Decoder) error
}

func (s *seqVisitor) VisitSeq(seq SeqAccess) error {
	for {
		elem, ok, err := seq.Next()
		if err != nil || !ok {
			return err
		}
		if err := s.fn(elem); err != nil {
			return err
		}
	}
}

// DecodeSeq calls fn with the decoder of each element in turn.
func DecodeSeq(d Decoder, fn func(elem Decoder) error) error {
	return d.DecodeSeq(&seqVisitor{Expected: "a sequence", fn: fn})
}

type tupleVisitor struct {
	Expected
	n  int
	fn func(int, Decoder) error
}

func (t *tupleVisitor) VisitSeq(seq SeqAccess) error {
	for i := 0; i < t.n; i++ {
		elem, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			return InvalidLength(i, string(t.Expected))
		}
		if err := t.fn(i, elem); err != nil {
			return err
		}
	}
	if n := seq.Len(); n > t.n {
		return InvalidLength(n, string(t.Expected))
	}
	return nil
}

// DecodeTuple reads a sequence of exactly n elements.
func DecodeTuple(d Decoder, n int, fn func(i int, elem Decoder) error) error {
	return d.DecodeTuple(n, &tupleVisitor{Expected: Expected("a tuple of size " + strconv.Itoa(n)), n: n, fn: fn})
}

type entriesVisitor struct {
	Expected
	fn func(*Content, Decoder) error
}

func (e *entriesVisitor) VisitMap(m MapAccess) error {
	for {
		kd, ok, err := m.NextKey()
		if err != nil || !ok {
			return err
		}
		key, err := Buffer(kd)
		if err != nil {
			return err
		}
		vd, err := m.NextValue()
		if err != nil {
			return err
		}
		if err := e.fn(key, vd); err != nil {
			return err
		}
	}
}

// DecodeEntries reads a map. Each key is buffered so it can be inspected
// before its value is decoded.
func DecodeEntries(d Decoder, fn func(key *Content, value Decoder) error) error {
	return d.DecodeMap(&entriesVisitor{Expected: "a map", fn: fn})
}

type structVisitor struct {
	Expected
	fields []string
	fn     func(int, Decoder) error
}

func (s *structVisitor) VisitMap(m MapAccess) error {
	for {
		kd, ok, err := m.NextKey()
		if err != nil || !ok {
			return err
		}
		i, _, err := identify(kd, s.fields)
		if err != nil {
			return err
		}
		vd, err := m.NextValue()
		if err != nil {
			return err
		}
		if i < 0 {
			err = Skip(vd)
		} else {
			err = s.fn(i, vd)
		}
		if err != nil {
			return err
		}
	}
}

// DecodeStruct reads a record with the given field names, calling fn with
// the field's position for every known field. Unknown fields are skipped.
func DecodeStruct(d Decoder, name string, fields []string, fn func(field int, value Decoder) error) error {
	return d.DecodeStruct(name, fields, &structVisitor{Expected: Expected("struct " + name), fields: fields, fn: fn})
}

type enumVisitor struct {
	Expected
	variants []string
	fn       func(int, VariantAccess) error
}

func (e *enumVisitor) VisitEnum(ea EnumAccess) error {
	id, va, err := ea.Variant()
	if err != nil {
		return err
	}
	i, label, err := identify(id, e.variants)
	if err != nil {
		return err
	}
	if i < 0 {
		return UnknownVariant(label, e.variants)
	}
	return e.fn(i, va)
}

// DecodeEnum reads an externally tagged enum value, calling fn with the
// variant's position and its payload.
func DecodeEnum(d Decoder, name string, variants []string, fn func(variant int, payload VariantAccess) error) error {
	return d.DecodeEnum(name, variants, &enumVisitor{Expected: Expected("enum " + name), variants: variants, fn: fn})
}

// identVisitor resolves a field or variant identifier given by name or by
// position.
type identVisitor struct {
	Expected
	names []string
	index int
	label string
}

func (v *identVisitor) VisitString(s string) error {
	v.label = s
	for i, n := range v.names {
		if n == s {
			v.index = i
			return nil
		}
	}
	return nil
}

func (v *identVisitor) VisitBytes(b []byte) error { return v.VisitString(string(b)) }
func (v *identVisitor) VisitChar(r rune) error    { return v.VisitString(string(r)) }

func (v *identVisitor) VisitUint8(u uint8) error   { return v.VisitUint64(uint64(u)) }
func (v *identVisitor) VisitUint16(u uint16) error { return v.VisitUint64(uint64(u)) }
func (v *identVisitor) VisitUint32(u uint32) error { return v.VisitUint64(uint64(u)) }

func (v *identVisitor) VisitUint64(u uint64) error {
	v.label = strconv.FormatUint(u, 10)
	if u < uint64(len(v.names)) {
		v.index = int(u)
	}
	return nil
}

func (v *identVisitor) VisitInt8(i int8) error   { return v.VisitInt64(int64(i)) }
func (v *identVisitor) VisitInt16(i int16) error { return v.VisitInt64(int64(i)) }
func (v *identVisitor) VisitInt32(i int32) error { return v.VisitInt64(int64(i)) }

func (v *identVisitor) VisitInt64(i int64) error {
	if i < 0 {
		v.label = strconv.FormatInt(i, 10)
		return nil
	}
	return v.VisitUint64(uint64(i))
}

// identify decodes an identifier and returns its position in names, or -1
// together with its printed form when it names nothing.
func identify(d Decoder, names []string) (int, string, error) {
	v := &identVisitor{Expected: "an identifier", names: names, index: -1}
	if err := d.DecodeIdentifier(v); err != nil {
		return -1, "", err
	}
	return v.index, v.label, nil
}

// Skip consumes one value of any shape.
func Skip(d Decoder) error { return d.DecodeIgnored(ignoreVisitor{}) }

type ignoreVisitor struct{}

func (ignoreVisitor) VisitBool(bool) error                   { return nil }
func (ignoreVisitor) VisitInt8(int8) error                   { return nil }
func (ignoreVisitor) VisitInt16(int16) error                 { return nil }
func (ignoreVisitor) VisitInt32(int32) error                 { return nil }
func (ignoreVisitor) VisitInt64(int64) error                 { return nil }
func (ignoreVisitor) VisitUint8(uint8) error                 { return nil }
func (ignoreVisitor) VisitUint16(uint16) error               { return nil }
func (ignoreVisitor) VisitUint32(uint32) error               { return nil }
func (ignoreVisitor) VisitUint64(uint64) error               { return nil }
func (ignoreVisitor) VisitFloat32(float32) error             { return nil }
func (ignoreVisitor) VisitFloat64(float64) error             { return nil }
func (ignoreVisitor) VisitChar(rune) error                   { return nil }
func (ignoreVisitor) VisitString(string) error               { return nil }
func (ignoreVisitor) VisitBytes([]byte) error                { return nil }
func (ignoreVisitor) VisitUnit() error                       { return nil }
func (ignoreVisitor) VisitUnitStruct(string) error           { return nil }
func (ignoreVisitor) VisitNone() error                       { return nil }
func (ignoreVisitor) VisitSome(d Decoder) error              { return Skip(d) }
func (ignoreVisitor) VisitNewtype(_ string, d Decoder) error { return Skip(d) }

func (ignoreVisitor) VisitSeq(s SeqAccess) error {
	for {
		elem, ok, err := s.Next()
		if err != nil || !ok {
			return err
		}
		if err := Skip(elem); err != nil {
			return err
		}
	}
}

func (ignoreVisitor) VisitMap(m MapAccess) error {
	for {
		k, ok, err := m.NextKey()
		if err != nil || !ok {
			return err
		}
		if err := Skip(k); err != nil {
			return err
		}
		v, err := m.NextValue()
		if err != nil {
			return err
		}
		if err := Skip(v); err != nil {
			return err
		}
	}
}

func (ignoreVisitor) VisitEnum(e EnumAccess) error {
	id, va, err := e.Variant()
	if err != nil {
		return err
	}
	if err := Skip(id); err != nil {
		return err
	}
	switch va.Shape() {
	case ShapeUnit:
		return va.Unit()
	case ShapeTuple:
		return va.Tuple(-1, ignoreVisitor{})
	case ShapeStruct:
		return va.Struct(nil, ignoreVisitor{})
	default:
		d, err := va.Newtype()
		if err != nil {
			return err
		}
		return Skip(d)
	}
}
