package untangle

import "fmt"

// NewDecoder returns a Decoder that replays c. Replays share nothing but the
// tree, so any number of them may run over the same c.
func NewDecoder(c *Content) Decoder { return &contentDecoder{c: c} }

type contentDecoder struct {
	c *Content
}

func (d *contentDecoder) DecodeAny(v Visitor) error {
	c := d.c
	switch c.kind {
	case KindBool:
		return v.VisitBool(c.Bool())
	case KindU8:
		return v.VisitUint8(uint8(c.bits))
	case KindU16:
		return v.VisitUint16(uint16(c.bits))
	case KindU32:
		return v.VisitUint32(uint32(c.bits))
	case KindU64:
		return v.VisitUint64(c.bits)
	case KindI8:
		return v.VisitInt8(int8(c.bits))
	case KindI16:
		return v.VisitInt16(int16(c.bits))
	case KindI32:
		return v.VisitInt32(int32(c.bits))
	case KindI64:
		return v.VisitInt64(int64(c.bits))
	case KindF32:
		f, _ := c.Float()
		return v.VisitFloat32(float32(f))
	case KindF64:
		f, _ := c.Float()
		return v.VisitFloat64(f)
	case KindChar:
		return v.VisitChar(rune(c.bits))
	case KindString:
		return v.VisitString(c.str)
	case KindBytes:
		return v.VisitBytes(c.bytes)
	case KindUnit:
		return v.VisitUnit()
	case KindNone:
		return v.VisitNone()
	case KindSome:
		return v.VisitSome(NewDecoder(c.elems[0]))
	case KindUnitRecord:
		return v.VisitUnitStruct(c.name)
	case KindNewtypeRecord:
		return v.VisitNewtype(c.name, NewDecoder(c.elems[0]))
	case KindSeq, KindTupleRecord:
		return visitSeq(c.name, c.elems, v)
	case KindFieldRecord:
		return visitEntries(c.name, fieldEntries(c.fields), v)
	case KindMap:
		return visitEntries("", c.entries, v)
	case KindUnitVariant, KindNewtypeVariant, KindTupleVariant, KindStructVariant:
		return v.VisitEnum(variantOf(c))
	}
	return fmt.Errorf("untangle: cannot replay content of kind %v", c.kind)
}

func (d *contentDecoder) DecodeBool(v Visitor) error    { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeInt8(v Visitor) error    { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeInt16(v Visitor) error   { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeInt32(v Visitor) error   { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeInt64(v Visitor) error   { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeUint8(v Visitor) error   { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeUint16(v Visitor) error  { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeUint32(v Visitor) error  { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeUint64(v Visitor) error  { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeFloat32(v Visitor) error { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeFloat64(v Visitor) error { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeChar(v Visitor) error    { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeString(v Visitor) error  { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeBytes(v Visitor) error   { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeUnit(v Visitor) error    { return d.DecodeAny(v) }

// DecodeOption treats None and Unit as absent and unwraps Some. Anything
// else is a present value holding itself.
func (d *contentDecoder) DecodeOption(v Visitor) error {
	switch d.c.kind {
	case KindNone:
		return v.VisitNone()
	case KindUnit:
		return v.VisitUnit()
	case KindSome:
		return v.VisitSome(NewDecoder(d.c.elems[0]))
	}
	return v.VisitSome(d)
}

func (d *contentDecoder) DecodeUnitStruct(name string, v Visitor) error { return d.DecodeAny(v) }

// DecodeNewtypeStruct is transparent: a stored newtype record yields its
// inner value, anything else stands for itself.
func (d *contentDecoder) DecodeNewtypeStruct(name string, v Visitor) error {
	if d.c.kind == KindNewtypeRecord {
		return v.VisitNewtype(d.c.name, NewDecoder(d.c.elems[0]))
	}
	return v.VisitNewtype(name, d)
}

func (d *contentDecoder) DecodeSeq(v Visitor) error                          { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeTuple(_ int, v Visitor) error                 { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeTupleStruct(_ string, _ int, v Visitor) error { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeMap(v Visitor) error                          { return d.DecodeAny(v) }
func (d *contentDecoder) DecodeStruct(_ string, _ []string, v Visitor) error { return d.DecodeAny(v) }

// DecodeEnum accepts variant nodes, single-entry maps keyed by the variant
// and bare strings naming a unit variant.
func (d *contentDecoder) DecodeEnum(name string, _ []string, v Visitor) error {
	c := d.c
	switch {
	case c.kind.isVariant():
		return v.VisitEnum(variantOf(c))
	case c.kind == KindString:
		return v.VisitEnum(&replayVariant{enum: name, key: c, shape: ShapeUnit})
	case c.kind == KindMap && len(c.entries) == 1:
		e := c.entries[0]
		return v.VisitEnum(&replayVariant{enum: name, key: e.Key, shape: ShapeAny, payload: e.Value})
	}
	return d.DecodeAny(v)
}

func (d *contentDecoder) DecodeIdentifier(v Visitor) error { return d.DecodeAny(v) }

// DecodeIgnored has nothing to consume.
func (d *contentDecoder) DecodeIgnored(v Visitor) error { return v.VisitUnit() }

func fieldEntries(fields []Field) []Entry {
	entries := make([]Entry, len(fields))
	for i, f := range fields {
		entries[i] = Entry{Key: Str(f.Name), Value: f.Value}
	}
	return entries
}

func visitSeq(name string, elems []*Content, v Visitor) error {
	s := &seqReplay{name: name, elems: elems}
	if err := v.VisitSeq(s); err != nil {
		return err
	}
	if s.i < len(elems) {
		return InvalidLength(len(elems), fmt.Sprintf("%d elements in sequence", s.i))
	}
	return nil
}

type seqReplay struct {
	name  string
	elems []*Content
	i     int
}

func (s *seqReplay) Name() string { return s.name }
func (s *seqReplay) Len() int     { return len(s.elems) }

func (s *seqReplay) Next() (Decoder, bool, error) {
	if s.i >= len(s.elems) {
		return nil, false, nil
	}
	s.i++
	return NewDecoder(s.elems[s.i-1]), true, nil
}

func visitEntries(name string, entries []Entry, v Visitor) error {
	m := &mapReplay{name: name, entries: entries}
	if err := v.VisitMap(m); err != nil {
		return err
	}
	if m.i < len(entries) {
		return InvalidLength(len(entries), fmt.Sprintf("%d elements in map", m.i))
	}
	return nil
}

type mapReplay struct {
	name    string
	entries []Entry
	i       int
}

func (m *mapReplay) Name() string { return m.name }
func (m *mapReplay) Len() int     { return len(m.entries) }

func (m *mapReplay) NextKey() (Decoder, bool, error) {
	if m.i >= len(m.entries) {
		return nil, false, nil
	}
	m.i++
	return NewDecoder(m.entries[m.i-1].Key), true, nil
}

func (m *mapReplay) NextValue() (Decoder, error) {
	if m.i == 0 {
		return nil, fmt.Errorf("untangle: NextValue called before NextKey")
	}
	return NewDecoder(m.entries[m.i-1].Value), nil
}

// replayVariant serves an enum value held in the tree. payload is the
// newtype value, a Seq for tuple variants, or a field record for struct
// variants.
type replayVariant struct {
	enum    string
	key     *Content
	shape   Shape
	payload *Content
}

func variantOf(c *Content) *replayVariant {
	rv := &replayVariant{enum: c.name, key: Str(c.variant)}
	switch c.kind {
	case KindUnitVariant:
		rv.shape = ShapeUnit
	case KindNewtypeVariant:
		rv.shape, rv.payload = ShapeNewtype, c.elems[0]
	case KindTupleVariant:
		rv.shape, rv.payload = ShapeTuple, Seq(c.elems...)
	case KindStructVariant:
		rv.shape, rv.payload = ShapeStruct, FieldRecord("", c.fields...)
	}
	return rv
}

func (r *replayVariant) Name() string { return r.enum }

func (r *replayVariant) Variant() (Decoder, VariantAccess, error) {
	return NewDecoder(r.key), r, nil
}

func (r *replayVariant) Shape() Shape { return r.shape }

func (r *replayVariant) Unit() error {
	switch {
	case r.shape == ShapeUnit:
		return nil
	case r.shape == ShapeAny && r.payload.kind == KindUnit:
		return nil
	}
	return r.mismatch(ShapeUnit)
}

func (r *replayVariant) Newtype() (Decoder, error) {
	if r.shape == ShapeUnit {
		return nil, r.mismatch(ShapeNewtype)
	}
	return NewDecoder(r.payload), nil
}

func (r *replayVariant) Tuple(n int, v Visitor) error {
	if r.shape != ShapeTuple && r.shape != ShapeAny {
		return r.mismatch(ShapeTuple)
	}
	return NewDecoder(r.payload).DecodeTuple(n, v)
}

func (r *replayVariant) Struct(fields []string, v Visitor) error {
	if r.shape != ShapeStruct && r.shape != ShapeAny {
		return r.mismatch(ShapeStruct)
	}
	return NewDecoder(r.payload).DecodeStruct("", fields, v)
}

func (r *replayVariant) mismatch(want Shape) error {
	got := r.shape.String()
	if r.shape == ShapeAny {
		got = r.payload.Unexpected()
	}
	return InvalidType(got, want.String())
}
