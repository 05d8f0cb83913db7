package untangle

// Buffer reads exactly one value from d and returns it as a Content tree.
// Errors from d are returned unchanged.
func Buffer(d Decoder) (*Content, error) {
	if r, ok := d.(*contentDecoder); ok {
		return r.c, nil
	}
	var b builder
	if err := d.DecodeAny(&b); err != nil {
		return nil, err
	}
	return b.out, nil
}

// builder is the Visitor that records whatever it is given.
type builder struct {
	out *Content
}

func (b *builder) set(c *Content) error { b.out = c; return nil }

func (b *builder) VisitBool(v bool) error       { return b.set(Bool(v)) }
func (b *builder) VisitInt8(v int8) error       { return b.set(I8(v)) }
func (b *builder) VisitInt16(v int16) error     { return b.set(I16(v)) }
func (b *builder) VisitInt32(v int32) error     { return b.set(I32(v)) }
func (b *builder) VisitInt64(v int64) error     { return b.set(I64(v)) }
func (b *builder) VisitUint8(v uint8) error     { return b.set(U8(v)) }
func (b *builder) VisitUint16(v uint16) error   { return b.set(U16(v)) }
func (b *builder) VisitUint32(v uint32) error   { return b.set(U32(v)) }
func (b *builder) VisitUint64(v uint64) error   { return b.set(U64(v)) }
func (b *builder) VisitFloat32(v float32) error { return b.set(F32(v)) }
func (b *builder) VisitFloat64(v float64) error { return b.set(F64(v)) }
func (b *builder) VisitChar(v rune) error       { return b.set(Char(v)) }
func (b *builder) VisitString(v string) error   { return b.set(Str(v)) }

func (b *builder) VisitBytes(v []byte) error {
	return b.set(Bytes(append([]byte{}, v...)))
}

func (b *builder) VisitUnit() error                  { return b.set(Unit()) }
func (b *builder) VisitUnitStruct(name string) error { return b.set(UnitRecord(name)) }
func (b *builder) VisitNone() error                  { return b.set(None()) }

func (b *builder) VisitSome(d Decoder) error {
	inner, err := Buffer(d)
	if err != nil {
		return err
	}
	return b.set(Some(inner))
}

func (b *builder) VisitNewtype(name string, d Decoder) error {
	inner, err := Buffer(d)
	if err != nil {
		return err
	}
	return b.set(NewtypeRecord(name, inner))
}

func (b *builder) VisitSeq(s SeqAccess) error {
	elems, err := bufferSeq(s)
	if err != nil {
		return err
	}
	if name := s.Name(); name != "" {
		return b.set(TupleRecord(name, elems...))
	}
	return b.set(Seq(elems...))
}

func bufferSeq(s SeqAccess) ([]*Content, error) {
	elems := make([]*Content, 0, max(s.Len(), 0))
	for {
		d, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return elems, nil
		}
		c, err := Buffer(d)
		if err != nil {
			return nil, err
		}
		elems = append(elems, c)
	}
}

// VisitMap keeps a named map as a field record when every key is a string,
// and as a plain map otherwise.
func (b *builder) VisitMap(m MapAccess) error {
	entries, err := bufferEntries(m)
	if err != nil {
		return err
	}
	name := m.Name()
	if name == "" {
		return b.set(Map(entries...))
	}
	fields := make([]Field, len(entries))
	for i, e := range entries {
		if e.Key.kind != KindString {
			return b.set(Map(entries...))
		}
		fields[i] = Field{Name: e.Key.str, Value: e.Value}
	}
	return b.set(FieldRecord(name, fields...))
}

func bufferEntries(m MapAccess) ([]Entry, error) {
	entries := make([]Entry, 0, max(m.Len(), 0))
	for {
		kd, ok, err := m.NextKey()
		if err != nil {
			return nil, err
		}
		if !ok {
			return entries, nil
		}
		k, err := Buffer(kd)
		if err != nil {
			return nil, err
		}
		vd, err := m.NextValue()
		if err != nil {
			return nil, err
		}
		v, err := Buffer(vd)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
}

// VisitEnum records a variant node. Identifiers that are not strings cannot
// name a variant, so such enums are kept as a single-entry map instead.
func (b *builder) VisitEnum(e EnumAccess) error {
	id, va, err := e.Variant()
	if err != nil {
		return err
	}
	key, err := Buffer(id)
	if err != nil {
		return err
	}
	if key.kind != KindString {
		d, err := va.Newtype()
		if err != nil {
			return err
		}
		v, err := Buffer(d)
		if err != nil {
			return err
		}
		return b.set(Map(Entry{Key: key, Value: v}))
	}
	enum, variant := e.Name(), key.str
	switch va.Shape() {
	case ShapeUnit:
		if err := va.Unit(); err != nil {
			return err
		}
		return b.set(UnitVariant(enum, variant, -1))
	case ShapeTuple:
		var s builder
		if err := va.Tuple(-1, &s); err != nil {
			return err
		}
		return b.set(TupleVariant(enum, variant, -1, s.out.elems...))
	case ShapeStruct:
		var s builder
		if err := va.Struct(nil, &s); err != nil {
			return err
		}
		return b.set(StructVariant(enum, variant, -1, recordFields(s.out)...))
	default:
		d, err := va.Newtype()
		if err != nil {
			return err
		}
		v, err := Buffer(d)
		if err != nil {
			return err
		}
		return b.set(NewtypeVariant(enum, variant, -1, v))
	}
}

// recordFields returns the fields of a buffered struct payload; non-string
// keys are printed.
func recordFields(c *Content) []Field {
	if c.kind == KindFieldRecord {
		return c.fields
	}
	fields := make([]Field, len(c.entries))
	for i, e := range c.entries {
		name := e.Key.str
		if e.Key.kind != KindString {
			name = e.Key.String()
		}
		fields[i] = Field{Name: name, Value: e.Value}
	}
	return fields
}
