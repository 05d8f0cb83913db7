package relish

import (
	"io"
	"math"
	"time"
	"unicode/utf8"

	"github.com/dadrian/untangle"
	intr "github.com/dadrian/untangle/relish/internal"
)

// Encoder writes Relish-encoded values to an io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new streaming encoder.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes the TLV for v.
func (e *Encoder) Encode(v any) error {
	c, err := untangle.Marshal(v)
	if err != nil {
		return err
	}
	return e.WriteContent(c)
}

// WriteContent writes the TLV for a tree.
//
// Records become structs whose field ids are field positions, with absent
// fields left out. Sequences of one element type become arrays and mixed
// sequences positional structs. Variants become enums keyed by their index,
// so a variant read from a format without indexes cannot be written.
func (e *Encoder) WriteContent(c *untangle.Content) error {
	t, body, err := encode(c)
	if err != nil {
		return err
	}
	return e.write(t, body)
}

func (e *Encoder) write(t TypeID, body []byte) error {
	buf := intr.GetScratch()
	defer intr.PutScratch(buf)
	out, err := intr.AppendTLV(*buf, byte(t), body)
	if err != nil {
		return wireError(err, 0)
	}
	*buf = out
	_, err = e.w.Write(out)
	return err
}

// Primitive writers for values the tree has no kind for, or that are
// already at hand.
func (e *Encoder) WriteNull() error         { return e.write(TypeNull, nil) }
func (e *Encoder) WriteBool(v bool) error   { return e.write(encodeBool(v)) }
func (e *Encoder) WriteU8(v uint8) error    { return e.write(TypeU8, []byte{v}) }
func (e *Encoder) WriteU16(v uint16) error  { return e.write(TypeU16, le.AppendUint16(nil, v)) }
func (e *Encoder) WriteU32(v uint32) error  { return e.write(TypeU32, le.AppendUint32(nil, v)) }
func (e *Encoder) WriteU64(v uint64) error  { return e.write(TypeU64, le.AppendUint64(nil, v)) }
func (e *Encoder) WriteU128(v U128) error   { return e.write(TypeU128, v[:]) }
func (e *Encoder) WriteI8(v int8) error     { return e.write(TypeI8, []byte{byte(v)}) }
func (e *Encoder) WriteI16(v int16) error   { return e.write(TypeI16, le.AppendUint16(nil, uint16(v))) }
func (e *Encoder) WriteI32(v int32) error   { return e.write(TypeI32, le.AppendUint32(nil, uint32(v))) }
func (e *Encoder) WriteI64(v int64) error   { return e.write(TypeI64, le.AppendUint64(nil, uint64(v))) }
func (e *Encoder) WriteI128(v I128) error   { return e.write(TypeI128, v[:]) }
func (e *Encoder) WriteF32(v float32) error { return e.write(TypeF32, le.AppendUint32(nil, math.Float32bits(v))) }
func (e *Encoder) WriteF64(v float64) error { return e.write(TypeF64, le.AppendUint64(nil, math.Float64bits(v))) }

// WriteTimestamp writes whole seconds since the Unix epoch.
func (e *Encoder) WriteTimestamp(t time.Time) error {
	return e.write(TypeTimestamp, le.AppendUint64(nil, uint64(t.Unix())))
}

func (e *Encoder) WriteString(s string) error {
	t, body, err := encodeString(s)
	if err != nil {
		return err
	}
	return e.write(t, body)
}

func encodeBool(v bool) (TypeID, []byte) {
	if v {
		return TypeBool, []byte{0xFF}
	}
	return TypeBool, []byte{0x00}
}

func encodeString(s string) (TypeID, []byte, error) {
	if !utf8.ValidString(s) {
		return 0, nil, &Error{Kind: ErrInvalidUTF8, Detail: "string is not valid utf-8"}
	}
	return TypeString, []byte(s), nil
}

// encode returns the type id and content of c.
func encode(c *untangle.Content) (TypeID, []byte, error) {
	switch c.Kind() {
	case untangle.KindBool:
		t, b := encodeBool(c.Bool())
		return t, b, nil
	case untangle.KindU8:
		u, _ := c.Uint()
		return TypeU8, []byte{byte(u)}, nil
	case untangle.KindU16:
		u, _ := c.Uint()
		return TypeU16, le.AppendUint16(nil, uint16(u)), nil
	case untangle.KindU32:
		u, _ := c.Uint()
		return TypeU32, le.AppendUint32(nil, uint32(u)), nil
	case untangle.KindU64:
		u, _ := c.Uint()
		return TypeU64, le.AppendUint64(nil, u), nil
	case untangle.KindI8:
		i, _ := c.Int()
		return TypeI8, []byte{byte(i)}, nil
	case untangle.KindI16:
		i, _ := c.Int()
		return TypeI16, le.AppendUint16(nil, uint16(i)), nil
	case untangle.KindI32:
		i, _ := c.Int()
		return TypeI32, le.AppendUint32(nil, uint32(i)), nil
	case untangle.KindI64:
		i, _ := c.Int()
		return TypeI64, le.AppendUint64(nil, uint64(i)), nil
	case untangle.KindF32:
		f, _ := c.Float()
		return TypeF32, le.AppendUint32(nil, math.Float32bits(float32(f))), nil
	case untangle.KindF64:
		f, _ := c.Float()
		return TypeF64, le.AppendUint64(nil, math.Float64bits(f)), nil
	case untangle.KindChar:
		return encodeString(string(c.Char()))
	case untangle.KindString:
		return encodeString(c.Str())
	case untangle.KindBytes:
		return TypeArray, append([]byte{byte(TypeU8)}, c.Bytes()...), nil
	case untangle.KindUnit, untangle.KindNone:
		return TypeNull, nil, nil
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return encode(c.Inner())
	case untangle.KindUnitRecord:
		return TypeStruct, nil, nil
	case untangle.KindSeq:
		return encodeSeq(c.Elems())
	case untangle.KindTupleRecord:
		return encodePositional(c.Elems())
	case untangle.KindFieldRecord:
		return encodeFields(c.Name(), c.Fields())
	case untangle.KindMap:
		return encodeMap(c.Entries())
	case untangle.KindUnitVariant, untangle.KindNewtypeVariant, untangle.KindTupleVariant, untangle.KindStructVariant:
		return encodeVariant(c)
	}
	return 0, nil, &Error{Kind: ErrUnsupported, Detail: "cannot encode " + c.Kind().String()}
}

type encoded struct {
	t    TypeID
	body []byte
}

func encodeAll(elems []*untangle.Content) ([]encoded, error) {
	out := make([]encoded, len(elems))
	for i, c := range elems {
		t, b, err := encode(c)
		if err != nil {
			return nil, err
		}
		out[i] = encoded{t, b}
	}
	return out, nil
}

// sameType returns the shared type of elems, TypeNull when there are none,
// and false when they differ.
func sameType(elems []encoded) (TypeID, bool) {
	if len(elems) == 0 {
		return TypeNull, true
	}
	t := elems[0].t
	for _, e := range elems[1:] {
		if e.t != t {
			return 0, false
		}
	}
	return t, true
}

// encodeSeq writes an array when every element has the same non-null type
// and a positional struct otherwise.
func encodeSeq(elems []*untangle.Content) (TypeID, []byte, error) {
	enc, err := encodeAll(elems)
	if err != nil {
		return 0, nil, err
	}
	et, ok := sameType(enc)
	if !ok || (et == TypeNull && len(enc) > 0) {
		return positional(enc)
	}
	body := []byte{byte(et)}
	for _, e := range enc {
		if body, err = intr.AppendElem(body, byte(et), e.body); err != nil {
			return 0, nil, wireError(err, 0)
		}
	}
	return TypeArray, body, nil
}

func encodePositional(elems []*untangle.Content) (TypeID, []byte, error) {
	enc, err := encodeAll(elems)
	if err != nil {
		return 0, nil, err
	}
	return positional(enc)
}

func positional(enc []encoded) (TypeID, []byte, error) {
	if len(enc) > 0x80 {
		return 0, nil, &Error{Kind: ErrInvalidFieldID, Detail: "more than 128 positional fields"}
	}
	var body []byte
	var err error
	for i, e := range enc {
		body = append(body, byte(i))
		if body, err = intr.AppendTLV(body, byte(e.t), e.body); err != nil {
			return 0, nil, wireError(err, 0)
		}
	}
	return TypeStruct, body, nil
}

// encodeFields writes a struct whose field ids are positions. Absent fields
// are skipped but keep their id.
func encodeFields(name string, fields []untangle.Field) (TypeID, []byte, error) {
	if len(fields) > 0x80 {
		return 0, nil, errorf(0, ErrInvalidFieldID, "struct %s has %d fields", name, len(fields))
	}
	var body []byte
	for i, f := range fields {
		if f.Value.Kind() == untangle.KindNone {
			continue
		}
		t, b, err := encode(f.Value)
		if err != nil {
			return 0, nil, err
		}
		body = append(body, byte(i))
		if body, err = intr.AppendTLV(body, byte(t), b); err != nil {
			return 0, nil, wireError(err, 0)
		}
	}
	return TypeStruct, body, nil
}

func encodeMap(entries []untangle.Entry) (TypeID, []byte, error) {
	keys := make([]*untangle.Content, len(entries))
	vals := make([]*untangle.Content, len(entries))
	for i, e := range entries {
		keys[i], vals[i] = e.Key, e.Value
	}
	ke, err := encodeAll(keys)
	if err != nil {
		return 0, nil, err
	}
	ve, err := encodeAll(vals)
	if err != nil {
		return 0, nil, err
	}
	kt, kok := sameType(ke)
	vt, vok := sameType(ve)
	if !kok || !vok {
		return 0, nil, &Error{Kind: ErrTypeMismatch, Detail: "map keys and values must each share one type"}
	}
	body := []byte{byte(kt), byte(vt)}
	for i := range ke {
		if body, err = intr.AppendElem(body, byte(kt), ke[i].body); err != nil {
			return 0, nil, wireError(err, 0)
		}
		if body, err = intr.AppendElem(body, byte(vt), ve[i].body); err != nil {
			return 0, nil, wireError(err, 0)
		}
	}
	return TypeMap, body, nil
}

func encodeVariant(c *untangle.Content) (TypeID, []byte, error) {
	idx := c.Index()
	if idx < 0 || idx > 0x7F {
		return 0, nil, errorf(0, ErrInvalidFieldID, "variant %s::%s has no usable index (%d)", c.Name(), c.Variant(), idx)
	}
	var (
		t    TypeID
		body []byte
		err  error
	)
	switch c.Kind() {
	case untangle.KindUnitVariant:
		t = TypeNull
	case untangle.KindNewtypeVariant:
		t, body, err = encode(c.Inner())
	case untangle.KindTupleVariant:
		t, body, err = encodePositional(c.Elems())
	default:
		t, body, err = encodeFields(c.Name(), c.Fields())
	}
	if err != nil {
		return 0, nil, err
	}
	out, err := intr.AppendTLV([]byte{byte(idx)}, byte(t), body)
	if err != nil {
		return 0, nil, wireError(err, 0)
	}
	return TypeEnum, out, nil
}
