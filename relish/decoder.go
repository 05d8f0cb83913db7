package relish

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"

	"github.com/dadrian/untangle"
	intr "github.com/dadrian/untangle/relish/internal"
)

// Decoder reads Relish-encoded values from an io.Reader.
type Decoder struct {
	r      io.Reader
	offset int64
	opts   []untangle.Option
}

// NewDecoder creates a new streaming decoder. The options apply to every
// Decode call.
func NewDecoder(r io.Reader, opts ...untangle.Option) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the next TLV into v.
func (d *Decoder) Decode(v any) error {
	val, err := d.Next()
	if err != nil {
		return err
	}
	return untangle.Unmarshal(val, v, d.opts...)
}

// Next reads the next TLV and returns a decoder over it. It returns io.EOF
// when the input ends cleanly between values.
func (d *Decoder) Next() (untangle.Decoder, error) {
	t, body, hdr, err := intr.ReadTLV(d.r)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, wireError(err, d.offset)
	}
	v := &value{t: t, body: body, off: d.offset + int64(hdr)}
	d.offset += int64(hdr + len(body))
	return v.decoder(), nil
}

// SkipValue reads and discards the next TLV.
func (d *Decoder) SkipValue() error {
	_, err := d.Next()
	return err
}

// value is one TLV whose content has been read. off is the stream offset of
// the content's first byte.
type value struct {
	t    byte
	body []byte
	off  int64
}

func (v *value) decoder() untangle.Decoder { return untangle.Forward(v) }

func (v *value) mismatch(want string) error {
	return errorf(v.off, ErrTypeMismatch, "expected %s, found %v", want, TypeID(v.t))
}

var le = binary.LittleEndian

func (v *value) DecodeAny(vis untangle.Visitor) error {
	b := v.body
	switch TypeID(v.t) {
	case TypeNull:
		return vis.VisitUnit()
	case TypeBool:
		switch b[0] {
		case 0x00:
			return vis.VisitBool(false)
		case 0xFF:
			return vis.VisitBool(true)
		}
		return errorf(v.off, ErrTypeMismatch, "invalid bool value 0x%02x", b[0])
	case TypeU8:
		return vis.VisitUint8(b[0])
	case TypeU16:
		return vis.VisitUint16(le.Uint16(b))
	case TypeU32:
		return vis.VisitUint32(le.Uint32(b))
	case TypeU64, TypeTimestamp:
		return vis.VisitUint64(le.Uint64(b))
	case TypeI8:
		return vis.VisitInt8(int8(b[0]))
	case TypeI16:
		return vis.VisitInt16(int16(le.Uint16(b)))
	case TypeI32:
		return vis.VisitInt32(int32(le.Uint32(b)))
	case TypeI64:
		return vis.VisitInt64(int64(le.Uint64(b)))
	case TypeU128, TypeI128:
		return vis.VisitBytes(b)
	case TypeF32:
		return vis.VisitFloat32(math.Float32frombits(le.Uint32(b)))
	case TypeF64:
		return vis.VisitFloat64(math.Float64frombits(le.Uint64(b)))
	case TypeString:
		if !utf8.Valid(b) {
			return errorf(v.off, ErrInvalidUTF8, "string is not valid utf-8")
		}
		return vis.VisitString(string(b))
	case TypeArray:
		elems, err := v.array()
		if err != nil {
			return err
		}
		return vis.VisitSeq(&seqAccess{elems: elems})
	case TypeMap:
		pairs, err := v.pairs()
		if err != nil {
			return err
		}
		return vis.VisitMap(&mapAccess{pairs: pairs})
	case TypeStruct:
		fields, err := v.fields()
		if err != nil {
			return err
		}
		return vis.VisitMap(&mapAccess{pairs: fields})
	case TypeEnum:
		vid, payload, err := v.enum()
		if err != nil {
			return err
		}
		return vis.VisitMap(&mapAccess{pairs: []pair{{key: untangle.U8(vid), val: payload}}})
	}
	return errorf(v.off, ErrInvalidTypeID, "unknown type id 0x%02x", v.t)
}

func (v *value) DecodeOption(vis untangle.Visitor) error {
	if TypeID(v.t) == TypeNull {
		return vis.VisitNone()
	}
	return vis.VisitSome(v.decoder())
}

// DecodeBytes reads array<u8> as one byte array.
func (v *value) DecodeBytes(vis untangle.Visitor) error {
	if TypeID(v.t) == TypeArray && len(v.body) > 0 && TypeID(v.body[0]) == TypeU8 {
		return vis.VisitBytes(v.body[1:])
	}
	return v.DecodeAny(vis)
}

func (v *value) DecodeUnitStruct(name string, vis untangle.Visitor) error {
	if TypeID(v.t) == TypeNull || (TypeID(v.t) == TypeStruct && len(v.body) == 0) {
		return vis.VisitUnitStruct(name)
	}
	return v.DecodeAny(vis)
}

// DecodeTuple reads a struct positionally, ignoring its field ids.
func (v *value) DecodeTuple(n int, vis untangle.Visitor) error {
	if TypeID(v.t) != TypeStruct {
		return v.DecodeAny(vis)
	}
	fields, err := v.fields()
	if err != nil {
		return err
	}
	elems := make([]*value, len(fields))
	for i, f := range fields {
		elems[i] = f.val
	}
	return vis.VisitSeq(&seqAccess{elems: elems})
}

func (v *value) DecodeStruct(name string, _ []string, vis untangle.Visitor) error {
	if TypeID(v.t) != TypeStruct {
		return v.DecodeAny(vis)
	}
	fields, err := v.fields()
	if err != nil {
		return err
	}
	return vis.VisitMap(&mapAccess{name: name, pairs: fields})
}

func (v *value) DecodeEnum(name string, _ []string, vis untangle.Visitor) error {
	if TypeID(v.t) != TypeEnum {
		return v.DecodeAny(vis)
	}
	vid, payload, err := v.enum()
	if err != nil {
		return err
	}
	return vis.VisitEnum(&enumAccess{name: name, vid: vid, payload: payload})
}

func (v *value) array() ([]*value, error) {
	s := intr.NewScanner(v.body, v.off)
	et, err := s.Type()
	if err != nil {
		return nil, wireError(err, s.Offset())
	}
	if n, ok := intr.FixedSize(et); ok && n == 0 && s.Len() > 0 {
		return nil, errorf(s.Offset(), ErrLengthOverflow, "array of %v has content", TypeID(et))
	}
	var elems []*value
	for s.Len() > 0 {
		b, off, err := s.Element(et)
		if err != nil {
			return nil, wireError(err, s.Offset())
		}
		elems = append(elems, &value{t: et, body: b, off: off})
	}
	return elems, nil
}

type pair struct {
	key *untangle.Content
	val *value
	raw *value
}

func (v *value) pairs() ([]pair, error) {
	s := intr.NewScanner(v.body, v.off)
	kt, err := s.Type()
	if err != nil {
		return nil, wireError(err, s.Offset())
	}
	vt, err := s.Type()
	if err != nil {
		return nil, wireError(err, s.Offset())
	}
	kn, kfixed := intr.FixedSize(kt)
	vn, vfixed := intr.FixedSize(vt)
	if kfixed && vfixed && kn+vn == 0 && s.Len() > 0 {
		return nil, errorf(s.Offset(), ErrLengthOverflow, "map of %v to %v has content", TypeID(kt), TypeID(vt))
	}
	var pairs []pair
	seen := make(map[string]struct{})
	for s.Len() > 0 {
		kb, koff, err := s.Element(kt)
		if err != nil {
			return nil, wireError(err, s.Offset())
		}
		if _, dup := seen[string(kb)]; dup {
			return nil, errorf(koff, ErrDuplicateMapKey, "duplicate %v key", TypeID(kt))
		}
		seen[string(kb)] = struct{}{}
		vb, voff, err := s.Element(vt)
		if err != nil {
			return nil, wireError(err, s.Offset())
		}
		pairs = append(pairs, pair{raw: &value{t: kt, body: kb, off: koff}, val: &value{t: vt, body: vb, off: voff}})
	}
	return pairs, nil
}

// fields reads struct content: field ids with their TLVs, ids strictly
// increasing.
func (v *value) fields() ([]pair, error) {
	s := intr.NewScanner(v.body, v.off)
	var fields []pair
	prev := -1
	for s.Len() > 0 {
		off := s.Offset()
		id, err := s.Byte()
		if err != nil {
			return nil, wireError(err, off)
		}
		if id&0x80 != 0 {
			return nil, errorf(off, ErrInvalidFieldID, "top bit set")
		}
		if int(id) <= prev {
			return nil, errorf(off, ErrFieldOrder, "field ids not strictly increasing")
		}
		prev = int(id)
		t, b, boff, err := s.TLV()
		if err != nil {
			return nil, wireError(err, s.Offset())
		}
		fields = append(fields, pair{key: untangle.U8(id), val: &value{t: t, body: b, off: boff}})
	}
	return fields, nil
}

func (v *value) enum() (byte, *value, error) {
	s := intr.NewScanner(v.body, v.off)
	vid, err := s.Byte()
	if err != nil {
		return 0, nil, errorf(v.off, ErrTypeMismatch, "enum content too short")
	}
	if vid&0x80 != 0 {
		return 0, nil, errorf(v.off, ErrInvalidFieldID, "variant id top bit set")
	}
	t, b, off, err := s.TLV()
	if err != nil {
		return 0, nil, wireError(err, s.Offset())
	}
	if s.Len() != 0 {
		return 0, nil, errorf(s.Offset(), ErrEnumLengthMismatch, "variant did not consume full length")
	}
	return vid, &value{t: t, body: b, off: off}, nil
}

type seqAccess struct {
	elems []*value
	i     int
}

func (s *seqAccess) Name() string { return "" }
func (s *seqAccess) Len() int     { return len(s.elems) }

func (s *seqAccess) Next() (untangle.Decoder, bool, error) {
	if s.i >= len(s.elems) {
		return nil, false, nil
	}
	s.i++
	return s.elems[s.i-1].decoder(), true, nil
}

type mapAccess struct {
	name  string
	pairs []pair
	i     int
}

func (m *mapAccess) Name() string { return m.name }
func (m *mapAccess) Len() int     { return len(m.pairs) }

func (m *mapAccess) NextKey() (untangle.Decoder, bool, error) {
	if m.i >= len(m.pairs) {
		return nil, false, nil
	}
	p := m.pairs[m.i]
	m.i++
	if p.raw != nil {
		return p.raw.decoder(), true, nil
	}
	return untangle.NewDecoder(p.key), true, nil
}

func (m *mapAccess) NextValue() (untangle.Decoder, error) {
	if m.i == 0 {
		return nil, errors.New("relish: NextValue before NextKey")
	}
	return m.pairs[m.i-1].val.decoder(), nil
}

type enumAccess struct {
	name    string
	vid     byte
	payload *value
}

func (e *enumAccess) Name() string { return e.name }

func (e *enumAccess) Variant() (untangle.Decoder, untangle.VariantAccess, error) {
	return untangle.NewDecoder(untangle.U8(e.vid)), variantAccess{e.payload}, nil
}

type variantAccess struct {
	payload *value
}

func (a variantAccess) Shape() untangle.Shape { return untangle.ShapeAny }

func (a variantAccess) Unit() error {
	if TypeID(a.payload.t) != TypeNull {
		return a.payload.mismatch("null")
	}
	return nil
}

func (a variantAccess) Newtype() (untangle.Decoder, error) { return a.payload.decoder(), nil }

func (a variantAccess) Tuple(n int, vis untangle.Visitor) error {
	return a.payload.DecodeTuple(n, vis)
}

func (a variantAccess) Struct(fields []string, vis untangle.Visitor) error {
	return a.payload.DecodeStruct("", fields, vis)
}
