package tokentest

import (
	"fmt"

	"github.com/dadrian/untangle"
)

// Decoder reads a value from a token stream. Compound tokens must be
// closed by their matching end token.
type Decoder struct {
	untangle.Decoder
	s *stream
}

func NewDecoder(toks ...Token) *Decoder {
	s := &stream{toks: toks}
	return &Decoder{Decoder: untangle.Forward(&value{s: s}), s: s}
}

// Remaining is the number of tokens not consumed yet.
func (d *Decoder) Remaining() int { return len(d.s.toks) - d.s.pos }

type stream struct {
	toks []Token
	pos  int
}

func (s *stream) peek() (Token, bool) {
	if s.pos >= len(s.toks) {
		return Token{}, false
	}
	return s.toks[s.pos], true
}

func (s *stream) next() (Token, error) {
	t, ok := s.peek()
	if !ok {
		return Token{}, fmt.Errorf("tokentest: unexpected end of tokens")
	}
	s.pos++
	return t, nil
}

func (s *stream) expect(k Kind) error {
	t, err := s.next()
	if err != nil {
		return err
	}
	if t.Kind != k {
		return fmt.Errorf("tokentest: expected %v, found %v", k, t)
	}
	return nil
}

type value struct {
	s *stream
}

func (d *value) decoder() untangle.Decoder { return untangle.Forward(d) }

func (d *value) DecodeAny(v untangle.Visitor) error {
	t, err := d.s.next()
	if err != nil {
		return err
	}
	switch t.Kind {
	case KindBool:
		return v.VisitBool(t.V.(bool))
	case KindI8:
		return v.VisitInt8(t.V.(int8))
	case KindI16:
		return v.VisitInt16(t.V.(int16))
	case KindI32:
		return v.VisitInt32(t.V.(int32))
	case KindI64:
		return v.VisitInt64(t.V.(int64))
	case KindU8:
		return v.VisitUint8(t.V.(uint8))
	case KindU16:
		return v.VisitUint16(t.V.(uint16))
	case KindU32:
		return v.VisitUint32(t.V.(uint32))
	case KindU64:
		return v.VisitUint64(t.V.(uint64))
	case KindF32:
		return v.VisitFloat32(t.V.(float32))
	case KindF64:
		return v.VisitFloat64(t.V.(float64))
	case KindChar:
		return v.VisitChar(t.V.(rune))
	case KindStr:
		return v.VisitString(t.V.(string))
	case KindBytes:
		return v.VisitBytes(t.V.([]byte))
	case KindUnit:
		return v.VisitUnit()
	case KindNone:
		return v.VisitNone()
	case KindSome:
		return v.VisitSome(d.decoder())
	case KindUnitStruct:
		return v.VisitUnitStruct(t.Name)
	case KindNewtypeStruct:
		return v.VisitNewtype(t.Name, d.decoder())
	case KindSeq, KindTuple, KindTupleStruct:
		return d.visitSeq(t, v)
	case KindMap, KindStruct:
		return d.visitMap(t, v)
	case KindUnitVariant, KindNewtypeVariant, KindTupleVariant, KindStructVariant:
		return v.VisitEnum(&enumAccess{d: d, tok: t})
	}
	return fmt.Errorf("tokentest: unexpected %v", t)
}

func (d *value) DecodeOption(v untangle.Visitor) error {
	if t, ok := d.s.peek(); ok {
		switch t.Kind {
		case KindNone, KindSome, KindUnit:
			return d.DecodeAny(v)
		}
	}
	return fmt.Errorf("tokentest: expected None or Some, found %v", d.peekString())
}

func (d *value) DecodeEnum(_ string, _ []string, v untangle.Visitor) error {
	return d.DecodeAny(v)
}

// DecodeNewtypeStruct accepts the inner value without a NewtypeStruct
// token in front of it.
func (d *value) DecodeNewtypeStruct(name string, v untangle.Visitor) error {
	if t, ok := d.s.peek(); ok && t.Kind == KindNewtypeStruct {
		return d.DecodeAny(v)
	}
	return v.VisitNewtype(name, d.decoder())
}

func (d *value) peekString() string {
	if t, ok := d.s.peek(); ok {
		return t.String()
	}
	return "end of tokens"
}

// visitSeq hands the elements up to the closing token to v. Elements v
// leaves unread are skipped and reported as an invalid length.
func (d *value) visitSeq(open Token, v untangle.Visitor) error {
	acc := &seqAccess{d: d, open: open}
	if err := v.VisitSeq(acc); err != nil {
		return err
	}
	n, err := d.finish(open, acc.i)
	if err != nil {
		return err
	}
	if n > acc.i {
		return untangle.InvalidLength(n, fmt.Sprintf("%d elements in sequence", acc.i))
	}
	return nil
}

func (d *value) visitMap(open Token, v untangle.Visitor) error {
	acc := &mapAccess{d: d, open: open}
	if err := v.VisitMap(acc); err != nil {
		return err
	}
	n, err := d.finish(open, acc.i)
	if err != nil {
		return err
	}
	if n > acc.i {
		return untangle.InvalidLength(n, fmt.Sprintf("%d elements in map", acc.i))
	}
	return nil
}

// finish skips to the end token of open and returns the total element
// count, given read were consumed already.
func (d *value) finish(open Token, read int) (int, error) {
	end := closer(open.Kind)
	isMap := open.Kind == KindMap || open.Kind == KindStruct || open.Kind == KindStructVariant
	n := read
	for {
		t, ok := d.s.peek()
		if !ok {
			return 0, fmt.Errorf("tokentest: missing %v", end)
		}
		if t.Kind == end {
			d.s.pos++
			return n, nil
		}
		if err := untangle.Skip(d.decoder()); err != nil {
			return 0, err
		}
		if isMap {
			if err := untangle.Skip(d.decoder()); err != nil {
				return 0, err
			}
		}
		n++
	}
}

func (d *value) atEnd(open Token) bool {
	t, ok := d.s.peek()
	return !ok || t.Kind == closer(open.Kind)
}

type seqAccess struct {
	d    *value
	open Token
	i    int
}

func (s *seqAccess) Name() string { return s.open.Name }
func (s *seqAccess) Len() int     { return s.open.Len }

func (s *seqAccess) Next() (untangle.Decoder, bool, error) {
	if s.d.atEnd(s.open) {
		return nil, false, nil
	}
	s.i++
	return s.d.decoder(), true, nil
}

type mapAccess struct {
	d    *value
	open Token
	i    int
}

func (m *mapAccess) Name() string { return m.open.Name }
func (m *mapAccess) Len() int     { return m.open.Len }

func (m *mapAccess) NextKey() (untangle.Decoder, bool, error) {
	if m.d.atEnd(m.open) {
		return nil, false, nil
	}
	m.i++
	return m.d.decoder(), true, nil
}

func (m *mapAccess) NextValue() (untangle.Decoder, error) { return m.d.decoder(), nil }

type enumAccess struct {
	d   *value
	tok Token
}

func (e *enumAccess) Name() string { return e.tok.Name }

func (e *enumAccess) Variant() (untangle.Decoder, untangle.VariantAccess, error) {
	return untangle.NewDecoder(untangle.Str(e.tok.Variant)), e, nil
}

func (e *enumAccess) Shape() untangle.Shape {
	switch e.tok.Kind {
	case KindUnitVariant:
		return untangle.ShapeUnit
	case KindNewtypeVariant:
		return untangle.ShapeNewtype
	case KindTupleVariant:
		return untangle.ShapeTuple
	}
	return untangle.ShapeStruct
}

func (e *enumAccess) Unit() error {
	if e.tok.Kind != KindUnitVariant {
		return untangle.InvalidType(e.tok.Kind.String(), "unit variant")
	}
	return nil
}

func (e *enumAccess) Newtype() (untangle.Decoder, error) {
	if e.tok.Kind != KindNewtypeVariant {
		return nil, untangle.InvalidType(e.tok.Kind.String(), "newtype variant")
	}
	return e.d.decoder(), nil
}

func (e *enumAccess) Tuple(_ int, v untangle.Visitor) error {
	if e.tok.Kind != KindTupleVariant {
		return untangle.InvalidType(e.tok.Kind.String(), "tuple variant")
	}
	return e.d.visitSeq(e.tok, v)
}

func (e *enumAccess) Struct(_ []string, v untangle.Visitor) error {
	if e.tok.Kind != KindStructVariant {
		return untangle.InvalidType(e.tok.Kind.String(), "struct variant")
	}
	return e.d.visitMap(e.tok, v)
}
