package jsonfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dadrian/untangle"
	"github.com/tidwall/jsonc"
)

// SyntaxError reports malformed input at a byte offset of the comment-free
// text.
type SyntaxError struct {
	Offset int64
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jsonfmt: offset %d: %s", e.Offset, e.Msg)
}

// Decoder reads a sequence of JSON values. Comments and trailing commas
// are accepted.
type Decoder struct {
	s    *stream
	opts []untangle.Option
}

// NewDecoder returns a decoder over data. The options apply to Decode.
func NewDecoder(data []byte, opts ...untangle.Option) *Decoder {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	return &Decoder{s: &stream{dec: dec}, opts: opts}
}

// Next returns a decoder positioned at the next top-level value. It returns
// io.EOF when the input is exhausted. The value must be consumed before
// Next is called again.
func (d *Decoder) Next() (untangle.Decoder, error) {
	if _, err := d.s.peek(); err != nil {
		return nil, err
	}
	return untangle.Forward(&value{s: d.s}), nil
}

// Decode reads the next value into v.
func (d *Decoder) Decode(v any) error {
	vd, err := d.Next()
	if err != nil {
		return err
	}
	return untangle.Unmarshal(vd, v, d.opts...)
}

// Unmarshal decodes exactly one JSON value from data into v.
func Unmarshal(data []byte, v any, opts ...untangle.Option) error {
	d := NewDecoder(data, opts...)
	if err := d.Decode(v); err != nil {
		if err == io.EOF {
			return &SyntaxError{Msg: "no value"}
		}
		return err
	}
	return d.end()
}

// Parse reads exactly one value and returns it as a tree.
func Parse(data []byte) (*untangle.Content, error) {
	d := NewDecoder(data)
	vd, err := d.Next()
	if err == io.EOF {
		return nil, &SyntaxError{Msg: "no value"}
	}
	if err != nil {
		return nil, err
	}
	c, err := untangle.Buffer(vd)
	if err != nil {
		return nil, err
	}
	return c, d.end()
}

func (d *Decoder) end() error {
	_, err := d.s.peek()
	switch {
	case err == io.EOF:
		return nil
	case err != nil:
		return err
	}
	return &SyntaxError{Offset: d.s.dec.InputOffset(), Msg: "trailing data after value"}
}

// stream is a token reader with one token of lookahead.
type stream struct {
	dec  *json.Decoder
	tok  json.Token
	err  error
	have bool
}

func (s *stream) peek() (json.Token, error) {
	if !s.have {
		s.tok, s.err = s.dec.Token()
		s.have = true
	}
	return s.tok, s.err
}

// next consumes a token inside a value, where running out of input is
// always an error.
func (s *stream) next() (json.Token, error) {
	tok, err := s.peekIn()
	if err != nil {
		return nil, err
	}
	s.have = false
	return tok, nil
}

func (s *stream) peekIn() (json.Token, error) {
	tok, err := s.peek()
	if errors.Is(err, io.EOF) {
		return nil, &SyntaxError{Offset: s.dec.InputOffset(), Msg: "unexpected end of input"}
	}
	return tok, err
}

func (s *stream) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: s.dec.InputOffset(), Msg: fmt.Sprintf(format, args...)}
}

// value decodes one JSON value from the stream.
type value struct {
	s *stream
}

func (v *value) DecodeAny(vis untangle.Visitor) error {
	tok, err := v.s.next()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case nil:
		return vis.VisitUnit()
	case bool:
		return vis.VisitBool(t)
	case json.Number:
		return visitNumber(t, vis)
	case string:
		return vis.VisitString(t)
	case json.Delim:
		switch t {
		case '[':
			return v.s.visitSeq(vis)
		case '{':
			return v.s.visitMap(vis)
		}
	}
	return v.s.errorf("unexpected %v", tok)
}

// visitNumber picks the narrowest reading: unsigned, then signed, then
// floating point.
func visitNumber(n json.Number, vis untangle.Visitor) error {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if strings.HasPrefix(s, "-") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return vis.VisitInt64(i)
			}
		} else if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return vis.VisitUint64(u)
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return untangle.Customf("number %s is out of range", s)
	}
	return vis.VisitFloat64(f)
}

// DecodeOption reads null as absent and anything else as present.
func (v *value) DecodeOption(vis untangle.Visitor) error {
	tok, err := v.s.peekIn()
	if err != nil {
		return err
	}
	if tok == nil {
		v.s.have = false
		return vis.VisitNone()
	}
	return vis.VisitSome(untangle.Forward(v))
}

// DecodeEnum accepts a string naming a unit variant or an object with a
// single key naming the variant and holding its payload.
func (v *value) DecodeEnum(name string, _ []string, vis untangle.Visitor) error {
	tok, err := v.s.peekIn()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case string:
		v.s.have = false
		return vis.VisitEnum(&unitVariant{enum: name, key: t})
	case json.Delim:
		if t != '{' {
			break
		}
		v.s.have = false
		key, err := v.s.next()
		if err != nil {
			return err
		}
		k, ok := key.(string)
		if !ok {
			return untangle.InvalidType("map", "enum "+name)
		}
		if err := vis.VisitEnum(&objectVariant{enum: name, key: k, s: v.s}); err != nil {
			return err
		}
		end, err := v.s.next()
		if err != nil {
			return err
		}
		if end != json.Delim('}') {
			return v.s.errorf("expected a single variant key in enum %s", name)
		}
		return nil
	}
	return v.DecodeAny(vis)
}

type unitVariant struct {
	enum, key string
}

func (u *unitVariant) Name() string { return u.enum }

func (u *unitVariant) Variant() (untangle.Decoder, untangle.VariantAccess, error) {
	return untangle.NewDecoder(untangle.Str(u.key)), u, nil
}

func (u *unitVariant) Shape() untangle.Shape { return untangle.ShapeUnit }
func (u *unitVariant) Unit() error           { return nil }

func (u *unitVariant) Newtype() (untangle.Decoder, error) {
	return nil, untangle.InvalidType("unit variant", "newtype variant")
}

func (u *unitVariant) Tuple(int, untangle.Visitor) error {
	return untangle.InvalidType("unit variant", "tuple variant")
}

func (u *unitVariant) Struct([]string, untangle.Visitor) error {
	return untangle.InvalidType("unit variant", "struct variant")
}

type objectVariant struct {
	enum, key string
	s         *stream
}

func (o *objectVariant) Name() string { return o.enum }

func (o *objectVariant) Variant() (untangle.Decoder, untangle.VariantAccess, error) {
	return untangle.NewDecoder(untangle.Str(o.key)), o, nil
}

func (o *objectVariant) Shape() untangle.Shape { return untangle.ShapeAny }

// Unit accepts an explicit null payload.
func (o *objectVariant) Unit() error {
	tok, err := o.s.next()
	if err != nil {
		return err
	}
	if tok != nil {
		return untangle.InvalidType(fmt.Sprintf("%v", tok), "unit variant")
	}
	return nil
}

func (o *objectVariant) Newtype() (untangle.Decoder, error) {
	return untangle.Forward(&value{s: o.s}), nil
}

func (o *objectVariant) Tuple(n int, vis untangle.Visitor) error {
	return untangle.Forward(&value{s: o.s}).DecodeTuple(n, vis)
}

func (o *objectVariant) Struct(fields []string, vis untangle.Visitor) error {
	return untangle.Forward(&value{s: o.s}).DecodeStruct(o.enum, fields, vis)
}

func (s *stream) visitSeq(vis untangle.Visitor) error {
	seq := &seqAccess{s: s}
	if err := vis.VisitSeq(seq); err != nil {
		return err
	}
	used := seq.n
	for {
		d, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := untangle.Skip(d); err != nil {
			return err
		}
	}
	if seq.n > used {
		return untangle.InvalidLength(seq.n, fmt.Sprintf("%d elements in sequence", used))
	}
	return nil
}

type seqAccess struct {
	s    *stream
	n    int
	done bool
}

func (a *seqAccess) Name() string { return "" }
func (a *seqAccess) Len() int     { return -1 }

func (a *seqAccess) Next() (untangle.Decoder, bool, error) {
	if a.done {
		return nil, false, nil
	}
	tok, err := a.s.peekIn()
	if err != nil {
		return nil, false, err
	}
	if tok == json.Delim(']') {
		a.s.have = false
		a.done = true
		return nil, false, nil
	}
	a.n++
	return untangle.Forward(&value{s: a.s}), true, nil
}

func (s *stream) visitMap(vis untangle.Visitor) error {
	m := &mapAccess{s: s}
	if err := vis.VisitMap(m); err != nil {
		return err
	}
	used := m.n
	for {
		_, ok, err := m.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		vd, err := m.NextValue()
		if err != nil {
			return err
		}
		if err := untangle.Skip(vd); err != nil {
			return err
		}
	}
	if m.n > used {
		return untangle.InvalidLength(m.n, fmt.Sprintf("%d elements in map", used))
	}
	return nil
}

type mapAccess struct {
	s    *stream
	n    int
	done bool
}

func (a *mapAccess) Name() string { return "" }
func (a *mapAccess) Len() int     { return -1 }

func (a *mapAccess) NextKey() (untangle.Decoder, bool, error) {
	if a.done {
		return nil, false, nil
	}
	tok, err := a.s.next()
	if err != nil {
		return nil, false, err
	}
	if tok == json.Delim('}') {
		a.done = true
		return nil, false, nil
	}
	key, ok := tok.(string)
	if !ok {
		return nil, false, a.s.errorf("object key %v is not a string", tok)
	}
	a.n++
	return untangle.NewDecoder(untangle.Str(key)), true, nil
}

func (a *mapAccess) NextValue() (untangle.Decoder, error) {
	return untangle.Forward(&value{s: a.s}), nil
}
