package textrep

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dadrian/untangle"
	"github.com/dadrian/untangle/relish"
)

// Public API

// Parse reads one value written in the notation printed by
// (*untangle.Content).String. Variants carry no index, since the
// notation does not record one.
func Parse(src []byte) (*untangle.Content, error) {
	p := &parser{lx: newLexer(src)}
	p.lx.next()
	c, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.lx.cur.kind != tokEOF {
		return nil, p.errorf("trailing input")
	}
	return c, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// fixed literals.
func MustParse(src string) *untangle.Content {
	c, err := Parse([]byte(src))
	if err != nil {
		panic(err)
	}
	return c
}

// Encode reads a tree document from r and writes its Relish TLV to w.
func Encode(r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out, err := EncodeBytes(src)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// EncodeBytes parses a tree document and returns its Relish TLV bytes.
func EncodeBytes(src []byte) ([]byte, error) {
	c, err := Parse(src)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := relish.NewEncoder(&buf).WriteContent(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SyntaxError reports where parsing stopped.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("textrep: offset %d: %s", e.Offset, e.Msg)
}

type parser struct {
	lx *lexer
}

func (p *parser) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.lx.cur.kind == tokError {
		msg = p.lx.cur.lit
	}
	return &SyntaxError{Offset: p.lx.cur.off, Msg: msg}
}

func (p *parser) expect(k tokKind, what string) error {
	if p.lx.cur.kind != k {
		return p.errorf("expected %s, got %q", what, p.lx.cur.lit)
	}
	p.lx.next()
	return nil
}

func (p *parser) parseValue() (*untangle.Content, error) {
	tok := p.lx.cur
	switch tok.kind {
	case tokNumber:
		p.lx.next()
		c, err := parseNumber(tok.lit)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.off, Msg: err.Error()}
		}
		return c, nil
	case tokString:
		p.lx.next()
		return untangle.Str(tok.lit), nil
	case tokBytes:
		p.lx.next()
		return untangle.Bytes([]byte(tok.lit)), nil
	case tokChar:
		r, n := utf8.DecodeRuneInString(tok.lit)
		if n == 0 || n != len(tok.lit) {
			return nil, p.errorf("char literal must hold one rune")
		}
		p.lx.next()
		return untangle.Char(r), nil
	case tokLParen:
		p.lx.next()
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return untangle.Unit(), nil
	case tokLBrack:
		p.lx.next()
		elems, err := p.parseList(tokRBrack, "]")
		if err != nil {
			return nil, err
		}
		return untangle.Seq(elems...), nil
	case tokLBrace:
		p.lx.next()
		return p.parseMap()
	case tokIdent:
		return p.parseNamed()
	}
	return nil, p.errorf("unexpected %q", tok.lit)
}

// parseNamed handles keywords, records and enum variants.
func (p *parser) parseNamed() (*untangle.Content, error) {
	name := p.lx.cur.lit
	p.lx.next()
	switch name {
	case "true", "false":
		return untangle.Bool(name == "true"), nil
	case "None":
		return untangle.None(), nil
	case "Some":
		if err := p.expect(tokLParen, "( after Some"); err != nil {
			return nil, err
		}
		inner, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return untangle.Some(inner), nil
	}
	if p.lx.cur.kind == tokPath {
		p.lx.next()
		if p.lx.cur.kind != tokIdent {
			return nil, p.errorf("expected variant name after %s::", name)
		}
		variant := p.lx.cur.lit
		p.lx.next()
		return p.parseVariant(name, variant)
	}
	switch p.lx.cur.kind {
	case tokLParen:
		p.lx.next()
		elems, err := p.parseList(tokRParen, ")")
		if err != nil {
			return nil, err
		}
		if len(elems) == 1 {
			return untangle.NewtypeRecord(name, elems[0]), nil
		}
		return untangle.TupleRecord(name, elems...), nil
	case tokLBrace:
		p.lx.next()
		fields, err := p.parseFields()
		if err != nil {
			return nil, err
		}
		return untangle.FieldRecord(name, fields...), nil
	}
	return untangle.UnitRecord(name), nil
}

func (p *parser) parseVariant(enum, variant string) (*untangle.Content, error) {
	switch p.lx.cur.kind {
	case tokLParen:
		p.lx.next()
		elems, err := p.parseList(tokRParen, ")")
		if err != nil {
			return nil, err
		}
		if len(elems) == 1 {
			return untangle.NewtypeVariant(enum, variant, -1, elems[0]), nil
		}
		return untangle.TupleVariant(enum, variant, -1, elems...), nil
	case tokLBrace:
		p.lx.next()
		fields, err := p.parseFields()
		if err != nil {
			return nil, err
		}
		return untangle.StructVariant(enum, variant, -1, fields...), nil
	}
	return untangle.UnitVariant(enum, variant, -1), nil
}

// parseList reads comma-separated values up to the closing token. A
// trailing comma is allowed.
func (p *parser) parseList(end tokKind, what string) ([]*untangle.Content, error) {
	var elems []*untangle.Content
	for p.lx.cur.kind != end {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if p.lx.cur.kind != tokComma {
			break
		}
		p.lx.next()
	}
	if err := p.expect(end, what); err != nil {
		return nil, err
	}
	return elems, nil
}

func (p *parser) parseMap() (*untangle.Content, error) {
	var entries []untangle.Entry
	for p.lx.cur.kind != tokRBrace {
		k, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokColon, ":"); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		entries = append(entries, untangle.Entry{Key: k, Value: v})
		if p.lx.cur.kind != tokComma {
			break
		}
		p.lx.next()
	}
	if err := p.expect(tokRBrace, "}"); err != nil {
		return nil, err
	}
	return untangle.Map(entries...), nil
}

func (p *parser) parseFields() ([]untangle.Field, error) {
	var fields []untangle.Field
	for p.lx.cur.kind != tokRBrace {
		// Names that are not identifiers may be quoted.
		if p.lx.cur.kind != tokIdent && p.lx.cur.kind != tokString {
			return nil, p.errorf("expected field name, got %q", p.lx.cur.lit)
		}
		name := p.lx.cur.lit
		p.lx.next()
		if err := p.expect(tokColon, ":"); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, untangle.Field{Name: name, Value: v})
		if p.lx.cur.kind != tokComma {
			break
		}
		p.lx.next()
	}
	if err := p.expect(tokRBrace, "}"); err != nil {
		return nil, err
	}
	return fields, nil
}

var suffixes = []string{"u16", "u32", "u64", "i16", "i32", "i64", "f32", "f64", "u8", "i8"}

// parseNumber reads a literal such as 42u8, -7i32 or 1.5f64. Without a
// suffix, integers become u64 or i64 and anything else f64.
func parseNumber(lit string) (*untangle.Content, error) {
	digits, suffix := lit, ""
	for _, s := range suffixes {
		if strings.HasSuffix(lit, s) {
			digits, suffix = lit[:len(lit)-len(s)], s
			break
		}
	}
	if suffix == "" {
		switch {
		case strings.ContainsAny(lit, ".eE") && !strings.HasPrefix(lit, "0x"):
			suffix = "f64"
		case strings.HasPrefix(lit, "-"):
			suffix = "i64"
		default:
			suffix = "u64"
		}
	}
	switch suffix[0] {
	case 'u':
		bits, _ := strconv.Atoi(suffix[1:])
		u, err := strconv.ParseUint(digits, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("bad %s literal %q", suffix, lit)
		}
		switch bits {
		case 8:
			return untangle.U8(uint8(u)), nil
		case 16:
			return untangle.U16(uint16(u)), nil
		case 32:
			return untangle.U32(uint32(u)), nil
		}
		return untangle.U64(u), nil
	case 'i':
		bits, _ := strconv.Atoi(suffix[1:])
		i, err := strconv.ParseInt(digits, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("bad %s literal %q", suffix, lit)
		}
		switch bits {
		case 8:
			return untangle.I8(int8(i)), nil
		case 16:
			return untangle.I16(int16(i)), nil
		case 32:
			return untangle.I32(int32(i)), nil
		}
		return untangle.I64(i), nil
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return nil, fmt.Errorf("bad %s literal %q", suffix, lit)
	}
	if suffix == "f32" {
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%q overflows f32", lit)
		}
		return untangle.F32(float32(f)), nil
	}
	return untangle.F64(f), nil
}
