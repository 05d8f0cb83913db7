package tokentest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dadrian/untangle"
)

// Tokens flattens a tree. Sequences become Seq, tuple records TupleStruct,
// field records Struct with a Str token before each field.
func Tokens(c *untangle.Content) []Token {
	var out []Token
	return appendTokens(out, c)
}

func appendTokens(out []Token, c *untangle.Content) []Token {
	switch c.Kind() {
	case untangle.KindBool:
		return append(out, Bool(c.Bool()))
	case untangle.KindU8, untangle.KindU16, untangle.KindU32, untangle.KindU64:
		u, _ := c.Uint()
		switch c.Kind() {
		case untangle.KindU8:
			return append(out, U8(uint8(u)))
		case untangle.KindU16:
			return append(out, U16(uint16(u)))
		case untangle.KindU32:
			return append(out, U32(uint32(u)))
		}
		return append(out, U64(u))
	case untangle.KindI8, untangle.KindI16, untangle.KindI32, untangle.KindI64:
		i, _ := c.Int()
		switch c.Kind() {
		case untangle.KindI8:
			return append(out, I8(int8(i)))
		case untangle.KindI16:
			return append(out, I16(int16(i)))
		case untangle.KindI32:
			return append(out, I32(int32(i)))
		}
		return append(out, I64(i))
	case untangle.KindF32:
		f, _ := c.Float()
		return append(out, F32(float32(f)))
	case untangle.KindF64:
		f, _ := c.Float()
		return append(out, F64(f))
	case untangle.KindChar:
		return append(out, Char(c.Char()))
	case untangle.KindString:
		return append(out, Str(c.Str()))
	case untangle.KindBytes:
		return append(out, Bytes(c.Bytes()))
	case untangle.KindUnit:
		return append(out, Unit())
	case untangle.KindNone:
		return append(out, None())
	case untangle.KindSome:
		return appendTokens(append(out, Some()), c.Inner())
	case untangle.KindUnitRecord:
		return append(out, UnitStruct(c.Name()))
	case untangle.KindNewtypeRecord:
		return appendTokens(append(out, NewtypeStruct(c.Name())), c.Inner())
	case untangle.KindSeq:
		out = append(out, Seq(c.Len()))
		for _, e := range c.Elems() {
			out = appendTokens(out, e)
		}
		return append(out, SeqEnd())
	case untangle.KindTupleRecord:
		out = append(out, TupleStruct(c.Name(), c.Len()))
		for _, e := range c.Elems() {
			out = appendTokens(out, e)
		}
		return append(out, TupleStructEnd())
	case untangle.KindFieldRecord:
		out = appendFields(append(out, Struct(c.Name(), c.Len())), c.Fields())
		return append(out, StructEnd())
	case untangle.KindMap:
		out = append(out, Map(c.Len()))
		for _, e := range c.Entries() {
			out = appendTokens(appendTokens(out, e.Key), e.Value)
		}
		return append(out, MapEnd())
	case untangle.KindUnitVariant:
		return append(out, UnitVariant(c.Name(), c.Variant()))
	case untangle.KindNewtypeVariant:
		return appendTokens(append(out, NewtypeVariant(c.Name(), c.Variant())), c.Inner())
	case untangle.KindTupleVariant:
		out = append(out, TupleVariant(c.Name(), c.Variant(), c.Len()))
		for _, e := range c.Elems() {
			out = appendTokens(out, e)
		}
		return append(out, TupleVariantEnd())
	case untangle.KindStructVariant:
		out = appendFields(append(out, StructVariant(c.Name(), c.Variant(), c.Len())), c.Fields())
		return append(out, StructVariantEnd())
	}
	panic("tokentest: unknown content kind " + c.Kind().String())
}

func appendFields(out []Token, fields []untangle.Field) []Token {
	for _, f := range fields {
		out = appendTokens(append(out, Str(f.Name)), f.Value)
	}
	return out
}

// AssertSerTokens checks that Marshal(v) flattens to want.
func AssertSerTokens(t testing.TB, v any, want ...Token) {
	t.Helper()
	c, err := untangle.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal(%#v): %v", v, err)
	}
	if got := Tokens(c); !reflect.DeepEqual(got, want) {
		t.Fatalf("Marshal(%#v):\ngot  %s\nwant %s", v, join(got), join(want))
	}
}

// AssertDeTokens checks that decoding toks into a T yields want and
// consumes every token.
func AssertDeTokens[T any](t testing.TB, want T, toks ...Token) {
	t.Helper()
	d := NewDecoder(toks...)
	var got T
	if err := untangle.Unmarshal(d, &got); err != nil {
		t.Fatalf("Unmarshal(%s): %v", join(toks), err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Unmarshal(%s): got %#v want %#v", join(toks), got, want)
	}
	if n := d.Remaining(); n != 0 {
		t.Fatalf("Unmarshal(%s): %d tokens left", join(toks), n)
	}
}

// AssertTokens checks both directions.
func AssertTokens[T any](t testing.TB, v T, toks ...Token) {
	t.Helper()
	AssertSerTokens(t, v, toks...)
	AssertDeTokens(t, v, toks...)
}

// AssertDeTokensError checks that decoding toks into a T fails with
// exactly the message want.
func AssertDeTokensError[T any](t testing.TB, want string, toks ...Token) {
	t.Helper()
	var got T
	err := untangle.Unmarshal(NewDecoder(toks...), &got)
	if err == nil {
		t.Fatalf("Unmarshal(%s): got %#v, want error %q", join(toks), got, want)
	}
	if err.Error() != want {
		t.Fatalf("Unmarshal(%s): got error %q want %q", join(toks), err, want)
	}
}

func join(toks []Token) string {
	s := make([]string, len(toks))
	for i, t := range toks {
		s[i] = t.String()
	}
	return "[" + strings.Join(s, " ") + "]"
}
