package untangle

import (
	"math"
	"reflect"
	"slices"
	"testing"
)

func TestContentString(t *testing.T) {
	tests := []struct {
		c    *Content
		want string
	}{
		{U8(1), "1u8"},
		{I64(-2), "-2i64"},
		{F32(0.5), "0.5f32"},
		{Str("a\"b"), `"a\"b"`},
		{Bytes([]byte("x")), `b"x"`},
		{Some(Unit()), "Some(())"},
		{None(), "None"},
		{NewtypeRecord("Meters", U32(3)), "Meters(3u32)"},
		{FieldRecord("P", Field{Name: "x", Value: Bool(true)}), "P{x: true}"},
		{UnitVariant("E", "A", 0), "E::A"},
		{TupleVariant("E", "T", 1, Char('c'), Unit()), "E::T('c', ())"},
		{Map(Entry{Key: U64(1), Value: Seq()}), "{1u64: []}"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Fatalf("got %s want %s", got, tt.want)
		}
	}
}

func TestContentEqual(t *testing.T) {
	if U8(1).Equal(U16(1)) {
		t.Fatalf("different widths compared equal")
	}
	if Str("a").Equal(Bytes([]byte("a"))) {
		t.Fatalf("string and bytes compared equal")
	}
	a := UnitVariant("E", "A", 0)
	b := UnitVariant("E", "A", -1)
	if !a.Equal(b) {
		t.Fatalf("variant index should not affect equality")
	}
	m1 := Map(Entry{Key: Str("k"), Value: Seq(U8(1))})
	m2 := Map(Entry{Key: Str("k"), Value: Seq(U8(1))})
	if !m1.Equal(m2) {
		t.Fatalf("equal maps compared different")
	}
}

func TestContentCompare(t *testing.T) {
	keys := []*Content{Str("b"), U64(300), I8(-1), Str("a"), U8(2), F64(0.5)}
	slices.SortFunc(keys, (*Content).Compare)
	want := []*Content{I8(-1), U8(2), U64(300), F64(0.5), Str("a"), Str("b")}
	for i := range want {
		if !keys[i].Equal(want[i]) {
			t.Fatalf("got %v want %v", keys, want)
		}
	}
	if got := I64(-1).Compare(U64(math.MaxUint64)); got >= 0 {
		t.Fatalf("-1i64 vs max u64: got %d want < 0", got)
	}
	if got := U64(math.MaxUint64).Compare(I8(-1)); got <= 0 {
		t.Fatalf("max u64 vs -1i8: got %d want > 0", got)
	}
}

func TestContentInterface(t *testing.T) {
	c := Map(
		Entry{Key: U16(1), Value: Seq(Str("a"), None())},
		Entry{Key: Str("r"), Value: FieldRecord("R", Field{Name: "f", Value: NewtypeVariant("E", "V", 0, I32(-3))})},
	)
	want := map[any]any{
		uint16(1): []any{"a", nil},
		"r":       map[string]any{"f": map[string]any{"V": int32(-3)}},
	}
	if got := c.Interface(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
	pairs := Map(Entry{Key: Seq(U8(1)), Value: Bool(true)}).Interface()
	if _, ok := pairs.([]any); !ok {
		t.Fatalf("unhashable keys: got %T want []any", pairs)
	}
}

func TestBufferKeepsStringsAndBytesApart(t *testing.T) {
	for _, c := range []*Content{Str("x"), Bytes([]byte("x"))} {
		got, err := Buffer(NewDecoder(c))
		if err != nil {
			t.Fatal(err)
		}
		if got.Kind() != c.Kind() {
			t.Fatalf("got %s want %s", got.Kind(), c.Kind())
		}
	}
}

func TestReplayCoercions(t *testing.T) {
	s, err := DecodeString(NewDecoder(Bytes([]byte("hé"))))
	if err != nil || s != "hé" {
		t.Fatalf("string from bytes: got %q, %v", s, err)
	}
	_, err = DecodeString(NewDecoder(Bytes([]byte{0xff})))
	if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidUTF8 {
		t.Fatalf("got %v want invalid UTF-8", err)
	}
	b, err := DecodeBytes(NewDecoder(Seq(U8(1), U16(2))))
	if err != nil || !slices.Equal(b, []byte{1, 2}) {
		t.Fatalf("bytes from sequence: got %v, %v", b, err)
	}
	if _, err := DecodeBytes(NewDecoder(Seq(U16(256)))); err == nil {
		t.Fatalf("expected error for element out of byte range")
	}
	n, err := DecodeUint64(NewDecoder(U8(200)))
	if err != nil || n != 200 {
		t.Fatalf("widening: got %d, %v", n, err)
	}
	_, err = DecodeUint8(NewDecoder(U16(300)))
	if e, ok := err.(*Error); !ok || e.Kind != ErrOutOfRange {
		t.Fatalf("got %v want out of range", err)
	}
	_, err = DecodeInt8(NewDecoder(I64(-129)))
	if e, ok := err.(*Error); !ok || e.Kind != ErrOutOfRange {
		t.Fatalf("got %v want out of range", err)
	}
}

func TestReplayTypeMismatch(t *testing.T) {
	type point struct {
		X int `untangle:"x"`
	}
	var p point
	err := Unmarshal(NewDecoder(U8(1)), &p)
	if err == nil || err.Error() != "invalid type: integer `1`, expected struct point" {
		t.Fatalf("got %v", err)
	}
}

func TestReplayOption(t *testing.T) {
	for _, c := range []*Content{None(), Unit()} {
		v, err := DecodeOption(NewDecoder(c), DecodeUint8)
		if err != nil || v != nil {
			t.Fatalf("%v: got %v, %v want nil", c, v, err)
		}
	}
	for _, c := range []*Content{Some(U8(3)), U8(3)} {
		v, err := DecodeOption(NewDecoder(c), DecodeUint8)
		if err != nil || v == nil || *v != 3 {
			t.Fatalf("%v: got %v, %v want 3", c, v, err)
		}
	}
}

func TestReplayEnumForms(t *testing.T) {
	variants := []string{"A", "B"}
	read := func(c *Content) (int, error) {
		got := -1
		err := DecodeEnum(NewDecoder(c), "E", variants, func(i int, va VariantAccess) error {
			got = i
			if i == 0 {
				return va.Unit()
			}
			d, err := va.Newtype()
			if err != nil {
				return err
			}
			_, err = DecodeBool(d)
			return err
		})
		return got, err
	}
	for _, c := range []*Content{UnitVariant("E", "A", 0), Str("A")} {
		if i, err := read(c); err != nil || i != 0 {
			t.Fatalf("%v: got %d, %v", c, i, err)
		}
	}
	for _, c := range []*Content{NewtypeVariant("E", "B", 1, Bool(true)), Map(Entry{Key: Str("B"), Value: Bool(true)})} {
		if i, err := read(c); err != nil || i != 1 {
			t.Fatalf("%v: got %d, %v", c, i, err)
		}
	}
	_, err := read(Str("C"))
	if err == nil || err.Error() != "unknown variant `C`, expected `A` or `B`" {
		t.Fatalf("got %v", err)
	}
	// A unit variant carries no payload to read.
	if _, err := read(Str("B")); err == nil {
		t.Fatalf("expected error reading a payload from a unit variant")
	}
}

func TestReplayTupleLength(t *testing.T) {
	err := DecodeTuple(NewDecoder(Seq(U8(1), U8(2), U8(3))), 2, func(int, Decoder) error { return nil })
	if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidLength {
		t.Fatalf("got %v want invalid length", err)
	}
	err = DecodeTuple(NewDecoder(Seq(U8(1))), 2, func(int, Decoder) error { return nil })
	if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidLength {
		t.Fatalf("got %v want invalid length", err)
	}
}

type firstOnly struct{ Expected }

func (firstOnly) VisitSeq(s SeqAccess) error {
	_, _, err := s.Next()
	return err
}

func TestReplayLeftoverElements(t *testing.T) {
	err := NewDecoder(Seq(U8(1), U8(2))).DecodeSeq(firstOnly{"a sequence"})
	if e, ok := err.(*Error); !ok || e.Kind != ErrInvalidLength {
		t.Fatalf("got %v want invalid length", err)
	}
}
