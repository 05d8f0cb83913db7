package jsonfmt

import (
	"bytes"
	"errors"
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/dadrian/untangle"
)

type service struct {
	Name  string   `untangle:"name"`
	Port  uint16   `untangle:"port"`
	Tags  []string `untangle:"tags"`
	Debug *bool    `untangle:"debug"`
}

func TestUnmarshalJSONC(t *testing.T) {
	src := []byte(`{
		// service definition
		"name": "api",
		"port": 8080,
		"tags": ["a", "b",], /* trailing commas are fine */
	}`)
	var got service
	if err := Unmarshal(src, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := service{Name: "api", Port: 8080, Tags: []string{"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	src := []byte(`{"name": "x", "extra": {"deep": [1, 2, {"a": null}]}, "port": 1, "tags": []}`)
	var got service
	if err := Unmarshal(src, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != "x" || got.Port != 1 {
		t.Fatalf("got %#v", got)
	}
	err := Unmarshal(src, &got, untangle.DenyUnknownFields())
	var ue *untangle.Error
	if !errors.As(err, &ue) || ue.Kind != untangle.ErrUnknownField || ue.Field != "extra" {
		t.Fatalf("got %v want unknown field extra", err)
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want *untangle.Content
	}{
		{`5`, untangle.U64(5)},
		{`-5`, untangle.I64(-5)},
		{`1.5`, untangle.F64(1.5)},
		{`1e2`, untangle.F64(100)},
		{`18446744073709551616`, untangle.F64(18446744073709551616)},
		{`null`, untangle.Unit()},
		{`"s"`, untangle.Str("s")},
		{`[true, {"k": 1}]`, untangle.Seq(untangle.Bool(true), untangle.Map(untangle.Entry{Key: untangle.Str("k"), Value: untangle.U64(1)}))},
	}
	for _, tt := range tests {
		got, err := Parse([]byte(tt.src))
		if err != nil {
			t.Fatalf("Parse(%s): %v", tt.src, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("Parse(%s): got %v want %v", tt.src, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{``, `[1, 2`, `{"a": 1} 2`, `{"a" 1}`} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Fatalf("Parse(%q): expected error", src)
		}
	}
}

func TestTupleLength(t *testing.T) {
	var pair [2]uint8
	if err := Unmarshal([]byte(`[1, 2]`), &pair); err != nil || pair != [2]uint8{1, 2} {
		t.Fatalf("got %v, %v want [1 2]", pair, err)
	}
	err := Unmarshal([]byte(`[1, 2, 3]`), &pair)
	var ue *untangle.Error
	if !errors.As(err, &ue) || ue.Kind != untangle.ErrInvalidLength {
		t.Fatalf("got %v want invalid length", err)
	}
}

type rect struct {
	W uint32 `untangle:"w"`
	H uint32 `untangle:"h"`
}

// figure is an externally tagged enum.
type figure struct {
	Variant string
	Radius  float64
	Rect    rect
}

func (f *figure) UnmarshalFrom(d untangle.Decoder) error {
	return untangle.DecodeEnum(d, "Figure", []string{"Empty", "Circle", "Rect"}, func(i int, va untangle.VariantAccess) error {
		switch i {
		case 0:
			f.Variant = "Empty"
			return va.Unit()
		case 1:
			f.Variant = "Circle"
			inner, err := va.Newtype()
			if err != nil {
				return err
			}
			f.Radius, err = untangle.DecodeFloat64(inner)
			return err
		}
		f.Variant = "Rect"
		inner, err := va.Newtype()
		if err != nil {
			return err
		}
		return untangle.Unmarshal(inner, &f.Rect)
	})
}

func TestEnums(t *testing.T) {
	tests := []struct {
		src  string
		want figure
	}{
		{`"Empty"`, figure{Variant: "Empty"}},
		{`{"Circle": 2.5}`, figure{Variant: "Circle", Radius: 2.5}},
		{`{"Rect": {"w": 3, "h": 4}}`, figure{Variant: "Rect", Rect: rect{W: 3, H: 4}}},
	}
	for _, tt := range tests {
		var got figure
		if err := Unmarshal([]byte(tt.src), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.src, err)
		}
		if got != tt.want {
			t.Fatalf("Unmarshal(%s): got %+v want %+v", tt.src, got, tt.want)
		}
	}

	var got figure
	err := Unmarshal([]byte(`"Triangle"`), &got)
	var ue *untangle.Error
	if !errors.As(err, &ue) || ue.Kind != untangle.ErrUnknownVariant {
		t.Fatalf("got %v want unknown variant", err)
	}
	if err := Unmarshal([]byte(`{"Circle": 1, "Rect": {}}`), &got); err == nil {
		t.Fatalf("expected error for two variant keys")
	}
}

func TestUntaggedOverJSON(t *testing.T) {
	u := untangle.Untagged[any]{
		Name: "Setting",
		Candidates: []untangle.Candidate[any]{
			untangle.NewtypeCandidate[any, bool]("Flag"),
			untangle.NewtypeCandidate[any, uint64]("Count"),
			untangle.StructCandidate[any, rect]("Rect"),
		},
	}
	for _, tt := range []struct {
		src  string
		want any
	}{
		{`true`, true},
		{`7`, uint64(7)},
		{`{"w": 1, "h": 2}`, rect{W: 1, H: 2}},
	} {
		d, err := NewDecoder([]byte(tt.src)).Next()
		if err != nil {
			t.Fatal(err)
		}
		got, err := u.Decode(d)
		if err != nil {
			t.Fatalf("Decode(%s): %v", tt.src, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Decode(%s): got %#v want %#v", tt.src, got, tt.want)
		}
	}
	d, _ := NewDecoder([]byte(`"nope"`)).Next()
	if _, err := u.Decode(d); err == nil || err.Error() != "data did not match any variant of untagged enum Setting" {
		t.Fatalf("got %v", err)
	}
}

func TestDecoderStream(t *testing.T) {
	d := NewDecoder([]byte(`1 "two" [3]`))
	var a uint8
	var b string
	var c []int
	for _, dst := range []any{&a, &b, &c} {
		if err := d.Decode(dst); err != nil {
			t.Fatalf("Decode: %v", err)
		}
	}
	if a != 1 || b != "two" || !reflect.DeepEqual(c, []int{3}) {
		t.Fatalf("got (%d, %q, %v)", a, b, c)
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("got %v want io.EOF", err)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		c    *untangle.Content
		want string
	}{
		{untangle.F64(2), `2.0`},
		{untangle.F32(0.5), `0.5`},
		{untangle.Bytes([]byte{1, 2}), `[1,2]`},
		{untangle.Some(untangle.Char('x')), `"x"`},
		{untangle.UnitVariant("E", "A", 0), `"A"`},
		{untangle.NewtypeVariant("E", "B", 1, untangle.U8(3)), `{"B":3}`},
		{untangle.TupleVariant("E", "C", 2, untangle.I8(-1), untangle.Unit()), `{"C":[-1,null]}`},
		{untangle.FieldRecord("R", untangle.Field{Name: "a", Value: untangle.None()}, untangle.Field{Name: "b", Value: untangle.Str("<")}), `{"b":"<"}`},
		{untangle.Map(untangle.Entry{Key: untangle.U32(7), Value: untangle.Bool(false)}), `{"7":false}`},
	}
	for _, tt := range tests {
		got, err := Format(tt.c)
		if err != nil {
			t.Fatalf("Format(%v): %v", tt.c, err)
		}
		if string(got) != tt.want {
			t.Fatalf("Format(%v): got %s want %s", tt.c, got, tt.want)
		}
	}
}

func TestFormatErrors(t *testing.T) {
	bad := []*untangle.Content{
		untangle.F64(math.Inf(1)),
		untangle.Map(untangle.Entry{Key: untangle.Seq(), Value: untangle.Unit()}),
	}
	for _, c := range bad {
		if _, err := Format(c); err == nil {
			t.Fatalf("Format(%v): expected error", c)
		}
	}
}

func TestEncoderRoundTrip(t *testing.T) {
	in := service{Name: "db", Port: 5432, Tags: []string{"primary"}}
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(in); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var out service
	if err := Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %#v want %#v", out, in)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  \"name\": \"db\"")) {
		t.Fatalf("expected indented output, got %s", buf.Bytes())
	}
}
