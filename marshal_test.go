package untangle_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/dadrian/untangle"
	tt "github.com/dadrian/untangle/internal/tokentest"
)

type point struct {
	X int32 `untangle:"x"`
	Y int32 `untangle:"y"`
}

func TestStructTokens(t *testing.T) {
	tt.AssertTokens(t, point{X: 1, Y: -2},
		tt.Struct("point", 2),
		tt.Str("x"), tt.I32(1),
		tt.Str("y"), tt.I32(-2),
		tt.StructEnd(),
	)
	// Field order on the wire does not matter.
	tt.AssertDeTokens(t, point{X: 1, Y: -2},
		tt.Map(2),
		tt.Str("y"), tt.I32(-2),
		tt.Str("x"), tt.I32(1),
		tt.MapEnd(),
	)
}

type marker struct{}

func TestUnitStructTokens(t *testing.T) {
	tt.AssertTokens(t, marker{}, tt.UnitStruct("marker"))
}

type profile struct {
	Name string           `untangle:"name"`
	Nick *string          `untangle:"nick"`
	Tags map[string]uint8 `untangle:"tags,omitempty"`
	Raw  [2]byte          `untangle:"raw"`
}

func TestOptionalFields(t *testing.T) {
	p := profile{Name: "a", Raw: [2]byte{1, 2}}
	tt.AssertSerTokens(t, p,
		tt.Struct("profile", 4),
		tt.Str("name"), tt.Str("a"),
		tt.Str("nick"), tt.None(),
		tt.Str("tags"), tt.None(),
		tt.Str("raw"), tt.Bytes([]byte{1, 2}),
		tt.StructEnd(),
	)
	tt.AssertDeTokens(t, p,
		tt.Struct("profile", 2),
		tt.Str("name"), tt.Str("a"),
		tt.Str("raw"), tt.Bytes([]byte{1, 2}),
		tt.StructEnd(),
	)
}

func TestOptionalFieldsRoundTrip(t *testing.T) {
	nick := "b"
	for _, p := range []profile{
		{Name: "a", Raw: [2]byte{1, 2}},
		{Name: "a", Nick: &nick, Tags: map[string]uint8{"x": 1}},
	} {
		c, err := untangle.Marshal(p)
		if err != nil {
			t.Fatal(err)
		}
		var got profile
		if err := untangle.Unmarshal(untangle.NewDecoder(c), &got); err != nil {
			t.Fatalf("Unmarshal(%v): %v", c, err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("got %+v want %+v", got, p)
		}
	}
}

type onlySkipped struct {
	Ignored int `untangle:"-"`
	hidden  int
}

func TestStructWithoutFieldsIsUnit(t *testing.T) {
	tt.AssertTokens(t, onlySkipped{}, tt.UnitStruct("onlySkipped"))
	tt.AssertDeTokens(t, onlySkipped{}, tt.Unit())
}

func TestMapKeysAreSorted(t *testing.T) {
	tt.AssertTokens(t, map[string]uint8{"b": 2, "a": 1},
		tt.Map(2),
		tt.Str("a"), tt.U8(1),
		tt.Str("b"), tt.U8(2),
		tt.MapEnd(),
	)
	tt.AssertSerTokens(t, map[any]bool{uint64(math.MaxUint64): true, int64(-1): false},
		tt.Map(2),
		tt.I64(-1), tt.Bool(false),
		tt.U64(math.MaxUint64), tt.Bool(true),
		tt.MapEnd(),
	)
}

func TestSliceOfPointers(t *testing.T) {
	three := uint16(3)
	tt.AssertTokens(t, []*uint16{&three, nil},
		tt.Seq(2),
		tt.Some(), tt.U16(3),
		tt.None(),
		tt.SeqEnd(),
	)
}

func TestInterfaceTarget(t *testing.T) {
	tt.AssertDeTokens[any](t, []any{uint8(1), "a"},
		tt.Seq(2), tt.U8(1), tt.Str("a"), tt.SeqEnd(),
	)
}

func TestStructErrors(t *testing.T) {
	tt.AssertDeTokensError[point](t, "missing field `y`",
		tt.Struct("point", 1), tt.Str("x"), tt.I32(1), tt.StructEnd(),
	)
	tt.AssertDeTokensError[point](t, `invalid type: string "p", expected struct point`,
		tt.Str("p"),
	)
}
