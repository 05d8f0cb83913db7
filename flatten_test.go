package untangle

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestFlatMapClaims(t *testing.T) {
	fm, err := NewFlatMap(Map(
		Entry{Key: Str("a"), Value: U8(1)},
		Entry{Key: U64(7), Value: U8(2)},
		Entry{Key: Bytes([]byte("b")), Value: U8(3)},
		Entry{Key: Str("a"), Value: U8(4)},
	))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := fm.Lookup("a"); !ok || !v.Equal(U8(1)) {
		t.Fatalf("first lookup: got %v, %v", v, ok)
	}
	if v, ok := fm.Lookup("a"); !ok || !v.Equal(U8(4)) {
		t.Fatalf("second lookup: got %v, %v", v, ok)
	}
	if _, ok := fm.Lookup("a"); ok {
		t.Fatalf("claimed entries must not be served twice")
	}
	if v, ok := fm.Lookup("b"); !ok || !v.Equal(U8(3)) {
		t.Fatalf("byte key: got %v, %v", v, ok)
	}
	rest := fm.Unclaimed()
	if len(rest) != 1 || !rest[0].Key.Equal(U64(7)) {
		t.Fatalf("got %v", rest)
	}
	err = fm.CheckUnknown([]string{"a", "b"})
	var e *Error
	if !errors.As(err, &e) || e.Kind != ErrUnknownField || e.Field != "7u64" {
		t.Fatalf("got %v", err)
	}
	if v, ok := fm.LookupKey(U64(7)); !ok || !v.Equal(U8(2)) {
		t.Fatalf("LookupKey: got %v, %v", v, ok)
	}
	if err := fm.CheckUnknown(nil); err != nil {
		t.Fatalf("everything claimed, got %v", err)
	}
}

func TestNewFlatMapShapes(t *testing.T) {
	pairs := Seq(Seq(Str("k"), U8(1)))
	fm, err := NewFlatMap(pairs)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := fm.Lookup("k"); !ok || !v.Equal(U8(1)) {
		t.Fatalf("got %v, %v", v, ok)
	}
	if _, err := NewFlatMap(Seq(Seq(U8(1)))); err == nil {
		t.Fatalf("expected error for a one-element pair")
	}
	if _, err := NewFlatMap(Str("x")); err == nil {
		t.Fatalf("expected error for a scalar")
	}
}

type metadata struct {
	Region string `untangle:"region"`
	Zone   uint8  `untangle:"zone,default"`
}

type server struct {
	Name string   `untangle:"name"`
	Meta metadata `untangle:"meta,flatten"`
}

func TestFlattenAllKeyOrders(t *testing.T) {
	entries := []Entry{
		{Key: Str("name"), Value: Str("db")},
		{Key: Str("region"), Value: Str("eu")},
		{Key: Str("zone"), Value: U8(2)},
	}
	want := server{Name: "db", Meta: metadata{Region: "eu", Zone: 2}}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		m := make([]Entry, len(order))
		for i, j := range order {
			m[i] = entries[j]
		}
		var got server
		if err := Unmarshal(NewDecoder(Map(m...)), &got); err != nil {
			t.Fatalf("order %v: %v", order, err)
		}
		if got != want {
			t.Fatalf("order %v: got %+v want %+v", order, got, want)
		}
	}
}

func TestFlattenMarshalIsOneMap(t *testing.T) {
	c, err := Marshal(server{Name: "db", Meta: metadata{Region: "eu", Zone: 2}})
	if err != nil {
		t.Fatal(err)
	}
	want := Map(
		Entry{Key: Str("name"), Value: Str("db")},
		Entry{Key: Str("region"), Value: Str("eu")},
		Entry{Key: Str("zone"), Value: U8(2)},
	)
	if !c.Equal(want) {
		t.Fatalf("got %v want %v", c, want)
	}
}

func TestFlattenMissingField(t *testing.T) {
	var got server
	err := Unmarshal(NewDecoder(Map(Entry{Key: Str("name"), Value: Str("db")})), &got)
	if err == nil || err.Error() != "missing field `region`" {
		t.Fatalf("got %v", err)
	}
}

type catchAll struct {
	ID   uint32      `untangle:"id"`
	Meta metadata    `untangle:"meta,flatten"`
	Rest map[any]any `untangle:"rest,flatten"`
}

func TestFlattenCatchAll(t *testing.T) {
	c := Map(
		Entry{Key: U64(100), Value: Str("hundred")},
		Entry{Key: Str("region"), Value: Str("us")},
		Entry{Key: Str("id"), Value: U32(9)},
		Entry{Key: Str("extra"), Value: Bool(true)},
	)
	var got catchAll
	if err := Unmarshal(NewDecoder(c), &got); err != nil {
		t.Fatal(err)
	}
	want := catchAll{
		ID:   9,
		Meta: metadata{Region: "us"},
		Rest: map[any]any{uint64(100): "hundred", "extra": true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestFlattenDenyUnknown(t *testing.T) {
	c := Map(
		Entry{Key: Str("name"), Value: Str("db")},
		Entry{Key: Str("region"), Value: Str("eu")},
		Entry{Key: Str("owner"), Value: Str("ops")},
	)
	var got server
	if err := Unmarshal(NewDecoder(c), &got); err != nil {
		t.Fatalf("permissive by default, got %v", err)
	}
	err := Unmarshal(NewDecoder(c), &got, DenyUnknownFields())
	var e *Error
	if !errors.As(err, &e) || e.Kind != ErrUnknownField || e.Field != "owner" {
		t.Fatalf("got %v want unknown field owner", err)
	}
}

func TestFlattenIgnoredKeysAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := Map(
		Entry{Key: Str("name"), Value: Str("db")},
		Entry{Key: Str("region"), Value: Str("eu")},
		Entry{Key: Str("owner"), Value: Str("ops")},
	)
	var got server
	if err := Unmarshal(NewDecoder(c), &got, WithLogger(logger)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "field=owner") {
		t.Fatalf("expected a record about owner, got %q", buf.String())
	}
}

type tags struct {
	Labels map[string]string `untangle:"labels,flatten"`
}

type nested struct {
	Kind string `untangle:"kind"`
	Tags tags   `untangle:"tags,flatten"`
}

func TestFlattenNested(t *testing.T) {
	c := FieldRecord("nested",
		Field{Name: "kind", Value: Str("vm")},
		Field{Name: "env", Value: Str("prod")},
	)
	var got nested
	if err := Unmarshal(NewDecoder(c), &got); err != nil {
		t.Fatal(err)
	}
	want := nested{Kind: "vm", Tags: tags{Labels: map[string]string{"env": "prod"}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestFlattenRejectsScalar(t *testing.T) {
	type bad struct {
		N uint8 `untangle:"n,flatten"`
	}
	var got bad
	err := Unmarshal(NewDecoder(Map()), &got)
	if err == nil || err.Error() != "can only flatten structs and maps (got an integer)" {
		t.Fatalf("got %v", err)
	}
}
