package untangle_test

import (
	"errors"
	"testing"

	"github.com/dadrian/untangle"
	tt "github.com/dadrian/untangle/internal/tokentest"
)

type enumDef interface {
	def() *untangle.Untagged[any]
}

// enumOf adapts the Untagged named by E to Unmarshal and Marshal.
type enumOf[E enumDef] struct{ V any }

func (e *enumOf[E]) UnmarshalFrom(d untangle.Decoder) (err error) {
	var def E
	e.V, err = def.def().Decode(d)
	return err
}

func (e enumOf[E]) MarshalContent() (*untangle.Content, error) {
	var def E
	return def.def().Encode(e.V)
}

type fieldA struct {
	A uint8 `untangle:"a"`
}

type fieldB struct {
	B uint8 `untangle:"b"`
}

type empty struct{}

type small uint8

type text string

type pair struct{ X, Y uint8 }

func (p *pair) UnmarshalFrom(d untangle.Decoder) error {
	return untangle.DecodeTuple(d, 2, func(i int, elem untangle.Decoder) error {
		v, err := untangle.DecodeUint8(elem)
		if i == 0 {
			p.X = v
		} else {
			p.Y = v
		}
		return err
	})
}

func (p pair) MarshalContent() (*untangle.Content, error) {
	return untangle.Seq(untangle.U8(p.X), untangle.U8(p.Y)), nil
}

var complexEnum = &untangle.Untagged[any]{
	Name: "Untagged",
	Candidates: []untangle.Candidate[any]{
		untangle.StructCandidate[any, fieldA]("A"),
		untangle.StructCandidate[any, fieldB]("B"),
		untangle.UnitCandidate[any, empty]("C"),
		untangle.NewtypeCandidate[any, small]("D"),
		untangle.NewtypeCandidate[any, text]("E"),
		untangle.NewtypeCandidate[any, pair]("F"),
	},
}

type complexDef struct{}

func (complexDef) def() *untangle.Untagged[any] { return complexEnum }

type complexValue = enumOf[complexDef]

func TestUntaggedComplex(t *testing.T) {
	tt.AssertTokens(t, complexValue{fieldA{A: 1}},
		tt.Struct("Untagged", 1), tt.Str("a"), tt.U8(1), tt.StructEnd())
	tt.AssertTokens(t, complexValue{fieldB{B: 2}},
		tt.Struct("Untagged", 1), tt.Str("b"), tt.U8(2), tt.StructEnd())

	// Written as unit, read from unit or absence.
	tt.AssertTokens(t, complexValue{empty{}}, tt.Unit())
	tt.AssertDeTokens(t, complexValue{empty{}}, tt.None())

	tt.AssertTokens(t, complexValue{small(4)}, tt.U8(4))
	tt.AssertTokens(t, complexValue{text("e")}, tt.Str("e"))

	tt.AssertSerTokens(t, complexValue{pair{1, 2}}, tt.Seq(2), tt.U8(1), tt.U8(2), tt.SeqEnd())
	tt.AssertDeTokens(t, complexValue{pair{1, 2}}, tt.Tuple(2), tt.U8(1), tt.U8(2), tt.TupleEnd())
}

func TestUntaggedArity(t *testing.T) {
	const want = "data did not match any variant of untagged enum Untagged"
	tt.AssertDeTokensError[complexValue](t, want,
		tt.Tuple(1), tt.U8(1), tt.TupleEnd())
	tt.AssertDeTokensError[complexValue](t, want,
		tt.Tuple(3), tt.U8(1), tt.U8(2), tt.U8(3), tt.TupleEnd())

	var ue *untangle.Error
	if _, err := complexEnum.Decode(tt.NewDecoder(tt.Seq(2), tt.Str("x"), tt.Str("y"), tt.SeqEnd())); !errors.As(err, &ue) || ue.Kind != untangle.ErrNoMatch {
		t.Fatalf("got %v want ErrNoMatch", err)
	}
}

func TestUntaggedDeclarationOrder(t *testing.T) {
	// Both candidates accept a small integer.
	u := untangle.Untagged[any]{
		Name: "Number",
		Candidates: []untangle.Candidate[any]{
			untangle.NewtypeCandidate[any, uint64]("Wide"),
			untangle.NewtypeCandidate[any, small]("Narrow"),
		},
	}
	got, err := u.Match(untangle.U8(7))
	if err != nil {
		t.Fatal(err)
	}
	if got != uint64(7) {
		t.Fatalf("got %#v want uint64(7)", got)
	}
	u.Candidates[0], u.Candidates[1] = u.Candidates[1], u.Candidates[0]
	got, _ = u.Match(untangle.U8(7))
	if got != small(7) {
		t.Fatalf("got %#v want small(7)", got)
	}
}

type messageDef struct{}

func (messageDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name: "Message",
		Candidates: []untangle.Candidate[any]{
			untangle.NewtypeCandidate[any, empty]("Unit"),
			untangle.NewtypeCandidate[any, map[string]string]("Map"),
		},
	}
}

func TestUntaggedUnitAndEmptyMap(t *testing.T) {
	tt.AssertTokens(t, enumOf[messageDef]{map[string]string{}}, tt.Map(0), tt.MapEnd())
	tt.AssertTokens(t, enumOf[messageDef]{empty{}}, tt.UnitStruct("empty"))
}

type wrapped uint32

func (w *wrapped) UnmarshalFrom(d untangle.Decoder) error {
	return untangle.DecodeNewtype(d, "NewtypeStruct", func(inner untangle.Decoder) error {
		v, err := untangle.DecodeUint32(inner)
		*w = wrapped(v)
		return err
	})
}

func (w wrapped) MarshalContent() (*untangle.Content, error) {
	return untangle.NewtypeRecord("NewtypeStruct", untangle.U32(uint32(w))), nil
}

type newtypeDef struct{}

func (newtypeDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name: "E",
		Candidates: []untangle.Candidate[any]{
			untangle.NewtypeCandidate[any, wrapped]("Newtype"),
			untangle.UnitCandidate[any, empty]("Null"),
		},
	}
}

func TestUntaggedNewtypeStruct(t *testing.T) {
	tt.AssertTokens(t, enumOf[newtypeDef]{wrapped(5)}, tt.NewtypeStruct("NewtypeStruct"), tt.U32(5))
	tt.AssertDeTokens(t, enumOf[newtypeDef]{empty{}}, tt.Unit())
}

// inner is an externally tagged enum held inside an untagged one.
type inner struct {
	Variant string
	N       uint8
	T       [2]uint8
}

var innerVariants = []string{"Unit", "Newtype", "Tuple", "Struct"}

type tupleVisitor struct {
	untangle.Expected
	out *[2]uint8
}

func (v tupleVisitor) VisitSeq(s untangle.SeqAccess) error {
	for i := range v.out {
		d, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return untangle.InvalidLength(i, "a tuple of size 2")
		}
		if v.out[i], err = untangle.DecodeUint8(d); err != nil {
			return err
		}
	}
	return nil
}

type fieldVisitor struct {
	untangle.Expected
	out *uint8
}

func (v fieldVisitor) VisitMap(m untangle.MapAccess) error {
	for {
		kd, ok, err := m.NextKey()
		if err != nil || !ok {
			return err
		}
		name, err := untangle.DecodeString(kd)
		if err != nil {
			return err
		}
		vd, err := m.NextValue()
		if err != nil {
			return err
		}
		if name != "f" {
			if err := untangle.Skip(vd); err != nil {
				return err
			}
			continue
		}
		if *v.out, err = untangle.DecodeUint8(vd); err != nil {
			return err
		}
	}
}

func (in *inner) UnmarshalFrom(d untangle.Decoder) error {
	return untangle.DecodeEnum(d, "Inner", innerVariants, func(i int, va untangle.VariantAccess) error {
		in.Variant = innerVariants[i]
		switch i {
		case 0:
			return va.Unit()
		case 1:
			nd, err := va.Newtype()
			if err != nil {
				return err
			}
			in.N, err = untangle.DecodeUint8(nd)
			return err
		case 2:
			return va.Tuple(2, tupleVisitor{Expected: "tuple variant Inner::Tuple", out: &in.T})
		}
		return va.Struct([]string{"f"}, fieldVisitor{Expected: "struct variant Inner::Struct", out: &in.N})
	})
}

func (in inner) MarshalContent() (*untangle.Content, error) {
	switch in.Variant {
	case "Unit":
		return untangle.UnitVariant("Inner", "Unit", 0), nil
	case "Newtype":
		return untangle.NewtypeVariant("Inner", "Newtype", 1, untangle.U8(in.N)), nil
	case "Tuple":
		return untangle.TupleVariant("Inner", "Tuple", 2, untangle.U8(in.T[0]), untangle.U8(in.T[1])), nil
	}
	return untangle.StructVariant("Inner", "Struct", 3, untangle.Field{Name: "f", Value: untangle.U8(in.N)}), nil
}

type outerDef struct{}

func (outerDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name:       "Outer",
		Candidates: []untangle.Candidate[any]{untangle.NewtypeCandidate[any, inner]("Inner")},
	}
}

func TestUntaggedNewtypeEnum(t *testing.T) {
	type outer = enumOf[outerDef]
	tt.AssertTokens(t, outer{inner{Variant: "Unit"}}, tt.UnitVariant("Inner", "Unit"))
	tt.AssertTokens(t, outer{inner{Variant: "Newtype", N: 1}}, tt.NewtypeVariant("Inner", "Newtype"), tt.U8(1))
	tt.AssertTokens(t, outer{inner{Variant: "Tuple", T: [2]uint8{1, 1}}},
		tt.TupleVariant("Inner", "Tuple", 2), tt.U8(1), tt.U8(1), tt.TupleVariantEnd())
	tt.AssertTokens(t, outer{inner{Variant: "Struct", N: 1}},
		tt.StructVariant("Inner", "Struct", 1), tt.Str("f"), tt.U8(1), tt.StructVariantEnd())
}

type stringField struct {
	String string `untangle:"string"`
}

type bytesField struct {
	Bytes []byte `untangle:"bytes"`
}

type stringOrBytesDef struct{}

func (stringOrBytesDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name: "Untagged",
		Candidates: []untangle.Candidate[any]{
			untangle.StructCandidate[any, stringField]("String"),
			untangle.StructCandidate[any, bytesField]("Bytes"),
		},
	}
}

func TestUntaggedStringAndBytes(t *testing.T) {
	type value = enumOf[stringOrBytesDef]
	record := func(field string, form ...tt.Token) []tt.Token {
		toks := []tt.Token{tt.Struct("Untagged", 1), tt.Str(field)}
		toks = append(toks, form...)
		return append(toks, tt.StructEnd())
	}
	for _, form := range [][]tt.Token{{tt.Str("\x00")}, {tt.Bytes([]byte{0})}} {
		tt.AssertDeTokens(t, value{stringField{String: "\x00"}}, record("string", form...)...)
		tt.AssertDeTokens(t, value{bytesField{Bytes: []byte{0}}}, record("bytes", form...)...)
	}

	// A sequence of bytes is only ever bytes.
	seq := []tt.Token{tt.Seq(1), tt.U8(0), tt.SeqEnd()}
	tt.AssertDeTokens(t, value{bytesField{Bytes: []byte{0}}}, record("bytes", seq...)...)
	tt.AssertDeTokensError[value](t, "data did not match any variant of untagged enum Untagged",
		record("string", seq...)...)
	if _, err := untangle.DecodeString(untangle.NewDecoder(untangle.Seq(untangle.U8('h'), untangle.U8('i')))); err == nil {
		t.Fatalf("expected a sequence to be rejected as a string")
	}
}

type flatInner struct {
	B int32 `untangle:"b"`
}

type withFlatten struct {
	A    int32     `untangle:"a"`
	Flat flatInner `untangle:"flat,flatten"`
}

type integerKeys struct {
	Map map[uint64]string `untangle:"map,flatten"`
}

type flattenDef struct{}

func (flattenDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name: "Data",
		Candidates: []untangle.Candidate[any]{
			untangle.StructCandidate[any, withFlatten]("A"),
			untangle.StructCandidate[any, integerKeys]("Variant"),
		},
	}
}

func TestUntaggedContainsFlatten(t *testing.T) {
	type data = enumOf[flattenDef]
	tt.AssertTokens(t, data{withFlatten{}},
		tt.Map(2), tt.Str("a"), tt.I32(0), tt.Str("b"), tt.I32(0), tt.MapEnd())
	// No "a" key, so the first candidate fails and the catch-all map takes
	// the integer key as it was read.
	tt.AssertTokens(t, data{integerKeys{Map: map[uint64]string{100: "BTreeMap"}}},
		tt.Map(1), tt.U64(100), tt.Str("BTreeMap"), tt.MapEnd())
}

type expectingDef struct{}

func (expectingDef) def() *untangle.Untagged[any] {
	return &untangle.Untagged[any]{
		Name:       "Enum",
		Expecting:  "something strange...",
		Candidates: []untangle.Candidate[any]{untangle.UnitCandidate[any, empty]("Untagged")},
	}
}

func TestUntaggedExpecting(t *testing.T) {
	tt.AssertDeTokensError[enumOf[expectingDef]](t, "something strange...", tt.Str("Untagged"))
	tt.AssertDeTokensError[complexValue](t, "data did not match any variant of untagged enum Untagged",
		tt.Seq(1), tt.Bool(true), tt.SeqEnd())
}
