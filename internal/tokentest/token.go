// Package tokentest describes values as flat token streams, for tests that
// check exactly what a decoding routine asks for and what Marshal produces.
package tokentest

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindBool Kind = iota + 1
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindChar
	KindStr
	KindBytes
	KindUnit
	KindNone
	KindSome
	KindUnitStruct
	KindNewtypeStruct
	KindSeq
	KindSeqEnd
	KindTuple
	KindTupleEnd
	KindTupleStruct
	KindTupleStructEnd
	KindMap
	KindMapEnd
	KindStruct
	KindStructEnd
	KindUnitVariant
	KindNewtypeVariant
	KindTupleVariant
	KindTupleVariantEnd
	KindStructVariant
	KindStructVariantEnd
)

var kindNames = [...]string{
	KindBool:             "Bool",
	KindI8:               "I8",
	KindI16:              "I16",
	KindI32:              "I32",
	KindI64:              "I64",
	KindU8:               "U8",
	KindU16:              "U16",
	KindU32:              "U32",
	KindU64:              "U64",
	KindF32:              "F32",
	KindF64:              "F64",
	KindChar:             "Char",
	KindStr:              "Str",
	KindBytes:            "Bytes",
	KindUnit:             "Unit",
	KindNone:             "None",
	KindSome:             "Some",
	KindUnitStruct:       "UnitStruct",
	KindNewtypeStruct:    "NewtypeStruct",
	KindSeq:              "Seq",
	KindSeqEnd:           "SeqEnd",
	KindTuple:            "Tuple",
	KindTupleEnd:         "TupleEnd",
	KindTupleStruct:      "TupleStruct",
	KindTupleStructEnd:   "TupleStructEnd",
	KindMap:              "Map",
	KindMapEnd:           "MapEnd",
	KindStruct:           "Struct",
	KindStructEnd:        "StructEnd",
	KindUnitVariant:      "UnitVariant",
	KindNewtypeVariant:   "NewtypeVariant",
	KindTupleVariant:     "TupleVariant",
	KindTupleVariantEnd:  "TupleVariantEnd",
	KindStructVariant:    "StructVariant",
	KindStructVariantEnd: "StructVariantEnd",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Token is one step of a value. Len is the element count of a compound
// token, -1 when unknown.
type Token struct {
	Kind    Kind
	Name    string
	Variant string
	Len     int
	V       any
}

func (t Token) String() string {
	var b strings.Builder
	b.WriteString(t.Kind.String())
	switch t.Kind {
	case KindUnitStruct, KindNewtypeStruct:
		fmt.Fprintf(&b, "(%q)", t.Name)
	case KindSeq, KindTuple, KindMap:
		fmt.Fprintf(&b, "{len: %d}", t.Len)
	case KindTupleStruct, KindStruct:
		fmt.Fprintf(&b, "{name: %q, len: %d}", t.Name, t.Len)
	case KindUnitVariant, KindNewtypeVariant:
		fmt.Fprintf(&b, "(%q, %q)", t.Name, t.Variant)
	case KindTupleVariant, KindStructVariant:
		fmt.Fprintf(&b, "{name: %q, variant: %q, len: %d}", t.Name, t.Variant, t.Len)
	default:
		if t.V != nil {
			fmt.Fprintf(&b, "(%#v)", t.V)
		}
	}
	return b.String()
}

func Bool(v bool) Token            { return Token{Kind: KindBool, V: v} }
func I8(v int8) Token              { return Token{Kind: KindI8, V: v} }
func I16(v int16) Token            { return Token{Kind: KindI16, V: v} }
func I32(v int32) Token            { return Token{Kind: KindI32, V: v} }
func I64(v int64) Token            { return Token{Kind: KindI64, V: v} }
func U8(v uint8) Token             { return Token{Kind: KindU8, V: v} }
func U16(v uint16) Token           { return Token{Kind: KindU16, V: v} }
func U32(v uint32) Token           { return Token{Kind: KindU32, V: v} }
func U64(v uint64) Token           { return Token{Kind: KindU64, V: v} }
func F32(v float32) Token          { return Token{Kind: KindF32, V: v} }
func F64(v float64) Token          { return Token{Kind: KindF64, V: v} }
func Char(v rune) Token            { return Token{Kind: KindChar, V: v} }
func Str(v string) Token           { return Token{Kind: KindStr, V: v} }
func Bytes(v []byte) Token         { return Token{Kind: KindBytes, V: v} }
func Unit() Token                  { return Token{Kind: KindUnit} }
func None() Token                  { return Token{Kind: KindNone} }
func Some() Token                  { return Token{Kind: KindSome} }
func UnitStruct(name string) Token { return Token{Kind: KindUnitStruct, Name: name} }

// NewtypeStruct is followed by the tokens of its inner value.
func NewtypeStruct(name string) Token { return Token{Kind: KindNewtypeStruct, Name: name} }

func Seq(n int) Token                      { return Token{Kind: KindSeq, Len: n} }
func SeqEnd() Token                        { return Token{Kind: KindSeqEnd} }
func Tuple(n int) Token                    { return Token{Kind: KindTuple, Len: n} }
func TupleEnd() Token                      { return Token{Kind: KindTupleEnd} }
func TupleStruct(name string, n int) Token { return Token{Kind: KindTupleStruct, Name: name, Len: n} }
func TupleStructEnd() Token                { return Token{Kind: KindTupleStructEnd} }
func Map(n int) Token                      { return Token{Kind: KindMap, Len: n} }
func MapEnd() Token                        { return Token{Kind: KindMapEnd} }

// Struct is followed by alternating Str field names and values.
func Struct(name string, n int) Token { return Token{Kind: KindStruct, Name: name, Len: n} }
func StructEnd() Token                { return Token{Kind: KindStructEnd} }

func UnitVariant(name, variant string) Token {
	return Token{Kind: KindUnitVariant, Name: name, Variant: variant}
}

func NewtypeVariant(name, variant string) Token {
	return Token{Kind: KindNewtypeVariant, Name: name, Variant: variant}
}

func TupleVariant(name, variant string, n int) Token {
	return Token{Kind: KindTupleVariant, Name: name, Variant: variant, Len: n}
}

func TupleVariantEnd() Token { return Token{Kind: KindTupleVariantEnd} }

func StructVariant(name, variant string, n int) Token {
	return Token{Kind: KindStructVariant, Name: name, Variant: variant, Len: n}
}

func StructVariantEnd() Token { return Token{Kind: KindStructVariantEnd} }

// closer returns the token kind ending a compound token, or 0.
func closer(k Kind) Kind {
	switch k {
	case KindSeq:
		return KindSeqEnd
	case KindTuple:
		return KindTupleEnd
	case KindTupleStruct:
		return KindTupleStructEnd
	case KindMap:
		return KindMapEnd
	case KindStruct:
		return KindStructEnd
	case KindTupleVariant:
		return KindTupleVariantEnd
	case KindStructVariant:
		return KindStructVariantEnd
	}
	return 0
}
