package untangle

import "fmt"

// Kind identifies the shape of a Content node. The set is closed.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindChar
	KindString
	KindBytes
	KindUnit
	KindNone
	KindSome
	KindUnitRecord
	KindNewtypeRecord
	KindTupleRecord
	KindFieldRecord
	KindUnitVariant
	KindNewtypeVariant
	KindTupleVariant
	KindStructVariant
	KindSeq
	KindMap
)

var kindNames = [...]string{
	KindBool:           "bool",
	KindU8:             "u8",
	KindU16:            "u16",
	KindU32:            "u32",
	KindU64:            "u64",
	KindI8:             "i8",
	KindI16:            "i16",
	KindI32:            "i32",
	KindI64:            "i64",
	KindF32:            "f32",
	KindF64:            "f64",
	KindChar:           "char",
	KindString:         "string",
	KindBytes:          "bytes",
	KindUnit:           "unit",
	KindNone:           "none",
	KindSome:           "some",
	KindUnitRecord:     "unit record",
	KindNewtypeRecord:  "newtype record",
	KindTupleRecord:    "tuple record",
	KindFieldRecord:    "field record",
	KindUnitVariant:    "unit variant",
	KindNewtypeVariant: "newtype variant",
	KindTupleVariant:   "tuple variant",
	KindStructVariant:  "struct variant",
	KindSeq:            "seq",
	KindMap:            "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) isSigned() bool   { return k >= KindI8 && k <= KindI64 }
func (k Kind) isUnsigned() bool { return k >= KindU8 && k <= KindU64 }
func (k Kind) isFloat() bool    { return k == KindF32 || k == KindF64 }
func (k Kind) isVariant() bool  { return k >= KindUnitVariant && k <= KindStructVariant }

// Shape is the payload form of an enum variant.
type Shape uint8

const (
	// ShapeAny means the source format cannot tell the payload form
	// without being asked for one.
	ShapeAny Shape = iota
	ShapeUnit
	ShapeNewtype
	ShapeTuple
	ShapeStruct
)

func (s Shape) String() string {
	switch s {
	case ShapeUnit:
		return "unit variant"
	case ShapeNewtype:
		return "newtype variant"
	case ShapeTuple:
		return "tuple variant"
	case ShapeStruct:
		return "struct variant"
	default:
		return "variant"
	}
}
