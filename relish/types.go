package relish

import "fmt"

// TypeID identifies a Relish type. The top bit is always clear.
type TypeID byte

const (
	TypeNull      TypeID = 0x00
	TypeBool      TypeID = 0x01
	TypeU8        TypeID = 0x02
	TypeU16       TypeID = 0x03
	TypeU32       TypeID = 0x04
	TypeU64       TypeID = 0x05
	TypeU128      TypeID = 0x06
	TypeI8        TypeID = 0x07
	TypeI16       TypeID = 0x08
	TypeI32       TypeID = 0x09
	TypeI64       TypeID = 0x0A
	TypeI128      TypeID = 0x0B
	TypeF32       TypeID = 0x0C
	TypeF64       TypeID = 0x0D
	TypeString    TypeID = 0x0E
	TypeArray     TypeID = 0x0F
	TypeMap       TypeID = 0x10
	TypeStruct    TypeID = 0x11
	TypeEnum      TypeID = 0x12
	TypeTimestamp TypeID = 0x13
)

var typeNames = [...]string{
	"null", "bool", "u8", "u16", "u32", "u64", "u128",
	"i8", "i16", "i32", "i64", "i128", "f32", "f64",
	"string", "array", "map", "struct", "enum", "timestamp",
}

func (t TypeID) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(0x%02x)", byte(t))
}

// U128 and I128 are 128-bit integers held as their little-endian wire bytes.
// They decode from and encode to byte arrays of length 16.
type U128 [16]byte
type I128 [16]byte
