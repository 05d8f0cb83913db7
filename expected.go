package untangle

import (
	"fmt"
	"strconv"
)

// Expected is a Visitor that rejects everything with a type-mismatch error
// naming what it expected, e.g. Expected("u8"). Concrete visitors embed it
// and override the methods for the shapes they accept.
type Expected string

func (e Expected) reject(unexpected string) error { return InvalidType(unexpected, string(e)) }

func (e Expected) VisitBool(v bool) error       { return e.reject(fmt.Sprintf("boolean `%t`", v)) }
func (e Expected) VisitInt8(v int8) error       { return e.VisitInt64(int64(v)) }
func (e Expected) VisitInt16(v int16) error     { return e.VisitInt64(int64(v)) }
func (e Expected) VisitInt32(v int32) error     { return e.VisitInt64(int64(v)) }
func (e Expected) VisitInt64(v int64) error     { return e.reject(fmt.Sprintf("integer `%d`", v)) }
func (e Expected) VisitUint8(v uint8) error     { return e.VisitUint64(uint64(v)) }
func (e Expected) VisitUint16(v uint16) error   { return e.VisitUint64(uint64(v)) }
func (e Expected) VisitUint32(v uint32) error   { return e.VisitUint64(uint64(v)) }
func (e Expected) VisitUint64(v uint64) error   { return e.reject(fmt.Sprintf("integer `%d`", v)) }
func (e Expected) VisitFloat32(v float32) error { return e.VisitFloat64(float64(v)) }

func (e Expected) VisitFloat64(v float64) error {
	return e.reject("floating point `" + strconv.FormatFloat(v, 'g', -1, 64) + "`")
}

func (e Expected) VisitChar(v rune) error             { return e.reject(fmt.Sprintf("character `%c`", v)) }
func (e Expected) VisitString(v string) error         { return e.reject(fmt.Sprintf("string %q", v)) }
func (e Expected) VisitBytes([]byte) error            { return e.reject("byte array") }
func (e Expected) VisitUnit() error                   { return e.reject("unit value") }
func (e Expected) VisitUnitStruct(string) error       { return e.reject("unit struct") }
func (e Expected) VisitNone() error                   { return e.reject("Option value") }
func (e Expected) VisitSome(Decoder) error            { return e.reject("Option value") }
func (e Expected) VisitNewtype(string, Decoder) error { return e.reject("newtype struct") }
func (e Expected) VisitSeq(SeqAccess) error           { return e.reject("sequence") }
func (e Expected) VisitMap(MapAccess) error           { return e.reject("map") }
func (e Expected) VisitEnum(EnumAccess) error         { return e.reject("enum") }
