package untangle

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Content is a self-describing decoded value. It is built once, never
// mutated afterwards, and can be replayed any number of times with
// NewDecoder.
type Content struct {
	kind    Kind
	bits    uint64 // bool, integers, float bits, char
	str     string
	bytes   []byte
	name    string // record or enum name
	variant string
	index   int
	elems   []*Content
	entries []Entry
	fields  []Field
}

// Entry is one key/value pair of a map. Keys need not be unique.
type Entry struct {
	Key, Value *Content
}

// Field is one named member of a field record or struct variant.
type Field struct {
	Name  string
	Value *Content
}

func Bool(v bool) *Content {
	c := &Content{kind: KindBool}
	if v {
		c.bits = 1
	}
	return c
}

func U8(v uint8) *Content   { return &Content{kind: KindU8, bits: uint64(v)} }
func U16(v uint16) *Content { return &Content{kind: KindU16, bits: uint64(v)} }
func U32(v uint32) *Content { return &Content{kind: KindU32, bits: uint64(v)} }
func U64(v uint64) *Content { return &Content{kind: KindU64, bits: v} }
func I8(v int8) *Content    { return &Content{kind: KindI8, bits: uint64(int64(v))} }
func I16(v int16) *Content  { return &Content{kind: KindI16, bits: uint64(int64(v))} }
func I32(v int32) *Content  { return &Content{kind: KindI32, bits: uint64(int64(v))} }
func I64(v int64) *Content  { return &Content{kind: KindI64, bits: uint64(v)} }

func F32(v float32) *Content {
	return &Content{kind: KindF32, bits: uint64(math.Float32bits(v))}
}

func F64(v float64) *Content { return &Content{kind: KindF64, bits: math.Float64bits(v)} }

func Char(v rune) *Content { return &Content{kind: KindChar, bits: uint64(v)} }

// Str holds a string. Str and Bytes stay distinct kinds; conversion between
// them happens only when a replayed value is read.
func Str(v string) *Content { return &Content{kind: KindString, str: v} }

// Bytes holds a byte sequence. The slice is retained, not copied.
func Bytes(v []byte) *Content { return &Content{kind: KindBytes, bytes: v} }

func Unit() *Content { return &Content{kind: KindUnit} }
func None() *Content { return &Content{kind: KindNone} }

func Some(v *Content) *Content { return &Content{kind: KindSome, elems: []*Content{v}} }

func UnitRecord(name string) *Content { return &Content{kind: KindUnitRecord, name: name} }

func NewtypeRecord(name string, v *Content) *Content {
	return &Content{kind: KindNewtypeRecord, name: name, elems: []*Content{v}}
}

func TupleRecord(name string, elems ...*Content) *Content {
	return &Content{kind: KindTupleRecord, name: name, elems: elems}
}

func FieldRecord(name string, fields ...Field) *Content {
	return &Content{kind: KindFieldRecord, name: name, fields: fields}
}

// UnitVariant and the other variant constructors take the variant's position
// in its enum; pass -1 when it is not known.
func UnitVariant(enum, variant string, index int) *Content {
	return &Content{kind: KindUnitVariant, name: enum, variant: variant, index: index}
}

func NewtypeVariant(enum, variant string, index int, v *Content) *Content {
	return &Content{kind: KindNewtypeVariant, name: enum, variant: variant, index: index, elems: []*Content{v}}
}

func TupleVariant(enum, variant string, index int, elems ...*Content) *Content {
	return &Content{kind: KindTupleVariant, name: enum, variant: variant, index: index, elems: elems}
}

func StructVariant(enum, variant string, index int, fields ...Field) *Content {
	return &Content{kind: KindStructVariant, name: enum, variant: variant, index: index, fields: fields}
}

func Seq(elems ...*Content) *Content { return &Content{kind: KindSeq, elems: elems} }

func Map(entries ...Entry) *Content { return &Content{kind: KindMap, entries: entries} }

func (c *Content) Kind() Kind { return c.kind }

func (c *Content) Bool() bool { return c.kind == KindBool && c.bits != 0 }

// Int returns the value of an integer node as int64. ok is false for
// non-integers and for unsigned values above math.MaxInt64.
func (c *Content) Int() (v int64, ok bool) {
	switch {
	case c.kind.isSigned():
		return int64(c.bits), true
	case c.kind.isUnsigned() && c.bits <= math.MaxInt64:
		return int64(c.bits), true
	}
	return 0, false
}

// Uint returns the value of an integer node as uint64. ok is false for
// non-integers and negative values.
func (c *Content) Uint() (v uint64, ok bool) {
	switch {
	case c.kind.isUnsigned():
		return c.bits, true
	case c.kind.isSigned() && int64(c.bits) >= 0:
		return c.bits, true
	}
	return 0, false
}

func (c *Content) Float() (float64, bool) {
	switch c.kind {
	case KindF32:
		return float64(math.Float32frombits(uint32(c.bits))), true
	case KindF64:
		return math.Float64frombits(c.bits), true
	}
	return 0, false
}

func (c *Content) Char() rune { return rune(c.bits) }

func (c *Content) Str() string { return c.str }

func (c *Content) Bytes() []byte { return c.bytes }

// Name is the record name, or the enum name of a variant.
func (c *Content) Name() string { return c.name }

func (c *Content) Variant() string { return c.variant }

// Index is the variant position, -1 when unknown.
func (c *Content) Index() int { return c.index }

// Inner is the wrapped node of Some, newtype records and newtype variants.
func (c *Content) Inner() *Content {
	switch c.kind {
	case KindSome, KindNewtypeRecord, KindNewtypeVariant:
		return c.elems[0]
	}
	return nil
}

// Elems are the children of sequences, tuple records and tuple variants.
func (c *Content) Elems() []*Content {
	switch c.kind {
	case KindSeq, KindTupleRecord, KindTupleVariant:
		return c.elems
	}
	return nil
}

func (c *Content) Entries() []Entry { return c.entries }

func (c *Content) Fields() []Field { return c.fields }

// Len is the number of children of a composite node.
func (c *Content) Len() int {
	switch c.kind {
	case KindSeq, KindTupleRecord, KindTupleVariant:
		return len(c.elems)
	case KindMap:
		return len(c.entries)
	case KindFieldRecord, KindStructVariant:
		return len(c.fields)
	case KindString:
		return len(c.str)
	case KindBytes:
		return len(c.bytes)
	}
	return 0
}

// Equal reports structural equality. Numbers are equal only when both kind
// and value match.
func (c *Content) Equal(o *Content) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.kind != o.kind || c.bits != o.bits || c.str != o.str || c.name != o.name || c.variant != o.variant {
		return false
	}
	if c.kind == KindBytes && !bytes.Equal(c.bytes, o.bytes) {
		return false
	}
	if len(c.elems) != len(o.elems) || len(c.entries) != len(o.entries) || len(c.fields) != len(o.fields) {
		return false
	}
	for i := range c.elems {
		if !c.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	for i := range c.entries {
		if !c.entries[i].Key.Equal(o.entries[i].Key) || !c.entries[i].Value.Equal(o.entries[i].Value) {
			return false
		}
	}
	for i := range c.fields {
		if c.fields[i].Name != o.fields[i].Name || !c.fields[i].Value.Equal(o.fields[i].Value) {
			return false
		}
	}
	return true
}

// Compare orders nodes: integers numerically regardless of width, then
// floats, strings and bytes by value, everything else by kind and then
// by its printed form.
func (c *Content) Compare(o *Content) int {
	if ci, ok := c.Int(); ok {
		if oi, ok := o.Int(); ok {
			return cmp.Compare(ci, oi)
		}
	}
	if cu, ok := c.Uint(); ok {
		if ou, ok := o.Uint(); ok {
			return cmp.Compare(cu, ou)
		}
		// o is a negative signed integer.
		if o.kind.isSigned() {
			return 1
		}
	}
	if c.kind.isSigned() && o.kind.isUnsigned() {
		return -1
	}
	if cf, ok := c.Float(); ok {
		if of, ok := o.Float(); ok {
			return cmp.Compare(cf, of)
		}
	}
	if c.kind != o.kind {
		return cmp.Compare(rank(c.kind), rank(o.kind))
	}
	switch c.kind {
	case KindString:
		return strings.Compare(c.str, o.str)
	case KindBytes:
		return bytes.Compare(c.bytes, o.bytes)
	}
	return strings.Compare(c.String(), o.String())
}

// rank groups all integer kinds together so mixed-width keys sort numerically.
func rank(k Kind) int {
	switch {
	case k.isSigned(), k.isUnsigned():
		return 0
	case k.isFloat():
		return 1
	}
	return int(k)
}

// Interface converts the node into plain Go values: fixed-width integers
// keep their width, strings and byte slices their type, Unit and None become
// nil, sequences become []any, field records map[string]any and maps
// map[any]any. Maps with unhashable keys become a []any of [2]any pairs.
func (c *Content) Interface() any {
	switch c.kind {
	case KindBool:
		return c.Bool()
	case KindU8:
		return uint8(c.bits)
	case KindU16:
		return uint16(c.bits)
	case KindU32:
		return uint32(c.bits)
	case KindU64:
		return c.bits
	case KindI8:
		return int8(c.bits)
	case KindI16:
		return int16(c.bits)
	case KindI32:
		return int32(c.bits)
	case KindI64:
		return int64(c.bits)
	case KindF32:
		return math.Float32frombits(uint32(c.bits))
	case KindF64:
		return math.Float64frombits(c.bits)
	case KindChar:
		return rune(c.bits)
	case KindString:
		return c.str
	case KindBytes:
		return c.bytes
	case KindSome, KindNewtypeRecord:
		return c.elems[0].Interface()
	case KindSeq, KindTupleRecord:
		return interfaces(c.elems)
	case KindFieldRecord:
		return fieldMap(c.fields)
	case KindMap:
		return entryMap(c.entries)
	case KindUnitVariant:
		return c.variant
	case KindNewtypeVariant:
		return map[string]any{c.variant: c.elems[0].Interface()}
	case KindTupleVariant:
		return map[string]any{c.variant: interfaces(c.elems)}
	case KindStructVariant:
		return map[string]any{c.variant: fieldMap(c.fields)}
	}
	return nil
}

func interfaces(elems []*Content) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = e.Interface()
	}
	return out
}

func fieldMap(fields []Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value.Interface()
	}
	return out
}

func entryMap(entries []Entry) any {
	for _, e := range entries {
		if !e.Key.hashable() {
			pairs := make([]any, len(entries))
			for i, e := range entries {
				pairs[i] = [2]any{e.Key.Interface(), e.Value.Interface()}
			}
			return pairs
		}
	}
	out := make(map[any]any, len(entries))
	for _, e := range entries {
		out[e.Key.Interface()] = e.Value.Interface()
	}
	return out
}

func (c *Content) hashable() bool {
	switch c.kind {
	case KindBytes, KindSeq, KindTupleRecord, KindFieldRecord, KindMap,
		KindNewtypeVariant, KindTupleVariant, KindStructVariant:
		return false
	case KindSome, KindNewtypeRecord:
		return c.elems[0].hashable()
	}
	return true
}

// String prints the node in a compact debugging notation.
func (c *Content) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c *Content) write(b *strings.Builder) {
	if c == nil {
		b.WriteString("<nil>")
		return
	}
	switch c.kind {
	case KindBool:
		b.WriteString(strconv.FormatBool(c.Bool()))
	case KindU8, KindU16, KindU32, KindU64:
		b.WriteString(strconv.FormatUint(c.bits, 10))
		b.WriteString(c.kind.String())
	case KindI8, KindI16, KindI32, KindI64:
		b.WriteString(strconv.FormatInt(int64(c.bits), 10))
		b.WriteString(c.kind.String())
	case KindF32, KindF64:
		f, _ := c.Float()
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		b.WriteString(c.kind.String())
	case KindChar:
		b.WriteString(strconv.QuoteRune(rune(c.bits)))
	case KindString:
		b.WriteString(strconv.Quote(c.str))
	case KindBytes:
		b.WriteByte('b')
		b.WriteString(strconv.Quote(string(c.bytes)))
	case KindUnit:
		b.WriteString("()")
	case KindNone:
		b.WriteString("None")
	case KindSome:
		b.WriteString("Some")
		writeElems(b, "(", c.elems, ")")
	case KindUnitRecord:
		b.WriteString(c.name)
	case KindNewtypeRecord, KindTupleRecord:
		b.WriteString(c.name)
		writeElems(b, "(", c.elems, ")")
	case KindFieldRecord:
		b.WriteString(c.name)
		writeFields(b, c.fields)
	case KindUnitVariant:
		b.WriteString(c.name + "::" + c.variant)
	case KindNewtypeVariant, KindTupleVariant:
		b.WriteString(c.name + "::" + c.variant)
		writeElems(b, "(", c.elems, ")")
	case KindStructVariant:
		b.WriteString(c.name + "::" + c.variant)
		writeFields(b, c.fields)
	case KindSeq:
		writeElems(b, "[", c.elems, "]")
	case KindMap:
		b.WriteByte('{')
		for i, e := range c.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Key.write(b)
			b.WriteString(": ")
			e.Value.write(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString(c.kind.String())
	}
}

func writeElems(b *strings.Builder, open string, elems []*Content, close string) {
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		e.write(b)
	}
	b.WriteString(close)
}

func writeFields(b *strings.Builder, fields []Field) {
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		f.Value.write(b)
	}
	b.WriteByte('}')
}

// Unexpected describes the node the way type-mismatch errors name what
// they found.
func (c *Content) Unexpected() string {
	switch c.kind {
	case KindBool:
		return fmt.Sprintf("boolean `%t`", c.Bool())
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("integer `%d`", c.bits)
	case KindI8, KindI16, KindI32, KindI64:
		return fmt.Sprintf("integer `%d`", int64(c.bits))
	case KindF32, KindF64:
		f, _ := c.Float()
		return fmt.Sprintf("floating point `%s`", strconv.FormatFloat(f, 'g', -1, 64))
	case KindChar:
		return fmt.Sprintf("character `%c`", rune(c.bits))
	case KindString:
		return fmt.Sprintf("string %q", c.str)
	case KindBytes:
		return "byte array"
	case KindUnit:
		return "unit value"
	case KindNone, KindSome:
		return "Option value"
	case KindUnitRecord:
		return "unit struct"
	case KindNewtypeRecord:
		return "newtype struct"
	case KindTupleRecord:
		return "tuple struct"
	case KindFieldRecord:
		return "struct"
	case KindUnitVariant, KindNewtypeVariant, KindTupleVariant, KindStructVariant:
		return c.kind.String()
	case KindSeq:
		return "sequence"
	case KindMap:
		return "map"
	}
	return c.kind.String()
}
