package untangle

// Decoder is the capability every format offers and every decoding routine
// consumes. Each request names the shape the caller wants; the decoder
// answers by calling exactly one method of the visitor. Self-describing
// formats may answer with whatever they actually hold and leave the
// visitor to accept or reject it.
type Decoder interface {
	DecodeAny(v Visitor) error
	DecodeBool(v Visitor) error
	DecodeInt8(v Visitor) error
	DecodeInt16(v Visitor) error
	DecodeInt32(v Visitor) error
	DecodeInt64(v Visitor) error
	DecodeUint8(v Visitor) error
	DecodeUint16(v Visitor) error
	DecodeUint32(v Visitor) error
	DecodeUint64(v Visitor) error
	DecodeFloat32(v Visitor) error
	DecodeFloat64(v Visitor) error
	DecodeChar(v Visitor) error
	DecodeString(v Visitor) error
	DecodeBytes(v Visitor) error
	DecodeUnit(v Visitor) error
	DecodeOption(v Visitor) error
	DecodeUnitStruct(name string, v Visitor) error
	DecodeNewtypeStruct(name string, v Visitor) error
	DecodeSeq(v Visitor) error
	DecodeTuple(n int, v Visitor) error
	DecodeTupleStruct(name string, n int, v Visitor) error
	DecodeMap(v Visitor) error
	DecodeStruct(name string, fields []string, v Visitor) error
	DecodeEnum(name string, variants []string, v Visitor) error
	// DecodeIdentifier reads a field or variant name. Formats that encode
	// identifiers as positions answer with an unsigned integer.
	DecodeIdentifier(v Visitor) error
	// DecodeIgnored consumes one value the caller has no use for.
	DecodeIgnored(v Visitor) error
}

// Visitor receives the value a Decoder produces.
type Visitor interface {
	VisitBool(v bool) error
	VisitInt8(v int8) error
	VisitInt16(v int16) error
	VisitInt32(v int32) error
	VisitInt64(v int64) error
	VisitUint8(v uint8) error
	VisitUint16(v uint16) error
	VisitUint32(v uint32) error
	VisitUint64(v uint64) error
	VisitFloat32(v float32) error
	VisitFloat64(v float64) error
	VisitChar(v rune) error
	// VisitString and VisitBytes must not retain their argument's backing
	// storage past the call.
	VisitString(v string) error
	VisitBytes(v []byte) error
	VisitUnit() error
	VisitUnitStruct(name string) error
	VisitNone() error
	VisitSome(d Decoder) error
	VisitNewtype(name string, d Decoder) error
	VisitSeq(s SeqAccess) error
	VisitMap(m MapAccess) error
	VisitEnum(e EnumAccess) error
}

// SeqAccess walks the elements of a sequence. The sequence ends when the
// visitor returns; the decoder reports elements left unread as an
// invalid-length error.
type SeqAccess interface {
	// Name is the record name for tuple records, empty otherwise.
	Name() string
	// Len is the number of elements, -1 when the format does not know.
	Len() int
	// Next returns the decoder for the next element, or ok=false at the end.
	// The returned decoder must be used before Next is called again.
	Next() (d Decoder, ok bool, err error)
}

// MapAccess walks the entries of a map or field record.
type MapAccess interface {
	Name() string
	Len() int
	NextKey() (key Decoder, ok bool, err error)
	// NextValue must follow each successful NextKey.
	NextValue() (Decoder, error)
}

// EnumAccess exposes one enum value.
type EnumAccess interface {
	Name() string
	// Variant returns a decoder for the variant identifier and the access to
	// its payload. The identifier must be decoded before the payload.
	Variant() (Decoder, VariantAccess, error)
}

// VariantAccess reads the payload of an enum variant in the shape the
// caller expects. Asking for a shape the input does not hold fails.
type VariantAccess interface {
	Shape() Shape
	Unit() error
	Newtype() (Decoder, error)
	Tuple(n int, v Visitor) error
	Struct(fields []string, v Visitor) error
}
