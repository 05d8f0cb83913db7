package untangle

// SelfDescribing is the minimum a format whose input names its own types
// must implement. Forward turns it into a full Decoder.
type SelfDescribing interface {
	DecodeAny(v Visitor) error
	DecodeOption(v Visitor) error
	DecodeEnum(name string, variants []string, v Visitor) error
}

// Forward returns a Decoder that sends every request to d.DecodeAny, except
// those d implements itself with the Decoder method signature.
func Forward(d SelfDescribing) Decoder {
	if full, ok := d.(Decoder); ok {
		return full
	}
	return forwarder{d}
}

type forwarder struct {
	SelfDescribing
}

func (f forwarder) any(v Visitor) error { return f.SelfDescribing.DecodeAny(v) }

func (f forwarder) DecodeBool(v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeBool(Visitor) error }); ok {
		return d.DecodeBool(v)
	}
	return f.any(v)
}

func (f forwarder) DecodeInt8(v Visitor) error   { return f.integer(v, 8, true) }
func (f forwarder) DecodeInt16(v Visitor) error  { return f.integer(v, 16, true) }
func (f forwarder) DecodeInt32(v Visitor) error  { return f.integer(v, 32, true) }
func (f forwarder) DecodeInt64(v Visitor) error  { return f.integer(v, 64, true) }
func (f forwarder) DecodeUint8(v Visitor) error  { return f.integer(v, 8, false) }
func (f forwarder) DecodeUint16(v Visitor) error { return f.integer(v, 16, false) }
func (f forwarder) DecodeUint32(v Visitor) error { return f.integer(v, 32, false) }
func (f forwarder) DecodeUint64(v Visitor) error { return f.integer(v, 64, false) }

// IntegerDecoder is implemented by formats that need the requested width,
// typically because integers are not self-describing on the wire.
type IntegerDecoder interface {
	DecodeInteger(v Visitor, bits int, signed bool) error
}

func (f forwarder) integer(v Visitor, bits int, signed bool) error {
	if d, ok := f.SelfDescribing.(IntegerDecoder); ok {
		return d.DecodeInteger(v, bits, signed)
	}
	return f.any(v)
}

func (f forwarder) DecodeFloat32(v Visitor) error { return f.any(v) }
func (f forwarder) DecodeFloat64(v Visitor) error { return f.any(v) }
func (f forwarder) DecodeChar(v Visitor) error    { return f.any(v) }

func (f forwarder) DecodeString(v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeString(Visitor) error }); ok {
		return d.DecodeString(v)
	}
	return f.any(v)
}

func (f forwarder) DecodeBytes(v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeBytes(Visitor) error }); ok {
		return d.DecodeBytes(v)
	}
	return f.any(v)
}

func (f forwarder) DecodeUnit(v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeUnit(Visitor) error }); ok {
		return d.DecodeUnit(v)
	}
	return f.any(v)
}

func (f forwarder) DecodeUnitStruct(name string, v Visitor) error {
	if d, ok := f.SelfDescribing.(interface {
		DecodeUnitStruct(string, Visitor) error
	}); ok {
		return d.DecodeUnitStruct(name, v)
	}
	return f.any(v)
}

func (f forwarder) DecodeNewtypeStruct(name string, v Visitor) error {
	if d, ok := f.SelfDescribing.(interface {
		DecodeNewtypeStruct(string, Visitor) error
	}); ok {
		return d.DecodeNewtypeStruct(name, v)
	}
	return v.VisitNewtype(name, f)
}

func (f forwarder) DecodeSeq(v Visitor) error { return f.any(v) }

func (f forwarder) DecodeTuple(n int, v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeTuple(int, Visitor) error }); ok {
		return d.DecodeTuple(n, v)
	}
	return f.any(v)
}

func (f forwarder) DecodeTupleStruct(name string, n int, v Visitor) error {
	return f.DecodeTuple(n, v)
}

func (f forwarder) DecodeMap(v Visitor) error { return f.any(v) }

func (f forwarder) DecodeStruct(name string, fields []string, v Visitor) error {
	if d, ok := f.SelfDescribing.(interface {
		DecodeStruct(string, []string, Visitor) error
	}); ok {
		return d.DecodeStruct(name, fields, v)
	}
	return f.any(v)
}

func (f forwarder) DecodeIdentifier(v Visitor) error {
	if d, ok := f.SelfDescribing.(interface{ DecodeIdentifier(Visitor) error }); ok {
		return d.DecodeIdentifier(v)
	}
	return f.any(v)
}

func (f forwarder) DecodeIgnored(v Visitor) error { return f.any(v) }
