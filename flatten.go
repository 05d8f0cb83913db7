package untangle

import (
	"fmt"
	"slices"
)

// FlatMap resolves flattened records. It serves the entries of one
// buffered map to several consumers in turn, each of which claims the keys
// it reads; later consumers only see what is still unclaimed. The claims
// live beside the tree, which is never modified.
type FlatMap struct {
	entries []Entry
	claimed []bool
}

// NewFlatMap accepts a map, a field record, or a sequence of two-element
// sequences read as key/value pairs.
func NewFlatMap(c *Content) (*FlatMap, error) {
	var entries []Entry
	switch c.kind {
	case KindMap:
		entries = c.entries
	case KindFieldRecord, KindStructVariant:
		entries = fieldEntries(c.fields)
	case KindSome, KindNewtypeRecord:
		return NewFlatMap(c.elems[0])
	case KindSeq, KindTupleRecord:
		entries = make([]Entry, len(c.elems))
		for i, pair := range c.elems {
			kv := pair.Elems()
			if len(kv) != 2 {
				return nil, InvalidType(pair.Unexpected(), "a key/value pair")
			}
			entries[i] = Entry{Key: kv[0], Value: kv[1]}
		}
	default:
		return nil, InvalidType(c.Unexpected(), "a map")
	}
	return &FlatMap{entries: entries, claimed: make([]bool, len(entries))}, nil
}

// Lookup claims the first unclaimed entry whose key is the string name (or
// its UTF-8 bytes) and returns its value.
func (f *FlatMap) Lookup(name string) (*Content, bool) {
	for i, e := range f.entries {
		if !f.claimed[i] && keyIs(e.Key, name) {
			f.claimed[i] = true
			return e.Value, true
		}
	}
	return nil, false
}

// LookupKey is Lookup for keys of any kind, compared structurally.
func (f *FlatMap) LookupKey(key *Content) (*Content, bool) {
	for i, e := range f.entries {
		if !f.claimed[i] && e.Key.Equal(key) {
			f.claimed[i] = true
			return e.Value, true
		}
	}
	return nil, false
}

// Unclaimed returns the entries nobody has claimed, in input order.
func (f *FlatMap) Unclaimed() []Entry {
	var out []Entry
	for i, e := range f.entries {
		if !f.claimed[i] {
			out = append(out, e)
		}
	}
	return out
}

// CheckUnknown fails on the first unclaimed entry.
func (f *FlatMap) CheckUnknown(expected []string) error {
	for i, e := range f.entries {
		if !f.claimed[i] {
			return UnknownField(keyLabel(e.Key), expected)
		}
	}
	return nil
}

// Decoder returns a Decoder over the unclaimed entries. A struct request
// sees only the entries keyed by one of its fields; map and any requests see
// all of them, keys in their original kinds. Every entry served is claimed.
func (f *FlatMap) Decoder() Decoder { return &flatDecoder{m: f} }

func keyIs(k *Content, name string) bool {
	switch k.kind {
	case KindString:
		return k.str == name
	case KindBytes:
		return string(k.bytes) == name
	}
	return false
}

func keyIn(k *Content, names []string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return keyIs(k, n) })
}

func keyLabel(k *Content) string {
	switch k.kind {
	case KindString:
		return k.str
	case KindBytes:
		return string(k.bytes)
	}
	return k.String()
}

type flatDecoder struct {
	m *FlatMap
}

func (d *flatDecoder) serve(name string, fields []string, v Visitor) error {
	return v.VisitMap(&flatAccess{m: d.m, name: name, fields: fields, filter: fields != nil})
}

func (d *flatDecoder) unsupported(what string) error {
	return &Error{Kind: ErrTypeMismatch, Unexpected: what, Expected: "a struct or map",
		Detail: fmt.Sprintf("can only flatten structs and maps (got %s)", what)}
}

func (d *flatDecoder) DecodeAny(v Visitor) error { return d.serve("", nil, v) }
func (d *flatDecoder) DecodeMap(v Visitor) error { return d.serve("", nil, v) }

func (d *flatDecoder) DecodeStruct(name string, fields []string, v Visitor) error {
	if fields == nil {
		fields = []string{}
	}
	return d.serve(name, fields, v)
}

func (d *flatDecoder) DecodeOption(v Visitor) error { return v.VisitSome(d) }

func (d *flatDecoder) DecodeNewtypeStruct(name string, v Visitor) error {
	return v.VisitNewtype(name, d)
}

func (d *flatDecoder) DecodeUnit(v Visitor) error                 { return v.VisitUnit() }
func (d *flatDecoder) DecodeUnitStruct(_ string, v Visitor) error { return v.VisitUnit() }
func (d *flatDecoder) DecodeIgnored(v Visitor) error              { return v.VisitUnit() }

// DecodeEnum claims the first unclaimed entry whose key names a variant.
func (d *flatDecoder) DecodeEnum(name string, variants []string, v Visitor) error {
	for i, e := range d.m.entries {
		if d.m.claimed[i] || !keyIn(e.Key, variants) {
			continue
		}
		d.m.claimed[i] = true
		return v.VisitEnum(&replayVariant{enum: name, key: e.Key, shape: ShapeAny, payload: e.Value})
	}
	return Customf("no variant of enum %s found in flattened data", name)
}

func (d *flatDecoder) DecodeBool(Visitor) error       { return d.unsupported("a boolean") }
func (d *flatDecoder) DecodeInt8(Visitor) error       { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeInt16(Visitor) error      { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeInt32(Visitor) error      { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeInt64(Visitor) error      { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeUint8(Visitor) error      { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeUint16(Visitor) error     { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeUint32(Visitor) error     { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeUint64(Visitor) error     { return d.unsupported("an integer") }
func (d *flatDecoder) DecodeFloat32(Visitor) error    { return d.unsupported("a float") }
func (d *flatDecoder) DecodeFloat64(Visitor) error    { return d.unsupported("a float") }
func (d *flatDecoder) DecodeChar(Visitor) error       { return d.unsupported("a character") }
func (d *flatDecoder) DecodeString(Visitor) error     { return d.unsupported("a string") }
func (d *flatDecoder) DecodeBytes(Visitor) error      { return d.unsupported("a byte array") }
func (d *flatDecoder) DecodeSeq(Visitor) error        { return d.unsupported("a sequence") }
func (d *flatDecoder) DecodeTuple(int, Visitor) error { return d.unsupported("a tuple") }
func (d *flatDecoder) DecodeIdentifier(Visitor) error { return d.unsupported("an identifier") }

func (d *flatDecoder) DecodeTupleStruct(string, int, Visitor) error {
	return d.unsupported("a tuple struct")
}

type flatAccess struct {
	m      *FlatMap
	name   string
	fields []string
	filter bool
	next   int
	cur    int
}

func (a *flatAccess) Name() string { return a.name }
func (a *flatAccess) Len() int     { return -1 }

func (a *flatAccess) NextKey() (Decoder, bool, error) {
	for a.next < len(a.m.entries) {
		i := a.next
		a.next++
		e := a.m.entries[i]
		if a.m.claimed[i] || (a.filter && !keyIn(e.Key, a.fields)) {
			continue
		}
		a.m.claimed[i] = true
		a.cur = i
		return NewDecoder(e.Key), true, nil
	}
	return nil, false, nil
}

func (a *flatAccess) NextValue() (Decoder, error) {
	return NewDecoder(a.m.entries[a.cur].Value), nil
}
