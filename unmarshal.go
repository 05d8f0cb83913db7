package untangle

import (
	"reflect"
	"strconv"
)

// Unmarshaler is implemented by types that decode themselves.
type Unmarshaler interface {
	UnmarshalFrom(d Decoder) error
}

var (
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	contentType     = reflect.TypeFor[Content]()
	contentPtrType  = reflect.TypeFor[*Content]()
)

// Unmarshal decodes one value from d into the value v points to.
//
// Structs are read as records using their `untangle` field tags. Fields
// tagged flatten (and untagged embedded structs) share the record's key
// space: the record is buffered, its own fields claim their keys first,
// then each flattened field in declaration order takes what it recognises
// from the rest. A flattened map or Content field takes every key left.
// Pointers are optional values, arrays are tuples, []byte and [N]byte are
// byte arrays, and Content or *Content captures the value as it was read.
func Unmarshal(d Decoder, v any, opts ...Option) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return Customf("untangle: Unmarshal target must be a non-nil pointer, got %T", v)
	}
	s := &decodeState{cfg: newConfig(opts)}
	return s.decodeValue(d, rv.Elem())
}

type decodeState struct {
	cfg *config
}

func (s *decodeState) decodeValue(d Decoder, rv reflect.Value) error {
	rt := rv.Type()
	if rt.Kind() != reflect.Pointer && rv.CanAddr() && reflect.PointerTo(rt).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalFrom(d)
	}
	switch rt {
	case contentType, contentPtrType:
		c, err := Buffer(d)
		if err != nil {
			return err
		}
		if rt == contentType {
			rv.Set(reflect.ValueOf(c).Elem())
		} else {
			rv.Set(reflect.ValueOf(c))
		}
		return nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		b, err := DecodeBool(d)
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := decodeSigned(d, rt.Bits())
		if err != nil {
			return err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := decodeUnsigned(d, rt.Bits())
		if err != nil {
			return err
		}
		rv.SetUint(n)
	case reflect.Float32:
		f, err := DecodeFloat32(d)
		if err != nil {
			return err
		}
		rv.SetFloat(float64(f))
	case reflect.Float64:
		f, err := DecodeFloat64(d)
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.String:
		str, err := DecodeString(d)
		if err != nil {
			return err
		}
		rv.SetString(str)
	case reflect.Slice:
		return s.decodeSlice(d, rv)
	case reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			b, err := DecodeBytes(d)
			if err != nil {
				return err
			}
			if len(b) != rt.Len() {
				return InvalidLength(len(b), "a byte array of length "+strconv.Itoa(rt.Len()))
			}
			reflect.Copy(rv, reflect.ValueOf(b))
			return nil
		}
		return DecodeTuple(d, rt.Len(), func(i int, elem Decoder) error {
			return s.decodeValue(elem, rv.Index(i))
		})
	case reflect.Map:
		return s.decodeMap(d, rv)
	case reflect.Pointer:
		return d.DecodeOption(&pointerVisitor{Expected: Expected("option"), s: s, rv: rv})
	case reflect.Interface:
		if rt.NumMethod() != 0 {
			return Customf("untangle: cannot decode into interface %s", rt)
		}
		c, err := Buffer(d)
		if err != nil {
			return err
		}
		if x := c.Interface(); x != nil {
			rv.Set(reflect.ValueOf(x))
		} else {
			rv.SetZero()
		}
	case reflect.Struct:
		return s.decodeStruct(d, rv)
	default:
		return Customf("untangle: cannot decode into %s", rt)
	}
	return nil
}

func decodeSigned(d Decoder, bits int) (int64, error) {
	switch bits {
	case 8:
		n, err := DecodeInt8(d)
		return int64(n), err
	case 16:
		n, err := DecodeInt16(d)
		return int64(n), err
	case 32:
		n, err := DecodeInt32(d)
		return int64(n), err
	}
	return DecodeInt64(d)
}

func decodeUnsigned(d Decoder, bits int) (uint64, error) {
	switch bits {
	case 8:
		n, err := DecodeUint8(d)
		return uint64(n), err
	case 16:
		n, err := DecodeUint16(d)
		return uint64(n), err
	case 32:
		n, err := DecodeUint32(d)
		return uint64(n), err
	}
	return DecodeUint64(d)
}

func (s *decodeState) decodeSlice(d Decoder, rv reflect.Value) error {
	rt := rv.Type()
	if rt.Elem().Kind() == reflect.Uint8 {
		b, err := DecodeBytes(d)
		if err != nil {
			return err
		}
		rv.SetBytes(b)
		return nil
	}
	out := reflect.MakeSlice(rt, 0, 0)
	err := DecodeSeq(d, func(elem Decoder) error {
		ev := reflect.New(rt.Elem()).Elem()
		if err := s.decodeValue(elem, ev); err != nil {
			return err
		}
		out = reflect.Append(out, ev)
		return nil
	})
	if err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (s *decodeState) decodeMap(d Decoder, rv reflect.Value) error {
	rt := rv.Type()
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(rt))
	}
	return DecodeEntries(d, func(key *Content, vd Decoder) error {
		kv := reflect.New(rt.Key()).Elem()
		if err := s.decodeKey(key, kv); err != nil {
			return err
		}
		vv := reflect.New(rt.Elem()).Elem()
		if err := s.decodeValue(vd, vv); err != nil {
			return err
		}
		rv.SetMapIndex(kv, vv)
		return nil
	})
}

// decodeKey also parses numeric map keys out of strings, for formats whose
// keys are always strings.
func (s *decodeState) decodeKey(key *Content, kv reflect.Value) error {
	if key.kind == KindString {
		switch kv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n, err := strconv.ParseInt(key.str, 10, kv.Type().Bits()); err == nil {
				kv.SetInt(n)
				return nil
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if n, err := strconv.ParseUint(key.str, 10, kv.Type().Bits()); err == nil {
				kv.SetUint(n)
				return nil
			}
		}
	}
	return s.decodeValue(NewDecoder(key), kv)
}

type pointerVisitor struct {
	Expected
	s  *decodeState
	rv reflect.Value
}

func (p *pointerVisitor) VisitNone() error { p.rv.SetZero(); return nil }
func (p *pointerVisitor) VisitUnit() error { p.rv.SetZero(); return nil }

func (p *pointerVisitor) VisitSome(d Decoder) error {
	ptr := reflect.New(p.rv.Type().Elem())
	if err := p.s.decodeValue(d, ptr.Elem()); err != nil {
		return err
	}
	p.rv.Set(ptr)
	return nil
}

func (s *decodeState) decodeStruct(d Decoder, rv reflect.Value) error {
	si := cachedStruct(rv.Type())
	switch {
	case si.unit:
		return DecodeUnitStruct(d, si.name)
	case len(si.flatten) > 0:
		return s.decodeFlattened(d, rv, si)
	}
	return d.DecodeStruct(si.name, si.names, &recordVisitor{Expected: Expected("struct " + si.name), s: s, rv: rv, si: si})
}

type recordVisitor struct {
	Expected
	s  *decodeState
	rv reflect.Value
	si *structInfo
}

func (r *recordVisitor) VisitMap(m MapAccess) error {
	seen := make([]bool, len(r.si.direct))
	for {
		kd, ok, err := m.NextKey()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		i, label, err := identify(kd, r.si.names)
		if err != nil {
			return err
		}
		vd, err := m.NextValue()
		if err != nil {
			return err
		}
		if i < 0 {
			if r.s.cfg.denyUnknown {
				return UnknownField(label, r.si.names)
			}
			r.s.cfg.logger.Debug("ignoring unknown field", "struct", r.si.name, "field", label)
			if err := Skip(vd); err != nil {
				return err
			}
			continue
		}
		f := r.si.fields[r.si.direct[i]]
		if seen[i] {
			return &Error{Kind: ErrDuplicateField, Field: f.name}
		}
		seen[i] = true
		if !f.required {
			err = r.s.decodeOptional(vd, r.rv.Field(f.index))
		} else {
			err = r.s.decodeValue(vd, r.rv.Field(f.index))
		}
		if err != nil {
			return err
		}
	}
	for i, fi := range r.si.direct {
		if f := r.si.fields[fi]; !seen[i] && f.required {
			return MissingField(f.name)
		}
	}
	return nil
}

// decodeOptional fills a field that may be left out. None counts as left
// out, which is how empty omitempty fields are written.
func (s *decodeState) decodeOptional(d Decoder, fv reflect.Value) error {
	if fv.Kind() == reflect.Pointer {
		return s.decodeValue(d, fv)
	}
	c, err := Buffer(d)
	if err != nil {
		return err
	}
	if c.Kind() == KindNone {
		return nil
	}
	return s.decodeValue(NewDecoder(c), fv)
}

func (s *decodeState) decodeFlattened(d Decoder, rv reflect.Value, si *structInfo) error {
	// A flattened struct inside a flattened struct draws from the same map.
	if fd, ok := d.(*flatDecoder); ok {
		return s.fillFlattened(fd.m, rv, si)
	}
	c, err := Buffer(d)
	if err != nil {
		return err
	}
	fm, err := NewFlatMap(c)
	if err != nil {
		return InvalidType(c.Unexpected(), "struct "+si.name)
	}
	if err := s.fillFlattened(fm, rv, si); err != nil {
		return err
	}
	if s.cfg.denyUnknown {
		return fm.CheckUnknown(si.names)
	}
	for _, e := range fm.Unclaimed() {
		s.cfg.logger.Debug("ignoring unknown field", "struct", si.name, "field", keyLabel(e.Key))
	}
	return nil
}

func (s *decodeState) fillFlattened(fm *FlatMap, rv reflect.Value, si *structInfo) error {
	for _, fi := range si.direct {
		f := si.fields[fi]
		val, ok := fm.Lookup(f.name)
		if !ok || (!f.required && val.Kind() == KindNone && rv.Field(f.index).Kind() != reflect.Pointer) {
			if f.required {
				return MissingField(f.name)
			}
			continue
		}
		if err := s.decodeValue(NewDecoder(val), rv.Field(f.index)); err != nil {
			return err
		}
	}
	for _, fi := range si.flatten {
		if err := s.decodeValue(fm.Decoder(), rv.Field(si.fields[fi].index)); err != nil {
			return err
		}
	}
	return nil
}
