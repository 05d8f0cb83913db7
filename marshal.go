package untangle

import (
	"reflect"
	"slices"
)

// Marshaler is implemented by types that build their own tree.
type Marshaler interface {
	MarshalContent() (*Content, error)
}

var marshalerType = reflect.TypeFor[Marshaler]()

// Marshal builds the tree for v, mirroring Unmarshal: structs become field
// records named after their type, empty structs unit records, nil pointers
// absence, and map entries are sorted by key.
func Marshal(v any) (*Content, error) {
	return marshalValue(reflect.ValueOf(v))
}

func marshalValue(rv reflect.Value) (*Content, error) {
	if !rv.IsValid() {
		return Unit(), nil
	}
	rt := rv.Type()
	if rt.Implements(marshalerType) {
		if rt.Kind() == reflect.Pointer && rv.IsNil() {
			return None(), nil
		}
		return rv.Interface().(Marshaler).MarshalContent()
	}
	if rv.CanAddr() && reflect.PointerTo(rt).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalContent()
	}
	switch rt {
	case contentType:
		c := rv.Interface().(Content)
		return &c, nil
	case contentPtrType:
		if rv.IsNil() {
			return None(), nil
		}
		return rv.Interface().(*Content), nil
	}

	switch rt.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int8:
		return I8(int8(rv.Int())), nil
	case reflect.Int16:
		return I16(int16(rv.Int())), nil
	case reflect.Int32:
		return I32(int32(rv.Int())), nil
	case reflect.Int, reflect.Int64:
		return I64(rv.Int()), nil
	case reflect.Uint8:
		return U8(uint8(rv.Uint())), nil
	case reflect.Uint16:
		return U16(uint16(rv.Uint())), nil
	case reflect.Uint32:
		return U32(uint32(rv.Uint())), nil
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return U64(rv.Uint()), nil
	case reflect.Float32:
		return F32(float32(rv.Float())), nil
	case reflect.Float64:
		return F64(rv.Float()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return Bytes(slices.Clone(rv.Bytes())), nil
		}
		return marshalElems(rv)
	case reflect.Array:
		if rt.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Bytes(b), nil
		}
		return marshalElems(rv)
	case reflect.Map:
		return marshalMap(rv)
	case reflect.Pointer:
		if rv.IsNil() {
			return None(), nil
		}
		inner, err := marshalValue(rv.Elem())
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case reflect.Interface:
		if rv.IsNil() {
			return Unit(), nil
		}
		return marshalValue(rv.Elem())
	case reflect.Struct:
		return marshalStruct(rv)
	}
	return nil, Customf("untangle: cannot marshal %s", rt)
}

func marshalElems(rv reflect.Value) (*Content, error) {
	elems := make([]*Content, rv.Len())
	for i := range elems {
		c, err := marshalValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		elems[i] = c
	}
	return Seq(elems...), nil
}

func marshalMap(rv reflect.Value) (*Content, error) {
	entries := make([]Entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := marshalValue(iter.Key())
		if err != nil {
			return nil, err
		}
		v, err := marshalValue(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return a.Key.Compare(b.Key) })
	return Map(entries...), nil
}

func marshalStruct(rv reflect.Value) (*Content, error) {
	si := cachedStruct(rv.Type())
	if si.unit {
		return UnitRecord(si.name), nil
	}
	if len(si.flatten) > 0 {
		return marshalFlattened(rv, si)
	}
	fields := make([]Field, 0, len(si.direct))
	for _, fi := range si.direct {
		f := si.fields[fi]
		fv := rv.Field(f.index)
		// Omitted fields stay in place as absent so record positions hold.
		if f.omitEmpty && fv.IsZero() {
			fields = append(fields, Field{Name: f.name, Value: None()})
			continue
		}
		c, err := marshalValue(fv)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: f.name, Value: c})
	}
	return FieldRecord(si.name, fields...), nil
}

// marshalFlattened writes a plain map: the struct's own fields followed by
// the entries of each flattened field.
func marshalFlattened(rv reflect.Value, si *structInfo) (*Content, error) {
	var entries []Entry
	for _, fi := range si.direct {
		f := si.fields[fi]
		fv := rv.Field(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		c, err := marshalValue(fv)
		if err != nil {
			return nil, err
		}
		if c.kind == KindNone {
			continue
		}
		entries = append(entries, Entry{Key: Str(f.name), Value: c})
	}
	for _, fi := range si.flatten {
		c, err := marshalValue(rv.Field(si.fields[fi].index))
		if err != nil {
			return nil, err
		}
		for c.kind == KindSome {
			c = c.elems[0]
		}
		switch c.kind {
		case KindNone, KindUnit, KindUnitRecord:
		case KindMap:
			entries = append(entries, c.entries...)
		case KindFieldRecord:
			for _, f := range c.fields {
				if f.Value.kind != KindNone {
					entries = append(entries, Entry{Key: Str(f.Name), Value: f.Value})
				}
			}
		default:
			return nil, Customf("can only flatten structs and maps (got %s)", c.Unexpected())
		}
	}
	return Map(entries...), nil
}
