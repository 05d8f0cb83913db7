// Package cborfmt reads and writes CBOR through the untangle value tree.
//
// Input is decoded into generic values and turned into a tree, so map keys
// of any type survive. Map entries come out in Core Deterministic order
// (RFC 8949 §4.2), the same order Marshal writes them in.
package cborfmt

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"slices"
	"time"

	"github.com/dadrian/untangle"
	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// encMode writes Core Deterministic Encoding: sorted map keys, smallest
// integer encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode keeps the default map[any]any so integer keys survive.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("cborfmt: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("cborfmt: CBOR decoder initialization failed: " + err.Error())
	}
}

// Parse decodes exactly one CBOR item into a tree.
func Parse(data []byte) (*untangle.Content, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return toContent(v)
}

// Unmarshal decodes one CBOR item into v.
func Unmarshal(data []byte, v any, opts ...untangle.Option) error {
	c, err := Parse(data)
	if err != nil {
		return err
	}
	return untangle.Unmarshal(untangle.NewDecoder(c), v, opts...)
}

// Decoder reads a CBOR sequence (RFC 8742).
type Decoder struct {
	dec  *cbor.Decoder
	opts []untangle.Option
}

func NewDecoder(r io.Reader, opts ...untangle.Option) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r), opts: opts}
}

// Next returns the next item, or io.EOF at the end of the sequence.
func (d *Decoder) Next() (untangle.Decoder, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		return nil, err
	}
	c, err := toContent(v)
	if err != nil {
		return nil, err
	}
	return untangle.NewDecoder(c), nil
}

func (d *Decoder) Decode(v any) error {
	nd, err := d.Next()
	if err != nil {
		return err
	}
	return untangle.Unmarshal(nd, v, d.opts...)
}

func toContent(v any) (*untangle.Content, error) {
	switch v := v.(type) {
	case nil:
		return untangle.Unit(), nil
	case bool:
		return untangle.Bool(v), nil
	case uint64:
		return untangle.U64(v), nil
	case int64:
		return untangle.I64(v), nil
	case float32:
		return untangle.F32(v), nil
	case float64:
		return untangle.F64(v), nil
	case string:
		return untangle.Str(v), nil
	case []byte:
		return untangle.Bytes(v), nil
	case cbor.ByteString:
		return untangle.Bytes([]byte(v)), nil
	case big.Int:
		return bigInt(&v)
	case *big.Int:
		return bigInt(v)
	case cbor.SimpleValue:
		return untangle.U8(uint8(v)), nil
	case time.Time:
		return untangle.Str(v.Format(time.RFC3339Nano)), nil
	case cbor.Tag:
		inner, err := toContent(v.Content)
		if err != nil {
			return nil, err
		}
		return untangle.NewtypeRecord(fmt.Sprintf("Tag%d", v.Number), inner), nil
	case []any:
		elems := make([]*untangle.Content, len(v))
		for i, e := range v {
			c, err := toContent(e)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return untangle.Seq(elems...), nil
	case map[any]any:
		return mapContent(v)
	}
	return nil, fmt.Errorf("cborfmt: unsupported decoded value %T", v)
}

func bigInt(b *big.Int) (*untangle.Content, error) {
	switch {
	case b.IsUint64():
		return untangle.U64(b.Uint64()), nil
	case b.IsInt64():
		return untangle.I64(b.Int64()), nil
	}
	return nil, untangle.Customf("integer %s is out of range", b)
}

type sortedEntry struct {
	enc   []byte
	entry untangle.Entry
}

func mapContent(m map[any]any) (*untangle.Content, error) {
	sorted := make([]sortedEntry, 0, len(m))
	for k, v := range m {
		enc, err := encMode.Marshal(k)
		if err != nil {
			return nil, err
		}
		kc, err := toContent(k)
		if err != nil {
			return nil, err
		}
		vc, err := toContent(v)
		if err != nil {
			return nil, err
		}
		sorted = append(sorted, sortedEntry{enc: enc, entry: untangle.Entry{Key: kc, Value: vc}})
	}
	slices.SortFunc(sorted, func(a, b sortedEntry) int { return bytes.Compare(a.enc, b.enc) })
	entries := make([]untangle.Entry, len(sorted))
	for i, s := range sorted {
		entries[i] = s.entry
	}
	return untangle.Map(entries...), nil
}

// Marshal returns the canonical CBOR encoding of v.
func Marshal(v any) ([]byte, error) {
	c, err := untangle.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Format(c)
}

// Format returns the canonical CBOR encoding of c.
//
// Options are their inner value or null, records are maps with text keys
// or arrays, unit variants are their name, and other variants are maps
// with a single key. Absent record fields are left out.
func Format(c *untangle.Content) ([]byte, error) {
	v, err := toValue(c)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(v)
}

// Digest is the BLAKE3 hash of the canonical encoding of c. Trees that
// differ only in map entry order hash the same.
func Digest(c *untangle.Content) ([32]byte, error) {
	b, err := Format(c)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(b), nil
}

func toValue(c *untangle.Content) (any, error) {
	switch c.Kind() {
	case untangle.KindBool:
		return c.Bool(), nil
	case untangle.KindU8, untangle.KindU16, untangle.KindU32, untangle.KindU64:
		u, _ := c.Uint()
		return u, nil
	case untangle.KindI8, untangle.KindI16, untangle.KindI32, untangle.KindI64:
		i, _ := c.Int()
		return i, nil
	case untangle.KindF32:
		f, _ := c.Float()
		return float32(f), nil
	case untangle.KindF64:
		f, _ := c.Float()
		return f, nil
	case untangle.KindChar:
		return string(c.Char()), nil
	case untangle.KindString:
		return c.Str(), nil
	case untangle.KindBytes:
		return c.Bytes(), nil
	case untangle.KindUnit, untangle.KindNone, untangle.KindUnitRecord:
		return nil, nil
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return toValue(c.Inner())
	case untangle.KindSeq, untangle.KindTupleRecord:
		return toValues(c.Elems())
	case untangle.KindFieldRecord:
		return fieldValues(c.Fields())
	case untangle.KindMap:
		out := make(map[any]any, c.Len())
		for _, e := range c.Entries() {
			k, err := keyValue(e.Key)
			if err != nil {
				return nil, err
			}
			if _, dup := out[k]; dup {
				return nil, fmt.Errorf("cborfmt: duplicate map key %v", e.Key)
			}
			v, err := toValue(e.Value)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case untangle.KindUnitVariant:
		return c.Variant(), nil
	case untangle.KindNewtypeVariant:
		v, err := toValue(c.Inner())
		if err != nil {
			return nil, err
		}
		return map[string]any{c.Variant(): v}, nil
	case untangle.KindTupleVariant:
		v, err := toValues(c.Elems())
		if err != nil {
			return nil, err
		}
		return map[string]any{c.Variant(): v}, nil
	case untangle.KindStructVariant:
		v, err := fieldValues(c.Fields())
		if err != nil {
			return nil, err
		}
		return map[string]any{c.Variant(): v}, nil
	}
	return nil, fmt.Errorf("cborfmt: cannot encode %s", c.Kind())
}

// keyValue converts a map key to a comparable value. Byte strings become
// cbor.ByteString; composite keys cannot be used.
func keyValue(k *untangle.Content) (any, error) {
	switch k.Kind() {
	case untangle.KindBytes:
		return cbor.ByteString(k.Bytes()), nil
	case untangle.KindSeq, untangle.KindTupleRecord, untangle.KindFieldRecord, untangle.KindMap,
		untangle.KindNewtypeVariant, untangle.KindTupleVariant, untangle.KindStructVariant:
		return nil, fmt.Errorf("cborfmt: unsupported map key %s", k.Unexpected())
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return keyValue(k.Inner())
	}
	return toValue(k)
}

func toValues(elems []*untangle.Content) ([]any, error) {
	out := make([]any, len(elems))
	for i, e := range elems {
		v, err := toValue(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fieldValues(fields []untangle.Field) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Value.Kind() == untangle.KindNone {
			continue
		}
		v, err := toValue(f.Value)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}
