package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dadrian/untangle"
)

// Encoder writes JSON values to an io.Writer, one per line.
type Encoder struct {
	w      io.Writer
	prefix string
	indent string
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// SetIndent makes later writes pretty-print the way json.Indent does.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.prefix, e.indent = prefix, indent
}

func (e *Encoder) Encode(v any) error {
	c, err := untangle.Marshal(v)
	if err != nil {
		return err
	}
	return e.WriteContent(c)
}

// WriteContent writes c followed by a newline.
//
// Options are their inner value or null, records are objects or arrays,
// unit variants are their name as a string, and other variants are
// objects with a single key. Absent record fields are left out. Bytes
// become arrays of numbers.
func (e *Encoder) WriteContent(c *untangle.Content) error {
	out, err := appendValue(nil, c)
	if err != nil {
		return err
	}
	if e.indent != "" || e.prefix != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, e.prefix, e.indent); err != nil {
			return err
		}
		out = buf.Bytes()
	}
	out = append(out, '\n')
	_, err = e.w.Write(out)
	return err
}

// Marshal returns the compact JSON text of v.
func Marshal(v any) ([]byte, error) {
	c, err := untangle.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Format(c)
}

// Format returns the compact JSON text of c.
func Format(c *untangle.Content) ([]byte, error) {
	return appendValue(nil, c)
}

func appendValue(dst []byte, c *untangle.Content) ([]byte, error) {
	switch c.Kind() {
	case untangle.KindBool:
		return strconv.AppendBool(dst, c.Bool()), nil
	case untangle.KindU8, untangle.KindU16, untangle.KindU32, untangle.KindU64:
		u, _ := c.Uint()
		return strconv.AppendUint(dst, u, 10), nil
	case untangle.KindI8, untangle.KindI16, untangle.KindI32, untangle.KindI64:
		i, _ := c.Int()
		return strconv.AppendInt(dst, i, 10), nil
	case untangle.KindF32, untangle.KindF64:
		return appendFloat(dst, c)
	case untangle.KindChar:
		return appendString(dst, string(c.Char())), nil
	case untangle.KindString:
		return appendString(dst, c.Str()), nil
	case untangle.KindBytes:
		dst = append(dst, '[')
		for i, b := range c.Bytes() {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = strconv.AppendUint(dst, uint64(b), 10)
		}
		return append(dst, ']'), nil
	case untangle.KindUnit, untangle.KindNone, untangle.KindUnitRecord:
		return append(dst, "null"...), nil
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return appendValue(dst, c.Inner())
	case untangle.KindSeq, untangle.KindTupleRecord:
		return appendArray(dst, c.Elems())
	case untangle.KindFieldRecord:
		return appendFields(dst, c.Fields())
	case untangle.KindMap:
		return appendMap(dst, c.Entries())
	case untangle.KindUnitVariant:
		return appendString(dst, c.Variant()), nil
	case untangle.KindNewtypeVariant, untangle.KindTupleVariant, untangle.KindStructVariant:
		dst = append(dst, '{')
		dst = appendString(dst, c.Variant())
		dst = append(dst, ':')
		var err error
		switch c.Kind() {
		case untangle.KindNewtypeVariant:
			dst, err = appendValue(dst, c.Inner())
		case untangle.KindTupleVariant:
			dst, err = appendArray(dst, c.Elems())
		default:
			dst, err = appendFields(dst, c.Fields())
		}
		if err != nil {
			return nil, err
		}
		return append(dst, '}'), nil
	}
	return nil, fmt.Errorf("jsonfmt: cannot encode %s", c.Kind())
}

// appendFloat keeps a fraction or exponent so the value reads back as a
// float.
func appendFloat(dst []byte, c *untangle.Content) ([]byte, error) {
	f, _ := c.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("jsonfmt: cannot encode %v", f)
	}
	bits := 64
	if c.Kind() == untangle.KindF32 {
		bits = 32
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, 'g', -1, bits)
	if !bytes.ContainsAny(dst[start:], ".e") {
		dst = append(dst, ".0"...)
	}
	return dst, nil
}

func appendString(dst []byte, s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return append(dst, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))...)
}

func appendArray(dst []byte, elems []*untangle.Content) ([]byte, error) {
	dst = append(dst, '[')
	for i, e := range elems {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendValue(dst, e); err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}

func appendFields(dst []byte, fields []untangle.Field) ([]byte, error) {
	dst = append(dst, '{')
	first := true
	for _, f := range fields {
		if f.Value.Kind() == untangle.KindNone {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = appendString(dst, f.Name)
		dst = append(dst, ':')
		var err error
		if dst, err = appendValue(dst, f.Value); err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}

func appendMap(dst []byte, entries []untangle.Entry) ([]byte, error) {
	dst = append(dst, '{')
	for i, e := range entries {
		if i > 0 {
			dst = append(dst, ',')
		}
		key, err := keyString(e.Key)
		if err != nil {
			return nil, err
		}
		dst = appendString(dst, key)
		dst = append(dst, ':')
		if dst, err = appendValue(dst, e.Value); err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}

// keyString renders a map key. Object keys are strings, so numbers and
// booleans are written in their text form.
func keyString(k *untangle.Content) (string, error) {
	switch k.Kind() {
	case untangle.KindString:
		return k.Str(), nil
	case untangle.KindChar:
		return string(k.Char()), nil
	case untangle.KindBool:
		return strconv.FormatBool(k.Bool()), nil
	case untangle.KindU8, untangle.KindU16, untangle.KindU32, untangle.KindU64:
		u, _ := k.Uint()
		return strconv.FormatUint(u, 10), nil
	case untangle.KindI8, untangle.KindI16, untangle.KindI32, untangle.KindI64:
		i, _ := k.Int()
		return strconv.FormatInt(i, 10), nil
	case untangle.KindUnitVariant:
		return k.Variant(), nil
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return keyString(k.Inner())
	}
	return "", fmt.Errorf("jsonfmt: map key must be a string or number, got %s", k.Unexpected())
}
