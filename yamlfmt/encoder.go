package yamlfmt

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dadrian/untangle"
	"gopkg.in/yaml.v3"
)

// Encoder writes YAML documents to an io.Writer.
type Encoder struct {
	enc *yaml.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &Encoder{enc: enc}
}

func (e *Encoder) Encode(v any) error {
	c, err := untangle.Marshal(v)
	if err != nil {
		return err
	}
	return e.WriteContent(c)
}

// WriteContent writes c as one document.
func (e *Encoder) WriteContent(c *untangle.Content) error {
	n, err := Node(c)
	if err != nil {
		return err
	}
	return e.enc.Encode(n)
}

// Close flushes the stream.
func (e *Encoder) Close() error { return e.enc.Close() }

// Marshal returns v as a single YAML document.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Node converts a tree to a YAML node.
//
// Options are their inner value or null, records are mappings or
// sequences, and unit variants are their name. Other variants are their
// payload tagged with !Variant. Absent record fields are left out.
func Node(c *untangle.Content) (*yaml.Node, error) {
	switch c.Kind() {
	case untangle.KindBool:
		return scalar("!!bool", strconv.FormatBool(c.Bool())), nil
	case untangle.KindU8, untangle.KindU16, untangle.KindU32, untangle.KindU64:
		u, _ := c.Uint()
		return scalar("!!int", strconv.FormatUint(u, 10)), nil
	case untangle.KindI8, untangle.KindI16, untangle.KindI32, untangle.KindI64:
		i, _ := c.Int()
		return scalar("!!int", strconv.FormatInt(i, 10)), nil
	case untangle.KindF32, untangle.KindF64:
		return scalar("!!float", formatFloat(c)), nil
	case untangle.KindChar:
		return scalar("!!str", string(c.Char())), nil
	case untangle.KindString:
		return scalar("!!str", c.Str()), nil
	case untangle.KindBytes:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(c.Bytes())), nil
	case untangle.KindUnit, untangle.KindNone, untangle.KindUnitRecord:
		return scalar("!!null", "null"), nil
	case untangle.KindSome, untangle.KindNewtypeRecord:
		return Node(c.Inner())
	case untangle.KindSeq, untangle.KindTupleRecord:
		return sequence(c.Elems())
	case untangle.KindFieldRecord:
		return mapping(c.Fields())
	case untangle.KindMap:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range c.Entries() {
			k, err := Node(e.Key)
			if err != nil {
				return nil, err
			}
			v, err := Node(e.Value)
			if err != nil {
				return nil, err
			}
			out.Content = append(out.Content, k, v)
		}
		return out, nil
	case untangle.KindUnitVariant:
		return scalar("!!str", c.Variant()), nil
	case untangle.KindNewtypeVariant, untangle.KindTupleVariant, untangle.KindStructVariant:
		var (
			n   *yaml.Node
			err error
		)
		switch c.Kind() {
		case untangle.KindNewtypeVariant:
			n, err = Node(c.Inner())
		case untangle.KindTupleVariant:
			n, err = sequence(c.Elems())
		default:
			n, err = mapping(c.Fields())
		}
		if err != nil {
			return nil, err
		}
		// Quoting keeps a string payload a string once the tag is dropped.
		if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
			n.Style |= yaml.DoubleQuotedStyle
		}
		n.Tag = "!" + c.Variant()
		return n, nil
	}
	return nil, fmt.Errorf("yamlfmt: cannot encode %s", c.Kind())
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatFloat(c *untangle.Content) string {
	f, _ := c.Float()
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	bits := 64
	if c.Kind() == untangle.KindF32 {
		bits = 32
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func sequence(elems []*untangle.Content) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, e := range elems {
		n, err := Node(e)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, n)
	}
	return out, nil
}

func mapping(fields []untangle.Field) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		if f.Value.Kind() == untangle.KindNone {
			continue
		}
		v, err := Node(f.Value)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, scalar("!!str", f.Name), v)
	}
	return out, nil
}
