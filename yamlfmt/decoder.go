package yamlfmt

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/dadrian/untangle"
	"gopkg.in/yaml.v3"
)

// Decoder reads the documents of a YAML stream.
type Decoder struct {
	dec  *yaml.Decoder
	opts []untangle.Option
}

// NewDecoder returns a decoder reading from r. The options apply to Decode.
func NewDecoder(r io.Reader, opts ...untangle.Option) *Decoder {
	return &Decoder{dec: yaml.NewDecoder(r), opts: opts}
}

// Next parses the next document. It returns io.EOF at the end of the
// stream.
func (d *Decoder) Next() (untangle.Decoder, error) {
	var doc yaml.Node
	if err := d.dec.Decode(&doc); err != nil {
		return nil, err
	}
	return NodeDecoder(&doc), nil
}

// Decode reads the next document into v.
func (d *Decoder) Decode(v any) error {
	nd, err := d.Next()
	if err != nil {
		return err
	}
	return untangle.Unmarshal(nd, v, d.opts...)
}

// Unmarshal decodes the first document of data into v.
func Unmarshal(data []byte, v any, opts ...untangle.Option) error {
	nd, err := first(data)
	if err != nil {
		return err
	}
	return untangle.Unmarshal(nd, v, opts...)
}

// Parse returns the first document of data as a tree.
func Parse(data []byte) (*untangle.Content, error) {
	nd, err := first(data)
	if err != nil {
		return nil, err
	}
	return untangle.Buffer(nd)
}

func first(data []byte) (untangle.Decoder, error) {
	nd, err := NewDecoder(bytes.NewReader(data)).Next()
	if err == io.EOF {
		return NodeDecoder(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}), nil
	}
	return nd, err
}

// NodeDecoder serves an already parsed node. Aliases are followed and a
// document node stands for its root.
//
// A node carrying a local tag such as !Circle is read as the variant of
// that name, holding the untagged node as its payload.
func NodeDecoder(n *yaml.Node) untangle.Decoder {
	return untangle.Forward(&node{n: n})
}

type node struct {
	n *yaml.Node
}

func resolve(n *yaml.Node) *yaml.Node {
	for {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
}

// localTag returns the variant named by a !Name tag.
func localTag(n *yaml.Node) (string, bool) {
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") && len(n.Tag) > 1 {
		return n.Tag[1:], true
	}
	return "", false
}

// untagged returns a copy of n with its tag resolved from its contents.
func untagged(n *yaml.Node) *yaml.Node {
	c := *n
	c.Tag = ""
	c.Style &^= yaml.TaggedStyle
	return &c
}

func (d *node) errorf(format string, args ...any) error {
	n := resolve(d.n)
	return fmt.Errorf("yamlfmt: line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func (d *node) DecodeAny(v untangle.Visitor) error {
	n := resolve(d.n)
	if name, ok := localTag(n); ok {
		return v.VisitEnum(&taggedVariant{name: name, payload: untagged(n)})
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n, v)
	case yaml.SequenceNode:
		return visitSeq(n.Content, v)
	case yaml.MappingNode:
		return visitMap(n.Content, v)
	case yaml.DocumentNode:
		return v.VisitUnit()
	}
	return d.errorf("unsupported node kind %d", n.Kind)
}

func (d *node) scalar(n *yaml.Node, v untangle.Visitor) error {
	switch n.ShortTag() {
	case "!!null":
		return v.VisitUnit()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		return v.VisitBool(b)
	case "!!int":
		if !strings.HasPrefix(n.Value, "-") {
			var u uint64
			if err := n.Decode(&u); err == nil {
				return v.VisitUint64(u)
			}
		}
		var i int64
		if err := n.Decode(&i); err == nil {
			return v.VisitInt64(i)
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return d.errorf("integer %s is out of range", n.Value)
		}
		return v.VisitFloat64(f)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		return v.VisitFloat64(f)
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return d.errorf("invalid !!binary: %v", err)
		}
		return v.VisitBytes(b)
	}
	return v.VisitString(n.Value)
}

// DecodeOption reads null as absent and anything else as present.
func (d *node) DecodeOption(v untangle.Visitor) error {
	n := resolve(d.n)
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return v.VisitNone()
	}
	return v.VisitSome(untangle.Forward(d))
}

// DecodeEnum accepts a !Variant tag, a plain string naming a unit variant,
// or a mapping with one key.
func (d *node) DecodeEnum(name string, _ []string, v untangle.Visitor) error {
	n := resolve(d.n)
	if variant, ok := localTag(n); ok {
		return v.VisitEnum(&taggedVariant{enum: name, name: variant, payload: untagged(n)})
	}
	switch {
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str":
		return v.VisitEnum(&taggedVariant{enum: name, name: n.Value, unit: true})
	case n.Kind == yaml.MappingNode && len(n.Content) == 2:
		key := resolve(n.Content[0])
		return v.VisitEnum(&taggedVariant{enum: name, name: key.Value, payload: n.Content[1]})
	}
	return d.DecodeAny(v)
}

// taggedVariant is an enum value. unit marks a bare variant name, which
// has no payload node.
type taggedVariant struct {
	enum    string
	name    string
	unit    bool
	payload *yaml.Node
}

func (t *taggedVariant) Name() string { return t.enum }

func (t *taggedVariant) Variant() (untangle.Decoder, untangle.VariantAccess, error) {
	return untangle.NewDecoder(untangle.Str(t.name)), t, nil
}

func (t *taggedVariant) Shape() untangle.Shape {
	if t.unit {
		return untangle.ShapeUnit
	}
	return untangle.ShapeAny
}

// Unit accepts a missing payload or a null one.
func (t *taggedVariant) Unit() error {
	if t.unit {
		return nil
	}
	p := resolve(t.payload)
	if p.Kind == yaml.ScalarNode && (p.ShortTag() == "!!null" || p.Value == "") {
		return nil
	}
	return untangle.InvalidType("a "+p.ShortTag()+" node", "unit variant")
}

func (t *taggedVariant) Newtype() (untangle.Decoder, error) {
	if t.unit {
		return nil, untangle.InvalidType("unit variant", "newtype variant")
	}
	return NodeDecoder(t.payload), nil
}

func (t *taggedVariant) Tuple(n int, v untangle.Visitor) error {
	if t.unit {
		return untangle.InvalidType("unit variant", "tuple variant")
	}
	return NodeDecoder(t.payload).DecodeTuple(n, v)
}

func (t *taggedVariant) Struct(fields []string, v untangle.Visitor) error {
	if t.unit {
		return untangle.InvalidType("unit variant", "struct variant")
	}
	return NodeDecoder(t.payload).DecodeStruct(t.enum, fields, v)
}

func visitSeq(elems []*yaml.Node, v untangle.Visitor) error {
	s := &seqAccess{elems: elems}
	if err := v.VisitSeq(s); err != nil {
		return err
	}
	if s.i < len(elems) {
		return untangle.InvalidLength(len(elems), fmt.Sprintf("%d elements in sequence", s.i))
	}
	return nil
}

type seqAccess struct {
	elems []*yaml.Node
	i     int
}

func (s *seqAccess) Name() string { return "" }
func (s *seqAccess) Len() int     { return len(s.elems) }

func (s *seqAccess) Next() (untangle.Decoder, bool, error) {
	if s.i >= len(s.elems) {
		return nil, false, nil
	}
	s.i++
	return NodeDecoder(s.elems[s.i-1]), true, nil
}

// visitMap walks a mapping node, whose content alternates keys and values.
func visitMap(content []*yaml.Node, v untangle.Visitor) error {
	m := &mapAccess{content: content}
	if err := v.VisitMap(m); err != nil {
		return err
	}
	if n := len(content) / 2; m.i < n {
		return untangle.InvalidLength(n, fmt.Sprintf("%d elements in map", m.i))
	}
	return nil
}

type mapAccess struct {
	content []*yaml.Node
	i       int
}

func (m *mapAccess) Name() string { return "" }
func (m *mapAccess) Len() int     { return len(m.content) / 2 }

func (m *mapAccess) NextKey() (untangle.Decoder, bool, error) {
	if 2*m.i >= len(m.content) {
		return nil, false, nil
	}
	m.i++
	return NodeDecoder(m.content[2*m.i-2]), true, nil
}

func (m *mapAccess) NextValue() (untangle.Decoder, error) {
	if m.i == 0 {
		return nil, fmt.Errorf("yamlfmt: NextValue called before NextKey")
	}
	return NodeDecoder(m.content[2*m.i-1]), nil
}
