package untangle

import "fmt"

// Candidate is one variant of an untagged enum.
type Candidate[T any] struct {
	Name string
	// Decode reads the variant's payload. Any error rejects the candidate.
	Decode func(d Decoder) (T, error)
	// Encode returns ok=false when v is not this variant. enum is the name
	// of the enclosing Untagged.
	Encode func(enum string, v T) (c *Content, ok bool, err error)
}

// Untagged is an enum whose encoding carries no variant tag. The variant is
// picked by trying each candidate in order against one buffered value.
type Untagged[T any] struct {
	Name string
	// Expecting replaces the default no-match message when set.
	Expecting  string
	Candidates []Candidate[T]
}

// Decode buffers one value from d and matches it. A decoder that is already
// replaying a tree is not buffered again.
func (u *Untagged[T]) Decode(d Decoder, opts ...Option) (T, error) {
	c, err := Buffer(d)
	if err != nil {
		var zero T
		return zero, err
	}
	return u.Match(c, opts...)
}

// Match tries every candidate in declaration order, each on its own replay
// of c, and returns the first success. Candidate errors are dropped.
func (u *Untagged[T]) Match(c *Content, opts ...Option) (T, error) {
	cfg := newConfig(opts)
	for _, cand := range u.Candidates {
		v, err := cand.Decode(NewDecoder(c))
		if err == nil {
			return v, nil
		}
		cfg.logger.Debug("untagged candidate rejected",
			"enum", u.Name, "variant", cand.Name, "error", err)
	}
	cfg.logger.Debug("no untagged candidate matched", "enum", u.Name, "candidates", len(u.Candidates))
	var zero T
	return zero, u.noMatch()
}

func (u *Untagged[T]) noMatch() *Error {
	if u.Expecting != "" {
		return &Error{Kind: ErrNoMatch, Detail: u.Expecting}
	}
	return &Error{Kind: ErrNoMatch, Detail: "data did not match any variant of untagged enum " + u.Name}
}

// Encode writes v using the first candidate that recognises it.
func (u *Untagged[T]) Encode(v T) (*Content, error) {
	for _, cand := range u.Candidates {
		if cand.Encode == nil {
			continue
		}
		c, ok, err := cand.Encode(u.Name, v)
		if err != nil {
			return nil, err
		}
		if ok {
			return c, nil
		}
	}
	return nil, Customf("untangle: %T is not a variant of %s", v, u.Name)
}

// UnitCandidate is a variant without payload, held as the zero value of V.
// It reads unit, unit records, absence, and present values that are
// themselves unit-like; it always writes unit.
func UnitCandidate[T, V any](name string) Candidate[T] {
	return Candidate[T]{
		Name: name,
		Decode: func(d Decoder) (T, error) {
			if err := d.DecodeAny(unitLike{Expected: Expected("unit variant " + name)}); err != nil {
				var zero T
				return zero, err
			}
			var v V
			return as[T](v)
		},
		Encode: func(_ string, v T) (*Content, bool, error) {
			if _, ok := any(v).(V); !ok {
				return nil, false, nil
			}
			return Unit(), true, nil
		},
	}
}

type unitLike struct{ Expected }

func (unitLike) VisitUnit() error             { return nil }
func (unitLike) VisitUnitStruct(string) error { return nil }
func (unitLike) VisitNone() error             { return nil }

func (u unitLike) VisitSome(d Decoder) error { return d.DecodeAny(u) }

// NewtypeCandidate is a variant wrapping one value of type V, read with
// Unmarshal and written with Marshal.
func NewtypeCandidate[T, V any](name string, opts ...Option) Candidate[T] {
	return Candidate[T]{
		Name:   name,
		Decode: unmarshalAs[T, V](opts),
		Encode: func(_ string, v T) (*Content, bool, error) {
			x, ok := any(v).(V)
			if !ok {
				return nil, false, nil
			}
			c, err := Marshal(x)
			return c, true, err
		},
	}
}

// StructCandidate is a variant with named fields held in struct V. Written
// records take the enum's name. Sequences are not accepted as records.
func StructCandidate[T, V any](name string, opts ...Option) Candidate[T] {
	return Candidate[T]{
		Name:   name,
		Decode: unmarshalAs[T, V](opts),
		Encode: func(enum string, v T) (*Content, bool, error) {
			x, ok := any(v).(V)
			if !ok {
				return nil, false, nil
			}
			c, err := Marshal(x)
			if err != nil {
				return nil, true, err
			}
			if c.kind == KindFieldRecord {
				c = FieldRecord(enum, c.fields...)
			}
			return c, true, nil
		},
	}
}

// FuncCandidate wraps a hand-written decode routine. It never encodes.
func FuncCandidate[T any](name string, decode func(Decoder) (T, error)) Candidate[T] {
	return Candidate[T]{Name: name, Decode: decode}
}

func unmarshalAs[T, V any](opts []Option) func(Decoder) (T, error) {
	return func(d Decoder) (T, error) {
		var v V
		if err := Unmarshal(d, &v, opts...); err != nil {
			var zero T
			return zero, err
		}
		return as[T](v)
	}
}

func as[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("untangle: %T does not implement %T", v, &zero)
	}
	return t, nil
}
