package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dadrian/untangle"
	"github.com/dadrian/untangle/yamlfmt"
)

// shapeFile lists the variants of one untagged enum in the order they are
// tried:
//
//	name: Message
//	candidates:
//	  - {name: Ping, kind: unit}
//	  - {name: Pair, kind: tuple, len: 2}
//	  - {name: Point, kind: struct, fields: [x, y]}
//	  - {name: Text, kind: string}
type shapeFile struct {
	Name       string  `untangle:"name"`
	Expecting  string  `untangle:"expecting,default"`
	Candidates []shape `untangle:"candidates"`
}

type shape struct {
	Name   string   `untangle:"name"`
	Kind   string   `untangle:"kind"`
	Len    *int     `untangle:"len"`
	Fields []string `untangle:"fields,default"`
}

func loadShapes(path string, denyUnknown bool) (*untangle.Untagged[string], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shapes: %w", err)
	}
	return buildShapes(data, denyUnknown)
}

// buildShapes returns an enum whose matched value is the candidate's name.
func buildShapes(data []byte, denyUnknown bool) (*untangle.Untagged[string], error) {
	var f shapeFile
	if err := yamlfmt.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("shapes: %w", err)
	}
	if len(f.Candidates) == 0 {
		return nil, errors.New("shapes: no candidates")
	}
	enum := &untangle.Untagged[string]{Name: f.Name, Expecting: f.Expecting}
	for _, s := range f.Candidates {
		check, err := s.checker(denyUnknown)
		if err != nil {
			return nil, fmt.Errorf("shape %s: %w", s.Name, err)
		}
		name := s.Name
		enum.Candidates = append(enum.Candidates, untangle.FuncCandidate(name, func(d untangle.Decoder) (string, error) {
			if err := check(d); err != nil {
				return "", err
			}
			return name, nil
		}))
	}
	return enum, nil
}

func (s shape) checker(denyUnknown bool) (func(untangle.Decoder) error, error) {
	switch s.Kind {
	case "any":
		return untangle.Skip, nil
	case "unit":
		return untangle.DecodeUnit, nil
	case "bool":
		return discard(untangle.DecodeBool), nil
	case "int":
		return discard(untangle.DecodeInt64), nil
	case "uint":
		return discard(untangle.DecodeUint64), nil
	case "float":
		return discard(untangle.DecodeFloat64), nil
	case "string":
		return discard(untangle.DecodeString), nil
	case "bytes":
		return discard(untangle.DecodeBytes), nil
	case "seq":
		return func(d untangle.Decoder) error {
			return untangle.DecodeSeq(d, untangle.Skip)
		}, nil
	case "tuple":
		if s.Len == nil {
			return nil, errors.New("tuple needs len")
		}
		n := *s.Len
		return func(d untangle.Decoder) error {
			return untangle.DecodeTuple(d, n, func(_ int, elem untangle.Decoder) error {
				return untangle.Skip(elem)
			})
		}, nil
	case "map":
		return func(d untangle.Decoder) error {
			return untangle.DecodeEntries(d, func(_ *untangle.Content, v untangle.Decoder) error {
				return untangle.Skip(v)
			})
		}, nil
	case "struct":
		fields := s.Fields
		return func(d untangle.Decoder) error {
			return checkStruct(d, fields, denyUnknown)
		}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", s.Kind)
}

func discard[T any](fn func(untangle.Decoder) (T, error)) func(untangle.Decoder) error {
	return func(d untangle.Decoder) error {
		_, err := fn(d)
		return err
	}
}

// checkStruct accepts a map or field record carrying every name in fields.
func checkStruct(d untangle.Decoder, fields []string, denyUnknown bool) error {
	seen := make([]bool, len(fields))
	err := untangle.DecodeEntries(d, func(key *untangle.Content, v untangle.Decoder) error {
		if key.Kind() == untangle.KindString {
			if i := slices.Index(fields, key.Str()); i >= 0 {
				seen[i] = true
				return untangle.Skip(v)
			}
			if denyUnknown {
				return untangle.UnknownField(key.Str(), fields)
			}
		} else if denyUnknown {
			return untangle.UnknownField(key.String(), fields)
		}
		return untangle.Skip(v)
	})
	if err != nil {
		return err
	}
	for i, ok := range seen {
		if !ok {
			return untangle.MissingField(fields[i])
		}
	}
	return nil
}
