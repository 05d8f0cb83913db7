package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dadrian/untangle"
	"github.com/dadrian/untangle/cborfmt"
	"github.com/dadrian/untangle/jsonfmt"
	"github.com/dadrian/untangle/relish"
	"github.com/dadrian/untangle/textrep"
	"github.com/dadrian/untangle/yamlfmt"
)

const formatList = "tree|json|yaml|cbor|relish"

// parse reads exactly one value written in format.
func parse(format string, data []byte) (*untangle.Content, error) {
	switch format {
	case "tree":
		return textrep.Parse(data)
	case "json":
		return jsonfmt.Parse(data)
	case "yaml":
		return yamlfmt.Parse(data)
	case "cbor":
		return cborfmt.Parse(data)
	case "relish":
		r := bytes.NewReader(data)
		d, err := relish.NewDecoder(r).Next()
		if err == io.EOF {
			return nil, errors.New("no value")
		}
		if err != nil {
			return nil, err
		}
		c, err := untangle.Buffer(d)
		if err != nil {
			return nil, err
		}
		if r.Len() != 0 {
			return nil, fmt.Errorf("%d trailing bytes", r.Len())
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown format %q (want %s)", format, formatList)
}

// render writes c in format. Text formats end with a newline.
func render(format string, c *untangle.Content) ([]byte, error) {
	switch format {
	case "tree":
		return []byte(c.String() + "\n"), nil
	case "json":
		b, err := jsonfmt.Format(c)
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "yaml":
		n, err := yamlfmt.Node(c)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(n)
	case "cbor":
		return cborfmt.Format(c)
	case "relish":
		var buf bytes.Buffer
		if err := relish.NewEncoder(&buf).WriteContent(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown format %q (want %s)", format, formatList)
}
