package relish

import (
	"bytes"
	"io"

	"github.com/dadrian/untangle"
)

// Marshal encodes v into a Relish TLV byte slice.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data, which must hold exactly one TLV, into v.
func Unmarshal(data []byte, v any, opts ...untangle.Option) error {
	r := bytes.NewReader(data)
	dec := NewDecoder(r, opts...)
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return &Error{Kind: ErrUnexpectedEOF, Detail: "no value"}
		}
		return err
	}
	if r.Len() != 0 {
		return errorf(dec.offset, ErrLengthOverflow, "%d trailing bytes", r.Len())
	}
	return nil
}
