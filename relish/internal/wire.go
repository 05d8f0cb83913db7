package internal

import (
	"errors"
	"io"
	"sync"
)

var (
	ErrShort  = errors.New("unexpected end of data")
	ErrTypeID = errors.New("invalid type id (top bit set)")
	ErrLength = errors.New("length out of range")
	ErrType   = errors.New("unknown type id")
)

// Type ids that the wire layer needs to tell apart.
const (
	typeString    = 0x0E
	typeArray     = 0x0F
	typeMap       = 0x10
	typeStruct    = 0x11
	typeEnum      = 0x12
	typeTimestamp = 0x13
)

// IsVarSize reports whether values of type t carry a length prefix.
func IsVarSize(t byte) bool {
	switch t {
	case typeString, typeArray, typeMap, typeStruct, typeEnum:
		return true
	}
	return false
}

// FixedSize returns the content size of a fixed-size type. It returns
// (0, true) for Null and (0, false) for varsize or unknown types.
func FixedSize(t byte) (int, bool) {
	switch t {
	case 0x00:
		return 0, true
	case 0x01, 0x02, 0x07:
		return 1, true
	case 0x03, 0x08:
		return 2, true
	case 0x04, 0x09, 0x0C:
		return 4, true
	case 0x05, 0x0A, 0x0D, typeTimestamp:
		return 8, true
	case 0x06, 0x0B:
		return 16, true
	}
	return 0, false
}

// Known reports whether t is a defined type id.
func Known(t byte) bool {
	_, fixed := FixedSize(t)
	return fixed || IsVarSize(t)
}

// Scanner walks an in-memory encoding. Offsets are reported relative to the
// start of the enclosing stream.
type Scanner struct {
	buf  []byte
	pos  int
	base int64
}

func NewScanner(buf []byte, base int64) *Scanner {
	return &Scanner{buf: buf, base: base}
}

func (s *Scanner) Len() int      { return len(s.buf) - s.pos }
func (s *Scanner) Offset() int64 { return s.base + int64(s.pos) }

func (s *Scanner) Byte() (byte, error) {
	if s.pos >= len(s.buf) {
		return 0, ErrShort
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

// Type reads a type id and checks its top bit.
func (s *Scanner) Type() (byte, error) {
	b, err := s.Byte()
	if err != nil {
		return 0, err
	}
	if b&0x80 != 0 {
		return 0, ErrTypeID
	}
	return b, nil
}

func (s *Scanner) Take(n int) ([]byte, error) {
	if n < 0 || n > s.Len() {
		return nil, ErrShort
	}
	out := s.buf[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}

func (s *Scanner) ReadLen() (int, error) {
	n, used := DecodeLen(s.buf[s.pos:])
	if used == 0 {
		return 0, ErrShort
	}
	s.pos += used
	return n, nil
}

// Element reads the content of one value of type t that is stored without
// its type id, as in arrays and maps. It returns the content and the offset
// where the content starts.
func (s *Scanner) Element(t byte) ([]byte, int64, error) {
	if !Known(t) {
		return nil, 0, ErrType
	}
	if n, ok := FixedSize(t); ok {
		off := s.Offset()
		b, err := s.Take(n)
		return b, off, err
	}
	n, err := s.ReadLen()
	if err != nil {
		return nil, 0, err
	}
	off := s.Offset()
	b, err := s.Take(n)
	return b, off, err
}

// TLV reads one complete value.
func (s *Scanner) TLV() (byte, []byte, int64, error) {
	t, err := s.Type()
	if err != nil {
		return 0, nil, 0, err
	}
	b, off, err := s.Element(t)
	return t, b, off, err
}

// ReadTLV reads one complete value from a stream and returns its type id,
// its content, and the number of header bytes before the content.
func ReadTLV(r io.Reader) (byte, []byte, int, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		return 0, nil, 0, err
	}
	t := hdr[0]
	if t&0x80 != 0 {
		return 0, nil, 0, ErrTypeID
	}
	if !Known(t) {
		return 0, nil, 0, ErrType
	}
	n, fixed := FixedSize(t)
	used := 1
	if !fixed {
		if _, err := io.ReadFull(r, hdr[:1]); err != nil {
			return 0, nil, 0, shortIfEOF(err)
		}
		if hdr[0]&0x01 != 0 {
			if _, err := io.ReadFull(r, hdr[1:4]); err != nil {
				return 0, nil, 0, shortIfEOF(err)
			}
		}
		var l int
		l, used = DecodeLen(hdr[:])
		n = l
		used++
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, 0, shortIfEOF(err)
	}
	return t, body, used, nil
}

func shortIfEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShort
	}
	return err
}

// AppendElem appends content of type t without its type id.
func AppendElem(dst []byte, t byte, content []byte) ([]byte, error) {
	if IsVarSize(t) {
		if SizeOfLen(len(content)) < 0 {
			return dst, ErrLength
		}
		dst = AppendLen(dst, len(content))
	}
	return append(dst, content...), nil
}

// AppendTLV appends one complete value.
func AppendTLV(dst []byte, t byte, content []byte) ([]byte, error) {
	if t&0x80 != 0 {
		return dst, ErrTypeID
	}
	return AppendElem(append(dst, t), t, content)
}

var scratch = sync.Pool{New: func() any { b := make([]byte, 0, 256); return &b }}

// GetScratch returns an empty pooled byte slice.
func GetScratch() *[]byte {
	b := scratch.Get().(*[]byte)
	*b = (*b)[:0]
	return b
}

func PutScratch(b *[]byte) {
	if b != nil && cap(*b) <= 1<<16 {
		scratch.Put(b)
	}
}
