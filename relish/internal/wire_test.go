package internal

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFixedSizeAndVarSize(t *testing.T) {
	if n, ok := FixedSize(0x04); !ok || n != 4 { // u32
		t.Fatalf("u32 FixedSize: got (%d,%v) want (4,true)", n, ok)
	}
	if n, ok := FixedSize(0x0E); ok || n != 0 { // string varsize
		t.Fatalf("string FixedSize: got (%d,%v) want (0,false)", n, ok)
	}
	if !IsVarSize(0x0F) || !IsVarSize(0x10) || !IsVarSize(0x11) || !IsVarSize(0x12) {
		t.Fatalf("expected array/map/struct/enum to be varsize")
	}
	if Known(0x14) || Known(0x7F) {
		t.Fatalf("expected 0x14 and 0x7F to be unknown")
	}
}

func TestAppendTLVRejectsTopBit(t *testing.T) {
	if _, err := AppendTLV(nil, 0x80, nil); !errors.Is(err, ErrTypeID) {
		t.Fatalf("got %v want ErrTypeID", err)
	}
}

func TestLengthsEncodeDecode(t *testing.T) {
	// Short form: 0..127
	for _, n := range []int{0, 1, 63, 127} {
		b := AppendLen(nil, n)
		if len(b) != 1 || SizeOfLen(n) != 1 {
			t.Fatalf("short len size: got %d want 1 (n=%d)", len(b), n)
		}
		v, used := DecodeLen(b)
		if used != 1 || v != n {
			t.Fatalf("short decode: got (v=%d,used=%d) want (v=%d,used=1)", v, used, n)
		}
	}
	// Long form boundary
	for _, n := range []int{128, 1024, MaxLen} {
		b := AppendLen(nil, n)
		if len(b) != 4 || SizeOfLen(n) != 4 {
			t.Fatalf("long len size: got %d want 4 (n=%d)", len(b), n)
		}
		v, used := DecodeLen(b)
		if used != 4 || v != n {
			t.Fatalf("long decode: got (v=%d,used=%d) want (v=%d,used=4)", v, used, n)
		}
	}
	if SizeOfLen(-1) != -1 || SizeOfLen(MaxLen+1) != -1 {
		t.Fatalf("expected out of range lengths to be rejected")
	}
	if v, used := DecodeLen([]byte{0x01, 0x00}); used != 0 || v != -1 {
		t.Fatalf("short long-form: got (v=%d,used=%d) want (-1,0)", v, used)
	}
}

func TestStringTLV(t *testing.T) {
	got, err := AppendTLV(nil, 0x0E, []byte("hello"))
	if err != nil {
		t.Fatalf("AppendTLV failed: %v", err)
	}
	want := []byte{0x0E, 0x0A, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoded mismatch: got %v want %v", got, want)
	}

	s := NewScanner(got, 10)
	typ, body, off, err := s.TLV()
	if err != nil {
		t.Fatalf("TLV failed: %v", err)
	}
	if typ != 0x0E || string(body) != "hello" || off != 12 {
		t.Fatalf("decoded mismatch: got (0x%02x, %q, %d) want (0x0e, \"hello\", 12)", typ, body, off)
	}
	if s.Len() != 0 {
		t.Fatalf("extra bytes remaining: %d", s.Len())
	}
}

func TestLongFormContent(t *testing.T) {
	content := bytes.Repeat([]byte{'x'}, 300)
	enc, err := AppendTLV(nil, 0x0E, content)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) != 1+4+300 {
		t.Fatalf("encoded length: got %d want %d", len(enc), 305)
	}
	typ, body, hdr, err := ReadTLV(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("ReadTLV failed: %v", err)
	}
	if typ != 0x0E || hdr != 5 || !bytes.Equal(body, content) {
		t.Fatalf("decoded mismatch: got (0x%02x, hdr=%d, len=%d)", typ, hdr, len(body))
	}
}

func TestElementFixedAndVarSize(t *testing.T) {
	s := NewScanner([]byte{0x2A, 0x00, 0x00, 0x00, 0x04, 'a', 'b'}, 0)
	b, off, err := s.Element(0x04)
	if err != nil || off != 0 || !bytes.Equal(b, []byte{0x2A, 0, 0, 0}) {
		t.Fatalf("u32 element: got (%v, %d, %v)", b, off, err)
	}
	b, off, err = s.Element(0x0E)
	if err != nil || off != 5 || string(b) != "ab" {
		t.Fatalf("string element: got (%q, %d, %v)", b, off, err)
	}
	if _, _, err := s.Element(0x7E); !errors.Is(err, ErrType) {
		t.Fatalf("unknown element: got %v want ErrType", err)
	}
}

func TestReadTLVErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"clean eof", nil, io.EOF},
		{"top bit", []byte{0x84}, ErrTypeID},
		{"unknown", []byte{0x14}, ErrType},
		{"short fixed", []byte{0x04, 0x01}, ErrShort},
		{"short length", []byte{0x0E, 0x01, 0x00}, ErrShort},
		{"short body", []byte{0x0E, 0x06, 'a'}, ErrShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ReadTLV(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
}

func TestScratchIsEmpty(t *testing.T) {
	b := GetScratch()
	*b = append(*b, 1, 2, 3)
	PutScratch(b)
	if got := GetScratch(); len(*got) != 0 {
		t.Fatalf("pooled buffer not reset: len %d", len(*got))
	}
}
