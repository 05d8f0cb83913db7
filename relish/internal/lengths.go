package internal

// Tagged-varint lengths.
// Short form: 1 byte, LSB=0, upper 7 bits carry the length (0..127).
// Long form: 4 bytes, first byte LSB=1, remaining 31 bits little-endian
// across the first byte's upper 7 bits and the next 3 bytes.

const MaxLen = 1<<31 - 1

// SizeOfLen returns the number of bytes needed to encode n, or -1.
func SizeOfLen(n int) int {
	if n < 0 || n > MaxLen {
		return -1
	}
	if n <= 0x7F {
		return 1
	}
	return 4
}

// AppendLen appends the encoding of n to dst. n must be in range.
func AppendLen(dst []byte, n int) []byte {
	if n <= 0x7F {
		return append(dst, byte(n<<1))
	}
	u := uint32(n)
	return append(dst,
		byte((u&0x7F)<<1|0x01),
		byte(u>>7),
		byte(u>>15),
		byte(u>>23),
	)
}

// DecodeLen decodes a length from the front of src, returning the value
// and the bytes consumed. It returns (-1, 0) on short input.
func DecodeLen(src []byte) (int, int) {
	if len(src) == 0 {
		return -1, 0
	}
	b0 := src[0]
	if b0&0x01 == 0 {
		return int(b0 >> 1), 1
	}
	if len(src) < 4 {
		return -1, 0
	}
	n := uint32(b0>>1) | uint32(src[1])<<7 | uint32(src[2])<<15 | uint32(src[3])<<23
	return int(n), 4
}
