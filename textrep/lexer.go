package textrep

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokError
	tokIdent
	tokNumber
	tokString
	tokChar
	tokBytes
	// symbols
	tokColon  // :
	tokPath   // ::
	tokComma  // ,
	tokLBrace // {
	tokRBrace // }
	tokLBrack // [
	tokRBrack // ]
	tokLParen // (
	tokRParen // )
)

type token struct {
	kind tokKind
	lit  string
	off  int
}

type lexer struct {
	src []byte
	off int
	cur token
}

func newLexer(src []byte) *lexer { return &lexer{src: src} }

func (lx *lexer) next() {
	lx.skipSpaceAndComments()
	start := lx.off
	if lx.off >= len(lx.src) {
		lx.cur = token{kind: tokEOF, off: start}
		return
	}
	b := lx.src[lx.off]
	switch {
	case b == 'b' && lx.peek(1) == '"':
		lx.off++
		s, err := lx.quoted('"')
		lx.emit(tokBytes, s, err, start)
		return
	case b == '"':
		s, err := lx.quoted('"')
		lx.emit(tokString, s, err, start)
		return
	case b == '\'':
		s, err := lx.quoted('\'')
		lx.emit(tokChar, s, err, start)
		return
	case isDigit(b) || ((b == '-' || b == '+') && (isDigit(lx.peek(1)) || lx.peek(1) == 'I' || lx.peek(1) == 'N')):
		lx.off++
		lx.scanNumber()
		lx.cur = token{kind: tokNumber, lit: string(lx.src[start:lx.off]), off: start}
		return
	case isIdentStart(b):
		lx.off++
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		lit := string(lx.src[start:lx.off])
		kind := tokIdent
		if isSpecialFloat(lit) {
			kind = tokNumber
		}
		lx.cur = token{kind: kind, lit: lit, off: start}
		return
	}
	lx.off++
	kind := tokError
	switch b {
	case ':':
		kind = tokColon
		if lx.peek(0) == ':' {
			lx.off++
			kind = tokPath
		}
	case ',':
		kind = tokComma
	case '{':
		kind = tokLBrace
	case '}':
		kind = tokRBrace
	case '[':
		kind = tokLBrack
	case ']':
		kind = tokRBrack
	case '(':
		kind = tokLParen
	case ')':
		kind = tokRParen
	}
	lit := string(lx.src[start:lx.off])
	if kind == tokError {
		lit = fmt.Sprintf("unexpected char %q", b)
	}
	lx.cur = token{kind: kind, lit: lit, off: start}
}

func (lx *lexer) emit(kind tokKind, s string, err error, start int) {
	if err != nil {
		lx.cur = token{kind: tokError, lit: err.Error(), off: start}
		lx.off = len(lx.src)
		return
	}
	lx.cur = token{kind: kind, lit: s, off: start}
}

func (lx *lexer) peek(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

// scanNumber consumes the rest of a numeric literal, type suffix included.
// A sign is only accepted right after an exponent marker.
func (lx *lexer) scanNumber() {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case isIdentPart(c) || c == '.':
			lx.off++
		case (c == '+' || c == '-') && (lx.src[lx.off-1] == 'e' || lx.src[lx.off-1] == 'E'):
			lx.off++
		default:
			return
		}
	}
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		b := lx.src[lx.off]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			lx.off++
			continue
		}
		// line comments: # or //
		if b == '#' || (b == '/' && lx.peek(1) == '/') {
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.off++
			}
			continue
		}
		// block comments: /* ... */
		if b == '/' && lx.peek(1) == '*' {
			lx.off += 2
			for lx.off+1 < len(lx.src) && !(lx.src[lx.off] == '*' && lx.src[lx.off+1] == '/') {
				lx.off++
			}
			lx.off = min(lx.off+2, len(lx.src))
			continue
		}
		break
	}
}

// quoted scans a Go-quoted literal starting at the current offset and
// returns it unquoted.
func (lx *lexer) quoted(q byte) (string, error) {
	src := lx.src[lx.off:]
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == q:
			i++
			s, err := strconv.Unquote(string(src[:i]))
			lx.off += i
			return s, err
		case c == '\\':
			i += 2
		case c < utf8.RuneSelf:
			i++
		default:
			_, size := utf8.DecodeRune(src[i:])
			i += size
		}
	}
	return "", fmt.Errorf("unterminated literal")
}

func isIdentStart(b byte) bool { return b == '_' || unicode.IsLetter(rune(b)) }
func isIdentPart(b byte) bool  { return isIdentStart(b) || isDigit(b) }
func isDigit(b byte) bool      { return '0' <= b && b <= '9' }

func isSpecialFloat(s string) bool {
	switch s {
	case "NaNf32", "NaNf64", "Inff32", "Inff64":
		return true
	}
	return false
}
