// Copyright 2026 The BuildSignal Authors
// SPDX-License-Identifier: MIT

package xclog

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ErrNotSLF is returned when a stream does not start with the SLF0 header.
var ErrNotSLF = errors.New("not an SLF activity log")

// TokenKind identifies an SLF token.
type TokenKind int

// SLF token kinds. The byte in the comment is the delimiter that follows
// the token's payload in the stream.
const (
	TokenInt          TokenKind = iota // '#'
	TokenClassName                     // '%'
	TokenClassNameRef                  // '@'
	TokenString                        // '"'
	TokenDouble                        // '^'
	TokenNull                          // '-'
	TokenList                          // '('
)

func (k TokenKind) String() string {
	switch k {
	case TokenInt:
		return "int"
	case TokenClassName:
		return "className"
	case TokenClassNameRef:
		return "classNameRef"
	case TokenString:
		return "string"
	case TokenDouble:
		return "double"
	case TokenNull:
		return "null"
	case TokenList:
		return "list"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexed SLF value. Class-name references are resolved, so
// Str holds the class name for both TokenClassName and TokenClassNameRef.
type Token struct {
	Kind  TokenKind
	Int   uint64
	Str   string
	Float float64
}

// IsClass reports whether the token introduces an object of some class.
func (t Token) IsClass() bool {
	return t.Kind == TokenClassName || t.Kind == TokenClassNameRef
}

// maxPayload caps string and class-name lengths so a corrupt length prefix
// cannot trigger a huge allocation.
const maxPayload = 64 << 20

// Lexer reads SLF tokens from an uncompressed activity-log stream.
type Lexer struct {
	r       *bufio.Reader
	classes []string
	peeked  *Token
	offset  int64
}

// NewLexer checks the SLF0 header and returns a lexer positioned at the
// first token.
func NewLexer(r io.Reader) (*Lexer, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	header := make([]byte, 4)
	if _, err := io.ReadFull(br, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotSLF
		}
		return nil, err
	}
	if string(header) != "SLF0" {
		return nil, ErrNotSLF
	}
	return &Lexer{r: br, offset: 4}, nil
}

// Offset returns the number of bytes consumed so far.
func (l *Lexer) Offset() int64 { return l.offset }

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.lex()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token. It returns io.EOF at the end
// of the stream.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.lex()
}

func (l *Lexer) lex() (Token, error) {
	var payload []byte
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(payload) > 0 {
				return Token{}, io.ErrUnexpectedEOF
			}
			return Token{}, err
		}
		l.offset++

		if isHex(b) {
			payload = append(payload, b)
			continue
		}

		switch b {
		case '#':
			n, err := strconv.ParseUint(string(payload), 10, 64)
			if err != nil {
				return Token{}, l.errorf("bad int %q", payload)
			}
			return Token{Kind: TokenInt, Int: n}, nil
		case '%':
			name, err := l.readPayload(payload)
			if err != nil {
				return Token{}, err
			}
			l.classes = append(l.classes, name)
			return Token{Kind: TokenClassName, Str: name}, nil
		case '@':
			n, err := strconv.Atoi(string(payload))
			if err != nil || n < 1 || n > len(l.classes) {
				return Token{}, l.errorf("bad class reference %q", payload)
			}
			return Token{Kind: TokenClassNameRef, Int: uint64(n), Str: l.classes[n-1]}, nil
		case '"':
			s, err := l.readPayload(payload)
			if err != nil {
				return Token{}, err
			}
			return Token{Kind: TokenString, Str: s}, nil
		case '^':
			f, err := decodeDouble(payload)
			if err != nil {
				return Token{}, l.errorf("%v", err)
			}
			return Token{Kind: TokenDouble, Float: f}, nil
		case '-':
			if len(payload) != 0 {
				return Token{}, l.errorf("unexpected payload %q before null", payload)
			}
			return Token{Kind: TokenNull}, nil
		case '(':
			n, err := strconv.ParseUint(string(payload), 10, 64)
			if err != nil {
				return Token{}, l.errorf("bad list length %q", payload)
			}
			return Token{Kind: TokenList, Int: n}, nil
		default:
			return Token{}, l.errorf("unexpected byte %q", b)
		}
	}
}

func (l *Lexer) readPayload(lengthDigits []byte) (string, error) {
	n, err := strconv.Atoi(string(lengthDigits))
	if err != nil || n < 0 || n > maxPayload {
		return "", l.errorf("bad length %q", lengthDigits)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(l.r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	l.offset += int64(n)
	return string(buf), nil
}

func (l *Lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("slf offset %d: %s", l.offset, fmt.Sprintf(format, args...))
}

// decodeDouble converts 16 hex characters holding the little-endian bytes
// of an IEEE-754 double.
func decodeDouble(payload []byte) (float64, error) {
	if len(payload) != 16 {
		return 0, fmt.Errorf("bad double %q", payload)
	}
	raw := make([]byte, 8)
	if _, err := hex.Decode(raw, payload); err != nil {
		return 0, fmt.Errorf("bad double %q", payload)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f')
}
