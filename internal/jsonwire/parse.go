package jsonwire

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/ianremillard/webcardd/internal/framer"
)

// ErrParse is wrapped by every grammar, UTF-8, or overflow violation the
// parser detects.
var ErrParse = errors.New("jsonwire: parse error")

// maxDepth bounds array/object nesting so a crafted input cannot exhaust
// the Go call stack, per spec.md §9's recommendation (the original source
// enforces no such limit).
const maxDepth = 64

// maxNumberLen is the fixed upper bound on a number's textual slice before
// conversion, per §4.2 ("≥ 64 bytes is sufficient for any representable
// value; overflow fails").
const maxNumberLen = 64

// Parse consumes the entire frame body and returns its root value. Trailing
// bytes after the root value are a parse failure, matching §4.2's "the
// parser ... consumes the entire frame."
func Parse(body []byte) (*Value, error) {
	cur := framer.NewCursor(body)
	cur.SkipWhitespace()
	v, err := parseValue(cur, 0)
	if err != nil {
		return nil, err
	}
	cur.SkipWhitespace()
	if !cur.AtEnd() {
		return nil, errf("trailing garbage after root value at byte %d", cur.Pos())
	}
	return v, nil
}

func errf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrParse}, args...)...)
}

func parseValue(cur *framer.Cursor, depth int) (*Value, error) {
	if depth > maxDepth {
		return nil, errf("max nesting depth exceeded")
	}
	cur.SkipWhitespace()
	b, ok := cur.Peek()
	if !ok {
		return nil, errf("unexpected end of input")
	}
	switch {
	case b == '"':
		s, err := parseString(cur)
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case b == '{':
		return parseObject(cur, depth)
	case b == '[':
		return parseArray(cur, depth)
	case b == 't':
		if err := expectLiteral(cur, "true"); err != nil {
			return nil, err
		}
		return Bool(true), nil
	case b == 'f':
		if err := expectLiteral(cur, "false"); err != nil {
			return nil, err
		}
		return Bool(false), nil
	case b == 'n':
		if err := expectLiteral(cur, "null"); err != nil {
			return nil, err
		}
		return Null(), nil
	case b == '-' || (b >= '0' && b <= '9'):
		return parseNumber(cur)
	default:
		return nil, errf("unexpected byte 0x%02x at %d", b, cur.Pos())
	}
}

func expectLiteral(cur *framer.Cursor, lit string) error {
	data, ok := cur.ReadN(len(lit))
	if !ok || string(data) != lit {
		return errf("expected literal %q at %d", lit, cur.Pos())
	}
	return nil
}

// parseNumber implements the state machine from spec.md §4.2 (states A-I).
// It accumulates the exact textual slice, then converts it with the
// platform's locale-independent float parser; any trailing text or
// conversion error fails the parse.
func parseNumber(cur *framer.Cursor) (*Value, error) {
	start := cur.Pos()
	n := 0

	// state A: optional leading '-'
	if b, ok := cur.Peek(); ok && b == '-' {
		cur.Advance(1)
		n++
	}

	// state B/C/D: integer part — either a lone '0' or [1-9][0-9]*
	b, ok := cur.Peek()
	if !ok || b < '0' || b > '9' {
		return nil, errf("invalid number at %d: missing digit after sign", cur.Pos())
	}
	if b == '0' {
		cur.Advance(1)
		n++
		// state C: leading-zero form, must be followed by '.' or a terminator
	} else {
		for {
			b, ok := cur.Peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			cur.Advance(1)
			n++
			if n > maxNumberLen {
				return nil, errf("number exceeds %d bytes", maxNumberLen)
			}
		}
	}

	// state E/F: optional fraction
	if b, ok := cur.Peek(); ok && b == '.' {
		cur.Advance(1)
		n++
		fb, fok := cur.Peek()
		if !fok || fb < '0' || fb > '9' {
			return nil, errf("invalid number at %d: expected digit after '.'", cur.Pos())
		}
		for {
			b, ok := cur.Peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			cur.Advance(1)
			n++
			if n > maxNumberLen {
				return nil, errf("number exceeds %d bytes", maxNumberLen)
			}
		}
	}

	// state G/H/I: optional exponent
	if b, ok := cur.Peek(); ok && (b == 'e' || b == 'E') {
		cur.Advance(1)
		n++
		if b, ok := cur.Peek(); ok && (b == '+' || b == '-') {
			cur.Advance(1)
			n++
		}
		eb, eok := cur.Peek()
		if !eok || eb < '0' || eb > '9' {
			return nil, errf("invalid number at %d: expected digit in exponent", cur.Pos())
		}
		for {
			b, ok := cur.Peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			cur.Advance(1)
			n++
			if n > maxNumberLen {
				return nil, errf("number exceeds %d bytes", maxNumberLen)
			}
		}
	}

	// Must be followed by a terminator: whitespace, comma, ']', '}', or EOF.
	if b, ok := cur.Peek(); ok {
		switch b {
		case ' ', '\t', '\n', '\r', ',', ']', '}':
		default:
			return nil, errf("invalid number: unexpected trailing byte 0x%02x at %d", b, cur.Pos())
		}
	}

	text := cur.SliceFrom(start)
	f, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return nil, errf("invalid number %q: %v", string(text), err)
	}
	return Number(float32(f)), nil
}

func parseString(cur *framer.Cursor) (string, error) {
	if b, ok := cur.Peek(); !ok || b != '"' {
		return "", errf("expected '\"' at %d", cur.Pos())
	}
	cur.Advance(1)

	var out []byte
	for {
		b, ok := cur.Peek()
		if !ok {
			return "", errf("unterminated string at %d", cur.Pos())
		}
		if b == '"' {
			cur.Advance(1)
			return string(out), nil
		}
		if b < 0x20 {
			return "", errf("control byte 0x%02x in string at %d", b, cur.Pos())
		}
		if b == '\\' {
			cur.Advance(1)
			eb, eok := cur.Peek()
			if !eok {
				return "", errf("unterminated escape at %d", cur.Pos())
			}
			var lit byte
			switch eb {
			case '"':
				lit = '"'
			case '\\':
				lit = '\\'
			case '/':
				lit = '/'
			case 'b':
				lit = '\b'
			case 'f':
				lit = '\f'
			case 'n':
				lit = '\n'
			case 'r':
				lit = '\r'
			case 't':
				lit = '\t'
			default:
				// \uXXXX is not required by the wire profile and is not
				// accepted on input, per §4.2.
				return "", errf("unsupported escape '\\%c' at %d", eb, cur.Pos())
			}
			out = append(out, lit)
			cur.Advance(1)
			continue
		}
		if b&0x80 != 0 {
			seqLen := utf8SeqLen(b)
			if seqLen == 0 {
				return "", errf("invalid UTF-8 lead byte 0x%02x at %d", b, cur.Pos())
			}
			seq, ok := cur.ReadN(seqLen)
			if !ok {
				return "", errf("truncated UTF-8 sequence at %d", cur.Pos())
			}
			r, size := utf8.DecodeRune(seq)
			if r == utf8.RuneError && size <= 1 {
				return "", errf("invalid UTF-8 sequence at %d", cur.Pos()-seqLen)
			}
			out = append(out, seq...)
			continue
		}
		out = append(out, b)
		cur.Advance(1)
	}
}

// utf8SeqLen returns the total byte length of a UTF-8 sequence given its
// lead byte, or 0 if the byte cannot legally start a sequence.
func utf8SeqLen(lead byte) int {
	switch {
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

func parseObject(cur *framer.Cursor, depth int) (*Value, error) {
	cur.Advance(1) // consume '{'
	obj := Object()

	cur.SkipWhitespace()
	if b, ok := cur.Peek(); ok && b == '}' {
		cur.Advance(1)
		return obj, nil
	}

	for {
		cur.SkipWhitespace()
		b, ok := cur.Peek()
		if !ok || b != '"' {
			return nil, errf("expected object key at %d", cur.Pos())
		}
		key, err := parseString(cur)
		if err != nil {
			return nil, err
		}
		cur.SkipWhitespace()
		if b, ok := cur.Peek(); !ok || b != ':' {
			return nil, errf("expected ':' at %d", cur.Pos())
		}
		cur.Advance(1)
		cur.SkipWhitespace()
		val, err := parseValue(cur, depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)

		cur.SkipWhitespace()
		b, ok = cur.Peek()
		if !ok {
			return nil, errf("unterminated object at %d", cur.Pos())
		}
		if b == ',' {
			cur.Advance(1)
			continue
		}
		if b == '}' {
			cur.Advance(1)
			return obj, nil
		}
		return nil, errf("expected ',' or '}' at %d", cur.Pos())
	}
}

func parseArray(cur *framer.Cursor, depth int) (*Value, error) {
	cur.Advance(1) // consume '['
	arr := Array()

	cur.SkipWhitespace()
	if b, ok := cur.Peek(); ok && b == ']' {
		cur.Advance(1)
		return arr, nil
	}

	for {
		cur.SkipWhitespace()
		val, err := parseValue(cur, depth+1)
		if err != nil {
			return nil, err
		}
		arr.Append(val)

		cur.SkipWhitespace()
		b, ok := cur.Peek()
		if !ok {
			return nil, errf("unterminated array at %d", cur.Pos())
		}
		if b == ',' {
			cur.Advance(1)
			continue
		}
		if b == ']' {
			cur.Advance(1)
			return arr, nil
		}
		return nil, errf("expected ',' or ']' at %d", cur.Pos())
	}
}
