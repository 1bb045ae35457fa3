package lcfg

import (
	"errors"
	"strconv"
	"strings"
)

// Low-level cursor operations. None of these touch the line count; whoever
// steps over a newline is responsible for it.

func (p *parseState) eoi() bool { return p.loc.Offset >= len(p.src) }

// peek returns the next byte, or 0 at end of input.
func (p *parseState) peek() byte {
	if p.eoi() {
		return 0
	}
	return p.src[p.loc.Offset]
}

func (p *parseState) rest() string { return p.src[p.loc.Offset:] }

func (p *parseState) consume(n int) { p.loc.Offset += n }

type skipState int

const (
	skipNormal skipState = iota
	skipLine
	skipBlock
)

// skip steps over whitespace and comments. Newlines crossed are counted and
// added to the location once the skip settles. It returns false, after
// recording a fatal error at the comment's start, when input ends inside a
// block comment.
func (p *parseState) skip() bool {
	state := skipNormal
	var commentLoc Location
	lines := 0

loop:
	for !p.eoi() {
		c := p.peek()
		switch state {
		case skipNormal:
			switch {
			case c == '\n':
				lines++
				p.consume(1)
			case isSpace(c):
				p.consume(1)
			case c == '#':
				commentLoc = Location{Offset: p.loc.Offset, Line: p.loc.Line + lines}
				p.consume(1)
				state = skipLine
			case strings.HasPrefix(p.rest(), "//"):
				commentLoc = Location{Offset: p.loc.Offset, Line: p.loc.Line + lines}
				p.consume(2)
				state = skipLine
			case strings.HasPrefix(p.rest(), "/*"):
				commentLoc = Location{Offset: p.loc.Offset, Line: p.loc.Line + lines}
				p.consume(2)
				state = skipBlock
			default:
				break loop
			}
		case skipLine:
			if c == '\n' {
				lines++
				state = skipNormal
			}
			p.consume(1)
		case skipBlock:
			if strings.HasPrefix(p.rest(), "*/") {
				p.consume(2)
				state = skipNormal
				continue
			}
			if c == '\n' {
				lines++
			}
			p.consume(1)
		}
	}

	p.loc.Line += lines
	if state == skipBlock {
		return p.fail(commentLoc, "unterminated comment starting here")
	}
	return true
}

// matchScalar tries, in order, a boolean, a number and a string. A false
// result with p.aborted unset means nothing matched.
func (p *parseState) matchScalar(s *Setting) bool {
	if p.matchBool(s) {
		return true
	}
	if p.matchNumber(s) || p.aborted {
		return !p.aborted
	}
	return p.matchString(s)
}

var boolWords = [...]struct {
	word string
	val  bool
}{
	{"true", true},
	{"false", false},
}

func (p *parseState) matchBool(s *Setting) bool {
	rest := p.rest()
	for _, w := range boolWords {
		if !hasPrefixFold(rest, w.word) {
			continue
		}
		n := len(w.word)
		if n < len(rest) && isAlnum(rest[n]) {
			return false
		}
		p.consume(n)
		s.SetBool(w.val)
		return true
	}
	return false
}

// hasPrefixFold compares each byte of the lower-case ASCII word against both
// of its cases.
func hasPrefixFold(s, word string) bool {
	if len(s) < len(word) {
		return false
	}
	for i := 0; i < len(word); i++ {
		c, w := s[i], word[i]
		if c != w && c != w-'a'+'A' {
			return false
		}
	}
	return true
}

func (p *parseState) matchNumber(s *Setting) bool {
	rest := p.rest()
	if strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X") {
		return p.matchHex(s, rest)
	}
	if rest == "" || !isNumberStart(rest[0]) {
		return false
	}

	if n := scanInteger(rest); n > 0 {
		end := skipIntegerSuffix(rest, n)
		if atBoundary(rest, end) {
			if i, err := strconv.ParseInt(rest[:n], 10, 64); err == nil {
				p.consume(end)
				s.SetInteger(i)
				return true
			}
		}
	}

	if n := scanFloat(rest); n > 0 && atBoundary(rest, n) {
		f, err := strconv.ParseFloat(rest[:n], 64)
		if errors.Is(err, strconv.ErrRange) {
			return p.fail(p.loc, "float %s out of range", rest[:n])
		}
		if err == nil {
			p.consume(n)
			s.SetFloat(f)
			return true
		}
	}
	return false
}

// matchHex is entered once the 0x prefix is seen. From here on the literal
// is a hexadecimal integer or an error.
func (p *parseState) matchHex(s *Setting, rest string) bool {
	n := 2
	for n < len(rest) && isHexDigit(rest[n]) {
		n++
	}
	digits := rest[2:n]
	end := skipIntegerSuffix(rest, n)
	if digits == "" || !atBoundary(rest, end) {
		return p.fail(p.loc, "hex prefix, but invalid hex number followed")
	}
	u, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return p.fail(p.loc, "hex number %s does not fit in 64 bits", rest[:n])
	}
	p.consume(end)
	s.SetInteger(int64(u))
	return true
}

// scanInteger returns the length of an optionally signed run of decimal
// digits at the start of s, or 0.
func scanInteger(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0
	}
	return i
}

// scanFloat returns the length of the longest decimal floating point
// literal at the start of s, or 0.
func scanFloat(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	return i
}

// skipIntegerSuffix steps over libconfig's L or LL long-integer marker.
func skipIntegerSuffix(s string, n int) int {
	for k := 0; k < 2 && n < len(s) && s[n] == 'L'; k++ {
		n++
	}
	return n
}

// atBoundary reports whether a numeric literal ending at n ends a token.
func atBoundary(s string, n int) bool {
	return n >= len(s) || !(isAlnum(s[n]) || s[n] == '.')
}

// matchString reads one or more adjacent quoted segments into a single
// String value.
func (p *parseState) matchString(s *Setting) bool {
	if p.peek() != '"' {
		return false
	}

	var buf strings.Builder
	for {
		open := p.loc
		p.consume(1)
		if !p.scanSegment(&buf, open) {
			return false
		}
		if !p.skip() {
			return false
		}
		if p.peek() != '"' {
			break
		}
	}

	s.SetString(buf.String())
	return true
}

// scanSegment reads up to and including a closing quote.
func (p *parseState) scanSegment(buf *strings.Builder, open Location) bool {
	for {
		rest := p.rest()
		i := strings.IndexAny(rest, "\"\\\n")
		if i < 0 {
			p.consume(len(rest))
			return p.fail(open, "unterminated string")
		}
		buf.WriteString(rest[:i])
		p.consume(i)

		switch rest[i] {
		case '"':
			p.consume(1)
			return true
		case '\n':
			return p.fail(open, "unterminated string")
		case '\\':
			p.scanEscape(buf)
		}
	}
}

var simpleEscapes = map[byte]byte{
	'\\': '\\',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'"':  '"',
}

// scanEscape handles the backslash under the cursor. Bad escapes are
// recorded and scanning carries on.
func (p *parseState) scanEscape(buf *strings.Builder) {
	rest := p.rest()
	if len(rest) < 2 {
		p.consume(1)
		return
	}
	if out, ok := simpleEscapes[rest[1]]; ok {
		buf.WriteByte(out)
		p.consume(2)
		return
	}
	if rest[1] == 'x' {
		if len(rest) >= 4 && isHexDigit(rest[2]) && isHexDigit(rest[3]) {
			buf.WriteByte(unhex(rest[2])<<4 | unhex(rest[3]))
			p.consume(4)
			return
		}
		p.record(p.loc, "bad hex escape in string")
		p.consume(2)
		return
	}
	p.record(p.loc, "unrecognized escape sequence in string")
	p.consume(1)
}

// matchName reads a setting name: a letter or '*', then letters, digits,
// '_' or '*'.
func (p *parseState) matchName() (string, bool) {
	rest := p.rest()
	if rest == "" || !(rest[0] == '*' || isAlpha(rest[0])) {
		return "", false
	}
	n := 1
	for n < len(rest) && (rest[n] == '*' || rest[n] == '_' || isAlnum(rest[n])) {
		n++
	}
	p.consume(n)
	return rest[:n], true
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }

func isNumberStart(c byte) bool { return c == '+' || c == '-' || isDigit(c) }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case isDigit(c):
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
