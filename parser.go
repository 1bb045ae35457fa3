package lcfg

import (
	"fmt"
	"io"
	"strings"
)

// Location is a position in the parser's input.
type Location struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
}

// String returns "line N".
func (l Location) String() string {
	return fmt.Sprintf("line %d", l.Line)
}

// ParseError is one problem found while parsing. A fatal error stopped the
// parse; the others were recorded and scanning went on past them.
type ParseError struct {
	Msg   string
	Loc   Location
	Fatal bool
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

// ErrorList is the ordered list of errors from one parse. Errors appear in
// the order they were found; at most one, the last, is fatal.
type ErrorList []*ParseError

// Error implements the error interface.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Err returns l as an error, or nil if l is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Parser turns configuration text into a Setting tree. A Parser only holds
// options, so one value may serve any number of parses.
type Parser struct {
	maxDepth int
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{}
}

// WithMaxDepth limits how deeply groups, lists and arrays may nest. Zero,
// the default, means no limit.
func (p *Parser) WithMaxDepth(n int) *Parser {
	p.maxDepth = n
	return p
}

// Parse parses src. The returned root group holds everything parsed before
// the first fatal error, so it is returned even when err is not nil. A
// non-nil err is always an ErrorList.
func (p *Parser) Parse(src string) (*Setting, error) {
	root := NewGroup()
	st := &parseState{
		src:      src,
		loc:      Location{Line: 1},
		maxDepth: p.maxDepth,
	}
	st.run(root)
	return root, st.errs.Err()
}

// ParseReader reads all of r and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Setting, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return p.Parse(sb.String())
}

// parseState is the cursor and error list of a single parse run.
type parseState struct {
	src      string
	loc      Location
	errs     ErrorList
	aborted  bool
	depth    int
	maxDepth int
}

// record notes an error that does not stop the parse.
func (p *parseState) record(loc Location, msg string) {
	p.errs = append(p.errs, &ParseError{Msg: msg, Loc: loc})
}

// fail notes a fatal error and marks the run aborted. It always returns
// false so productions can return its result directly. Only the first fatal
// error is kept.
func (p *parseState) fail(loc Location, format string, args ...any) bool {
	if !p.aborted {
		p.errs = append(p.errs, &ParseError{Msg: fmt.Sprintf(format, args...), Loc: loc, Fatal: true})
		p.aborted = true
	}
	return false
}

// run parses the whole input into root.
func (p *parseState) run(root *Setting) {
	if !p.skip() {
		return
	}
	if !p.parseSettingList(root) {
		return
	}
	if !p.eoi() {
		p.fail(p.loc, "unexpected %q, expected end of input", p.peek())
	}
}

// parseSettingList parses settings into the group parent until no further
// setting name follows. It returns false only if the parse was aborted.
func (p *parseState) parseSettingList(parent *Setting) bool {
	for p.parseSetting(parent) {
		if !p.skip() {
			return false
		}
		if c := p.peek(); c == ';' || c == ',' {
			p.consume(1)
		}
		if !p.skip() {
			return false
		}
	}
	return !p.aborted
}

// parseSetting parses "name = value". It returns false without an error
// when the input does not start with a name.
func (p *parseState) parseSetting(parent *Setting) bool {
	start := p.loc
	name, ok := p.matchName()
	if !ok {
		return false
	}
	if !p.skip() {
		return false
	}

	if c := p.peek(); c != ':' && c != '=' {
		return p.fail(p.loc, "expecting : or = after setting name %s", name)
	}
	p.consume(1)

	child, err := parent.CreateNamedChild(name)
	if err != nil {
		return p.fail(start, "setting named %s already defined in this context", name)
	}

	if !p.skip() {
		return false
	}
	return p.parseValue(child)
}

// parseValue fills s from a group, list, array or scalar.
func (p *parseState) parseValue(s *Setting) bool {
	switch p.peek() {
	case '{':
		s.BecomeGroup()
		return p.parseComposite('}', "group", func() bool {
			return p.parseSettingList(s)
		})
	case '(':
		s.BecomeList()
		return p.parseComposite(')', "list", func() bool {
			return p.parseElements(s, ')', p.parseListElement)
		})
	case '[':
		s.BecomeArray()
		return p.parseComposite(']', "array", func() bool {
			return p.parseElements(s, ']', p.parseArrayElement)
		})
	}
	if !p.matchScalar(s) {
		return p.fail(p.loc, "expecting a value")
	}
	return true
}

// parseComposite consumes the opening bracket, runs body and requires the
// closing one.
func (p *parseState) parseComposite(closer byte, what string, body func() bool) bool {
	open := p.loc
	p.depth++
	defer func() { p.depth-- }()
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return p.fail(open, "%s nested deeper than %d levels", what, p.maxDepth)
	}

	p.consume(1)
	if !p.skip() || !body() || !p.skip() {
		return false
	}
	if p.peek() != closer {
		return p.fail(p.loc, "expected '%c' to close %s opened on line %d", closer, what, open.Line)
	}
	p.consume(1)
	return true
}

// parseElements parses comma separated elements of a list or array up to
// closer, which it leaves for the caller. A trailing comma is allowed.
func (p *parseState) parseElements(coll *Setting, closer byte, element func(*Setting) bool) bool {
	for !p.eoi() && p.peek() != closer {
		if !element(coll) {
			return false
		}
		if !p.skip() {
			return false
		}
		if p.peek() != ',' {
			break
		}
		p.consume(1)
		if !p.skip() {
			return false
		}
	}
	return true
}

func (p *parseState) parseListElement(list *Setting) bool {
	elem := &Setting{}
	if !p.parseValue(elem) {
		return false
	}
	if err := list.Append(elem); err != nil {
		return p.fail(p.loc, "%v", err)
	}
	return true
}

func (p *parseState) parseArrayElement(array *Setting) bool {
	start := p.loc
	switch p.peek() {
	case '{', '(', '[':
		return p.fail(start, "arrays may only contain scalar values")
	}
	elem := &Setting{}
	if !p.matchScalar(elem) {
		return p.fail(start, "expecting a scalar value")
	}
	if err := array.Append(elem); err != nil {
		return p.fail(start, "%v", err)
	}
	return true
}
