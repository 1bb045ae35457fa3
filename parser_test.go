package lcfg

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Setting {
	t.Helper()
	root, err := NewParser().Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return root
}

// parseFatal parses src and returns its fatal error, failing the test if
// there is none.
func parseFatal(t *testing.T, p *Parser, src string) (*Setting, *ParseError) {
	t.Helper()
	root, err := p.Parse(src)
	if err == nil {
		t.Fatalf("Parse(%q) succeeded, want a fatal error", src)
	}
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("Parse(%q) error is %T, want ErrorList", src, err)
	}
	last := list[len(list)-1]
	if !last.Fatal {
		t.Fatalf("Parse(%q) last error %v is not fatal", src, last)
	}
	for _, e := range list[:len(list)-1] {
		if e.Fatal {
			t.Errorf("Parse(%q) has more than one fatal error: %v", src, list)
		}
	}
	return root, last
}

func TestNewParser(t *testing.T) {
	p := NewParser()
	if p == nil {
		t.Fatal("NewParser() returned nil")
	}
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"integer", `v = 7777;`, int64(7777)},
		{"colon", `v : 7777;`, int64(7777)},
		{"negative", `v = -5;`, int64(-5)},
		{"plus", `v = +7;`, int64(7)},
		{"long suffix", `v = 5L;`, int64(5)},
		{"long long suffix", `v = 10LL;`, int64(10)},
		{"hex", `v = 0xFF;`, int64(255)},
		{"hex upper prefix", `v = 0X1f;`, int64(31)},
		{"hex all ones", `v = 0xFFFFFFFFFFFFFFFF;`, int64(-1)},
		{"decimal too big", `v = 99999999999999999999;`, 1e20},
		{"float", `v = 1.5;`, 1.5},
		{"negative float", `v = -0.25;`, -0.25},
		{"trailing dot", `v = 1.;`, 1.0},
		{"exponent", `v = 1e3;`, 1000.0},
		{"signed exponent", `v = 2.5E-2;`, 0.025},
		{"true", `v = true;`, true},
		{"false", `v = false;`, false},
		{"upper true", `v = TRUE;`, true},
		{"mixed case", `v = tRuE;`, true},
		{"mixed false", `v = False;`, false},
		{"bool at end", `v = true`, true},
		{"string", `v = "foo bar";`, "foo bar"},
		{"empty string", `v = "";`, ""},
		{"concatenated", `v = "hel" "lo";`, "hello"},
		{"concatenated across lines", "v = \"hel\"\n  // between\n  \"lo\";", "hello"},
		{"escapes", `v = "a\tb\n\"q\"\\ \x41";`, "a\tb\n\"q\"\\ A"},
		{"hex escape lower", `v = "\x6a\x6B";`, "jk"},
		{"form feed and return", `v = "\f\r";`, "\f\r"},
		{"name on its own line", "v\n= 7777;", int64(7777)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := mustParse(t, test.src)
			v, err := root.Member("v")
			if err != nil {
				t.Fatalf("Member(v) failed: %v", err)
			}
			if got := v.Interface(); !reflect.DeepEqual(got, test.want) {
				t.Errorf("v = %#v, want %#v", got, test.want)
			}
		})
	}
}

func TestParseSeparators(t *testing.T) {
	root := mustParse(t, "a = 1, b = 2 c = 3;\n*x_y = 4;")
	if got := root.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c", "*x_y"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "   \n\t", "# nothing\n", "/* nothing */", "// nothing"} {
		root := mustParse(t, src)
		if !root.IsGroup() || root.Count() != 0 {
			t.Errorf("Parse(%q) root = %s", src, root)
		}
	}
}

func TestParseComments(t *testing.T) {
	src := `# hash comment
a = 1; // slash comment
/* block
   comment */ b = 2;
c = /* inline */ 3;
`
	root := mustParse(t, src)
	for name, want := range map[string]int64{"a": 1, "b": 2, "c": 3} {
		s, err := root.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s) failed: %v", name, err)
		}
		if got, _ := s.Int(); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestParseGroups(t *testing.T) {
	src := `server = {
  name = "web";
  listen = { port = 80; host = "0.0.0.0"; };
};
empty = {};`

	root := mustParse(t, src)

	server, err := root.Member("server")
	if err != nil {
		t.Fatalf("Member(server) failed: %v", err)
	}
	if !server.IsGroup() || server.Count() != 2 {
		t.Fatalf("server = %s", server)
	}
	port, err := root.Lookup("server.listen.port")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if v, _ := Get[int](port); v != 80 {
		t.Errorf("port = %d, want 80", v)
	}
	if port.Name() != "port" {
		t.Errorf("Name() = %q, want port", port.Name())
	}

	empty, _ := root.Member("empty")
	if !empty.IsGroup() || empty.Count() != 0 {
		t.Errorf("empty = %s", empty)
	}
}

func TestParseLists(t *testing.T) {
	root := mustParse(t, `l = ( 1, "two", { a = 1; }, [1, 2], ( ) );
trailing = (1, 2,);
empty = ();`)

	l, _ := root.Member("l")
	if !l.IsList() || l.Count() != 5 {
		t.Fatalf("l = %s", l)
	}
	kinds := []Kind{KindInteger, KindString, KindGroup, KindArray, KindList}
	for i, want := range kinds {
		c, _ := l.At(i)
		if c.Kind() != want {
			t.Errorf("l[%d] kind = %s, want %s", i, c.Kind(), want)
		}
		if c.Name() != "" {
			t.Errorf("l[%d] has name %q", i, c.Name())
		}
	}

	if trailing, _ := root.Member("trailing"); trailing.Count() != 2 {
		t.Errorf("trailing count = %d, want 2", trailing.Count())
	}
	if empty, _ := root.Member("empty"); !empty.IsList() || empty.Count() != 0 {
		t.Errorf("empty = %s", empty)
	}
}

func TestParseArrays(t *testing.T) {
	root := mustParse(t, `ints = [1, 2, 3]; strs = ["a", "b",]; none = [];`)

	ints, _ := root.Member("ints")
	if !ints.IsArray() || ints.Count() != 3 {
		t.Fatalf("ints = %s", ints)
	}
	if k, ok := ints.ElementKind(); !ok || k != KindInteger {
		t.Errorf("ElementKind() = %s, %v", k, ok)
	}
	if got := ints.Interface(); !reflect.DeepEqual(got, []any{int64(1), int64(2), int64(3)}) {
		t.Errorf("ints = %#v", got)
	}

	strs, _ := root.Member("strs")
	if strs.Count() != 2 {
		t.Errorf("strs count = %d, want 2", strs.Count())
	}
	none, _ := root.Member("none")
	if !none.IsArray() || none.Count() != 0 {
		t.Errorf("none = %s", none)
	}
}

func TestParseFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"word after true", `v = truest;`, 1, "expecting a value"},
		{"missing value", "a = 1;\n\n\nb = ;", 4, "expecting a value"},
		{"missing equals", `a 1;`, 1, "expecting : or = after setting name a"},
		{"duplicate", "a = 1;\na = 2;", 2, "setting named a already defined in this context"},
		{"nested duplicate", "g = {\n x = 1;\n x = 2; };", 3, "setting named x already defined in this context"},
		{"trailing brace", `a = 1; }`, 1, "unexpected '}', expected end of input"},
		{"trailing number", "a = 1;\n5", 2, "unexpected '5', expected end of input"},
		{"unclosed group", "g = { a = 1;\n", 2, "expected '}' to close group opened on line 1"},
		{"unclosed list", "l = (1,\n2", 2, "expected ')' to close list opened on line 1"},
		{"array closed by paren", "a = [1, 2)", 1, "expected ']' to close array opened on line 1"},
		{"array missing comma", "a = [1 2]", 1, "expected ']' to close array opened on line 1"},
		{"array of groups", "a = [ { b = 1; } ];", 1, "arrays may only contain scalar values"},
		{"array of lists", "a = [ (1) ];", 1, "arrays may only contain scalar values"},
		{"array mixed kinds", `a = [1, "x"];`, 1, "array element kind mismatch"},
		{"array int then float", `a = [1, 2.0];`, 1, "array element kind mismatch"},
		{"array bad element", `a = [1, x];`, 1, "expecting a scalar value"},
		{"hex without digits", `h = 0x;`, 1, "hex prefix, but invalid hex number followed"},
		{"hex bad digit", `h = 0xFG;`, 1, "hex prefix, but invalid hex number followed"},
		{"hex too big", `h = 0x1FFFFFFFFFFFFFFFF;`, 1, "does not fit in 64 bits"},
		{"float too big", "a = 1;\nv = 1e500;", 2, "float 1e500 out of range"},
		{"negative float too big", `v = -2.5e999;`, 1, "float -2.5e999 out of range"},
		{"number glued to word", `n = 12abc;`, 1, "expecting a value"},
		{"unterminated string", "a = 1;\nb = \"abc\nc = 2;", 2, "unterminated string"},
		{"unterminated string at end", `a = "abc`, 1, "unterminated string"},
		{"unterminated second segment", "a = \"x\"\n\"abc", 2, "unterminated string"},
		{"unterminated comment", "a = 1;\n\n/* open\n comment", 3, "unterminated comment starting here"},
		{"line after concatenation", "s = \"hel\"\n  \"lo\";\nb = ;", 3, "expecting a value"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, pe := parseFatal(t, NewParser(), test.src)
			if pe.Loc.Line != test.line {
				t.Errorf("line = %d, want %d (%v)", pe.Loc.Line, test.line, pe)
			}
			if !strings.Contains(pe.Msg, test.msg) {
				t.Errorf("message = %q, want it to contain %q", pe.Msg, test.msg)
			}
		})
	}
}

func TestParseKeepsPrefixOnFatal(t *testing.T) {
	root, _ := parseFatal(t, NewParser(), "a = 1;\nb = ;\nc = 3;")

	a, err := root.Member("a")
	if err != nil {
		t.Fatalf("Member(a) failed: %v", err)
	}
	if v, _ := a.Int(); v != 1 {
		t.Errorf("a = %d, want 1", v)
	}
	if root.Exists("c") {
		t.Error("setting after the fatal error was parsed")
	}

	root, _ = parseFatal(t, NewParser(), "a = 1;\na = 2;")
	if root.Count() != 1 {
		t.Errorf("Count() = %d after duplicate, want 1", root.Count())
	}
	a, _ = root.Member("a")
	if v, _ := a.Int(); v != 1 {
		t.Errorf("a = %d after duplicate, want 1", v)
	}
}

func TestParseRecordedErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		msg  string
	}{
		{"unknown escape", `s = "a\qb";`, "aqb", "unrecognized escape sequence in string"},
		{"bad hex escape", `s = "\xZZ";`, "ZZ", "bad hex escape in string"},
		{"short hex escape", `s = "\x4";`, "4", "bad hex escape in string"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root, err := NewParser().Parse(test.src)
			var list ErrorList
			if !errors.As(err, &list) || len(list) != 1 {
				t.Fatalf("Parse() error = %v, want one recorded error", err)
			}
			if list[0].Fatal {
				t.Errorf("%v is fatal", list[0])
			}
			if list[0].Msg != test.msg {
				t.Errorf("message = %q, want %q", list[0].Msg, test.msg)
			}

			s, err := root.Member("s")
			if err != nil {
				t.Fatalf("Member(s) failed: %v", err)
			}
			if got, _ := s.Text(); got != test.want {
				t.Errorf("s = %q, want %q", got, test.want)
			}
		})
	}
}

func TestParseRecordedThenFatal(t *testing.T) {
	_, err := NewParser().Parse("a = \"\\q\";\nb = ;")
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(list), list)
	}
	if list[0].Fatal || !list[1].Fatal {
		t.Errorf("fatal flags = %v, %v", list[0].Fatal, list[1].Fatal)
	}
	if list[1].Loc.Line != 2 {
		t.Errorf("fatal line = %d, want 2", list[1].Loc.Line)
	}
	if !strings.HasSuffix(list.Error(), "(and 1 more errors)") {
		t.Errorf("Error() = %q", list.Error())
	}
}

func TestParseMaxDepth(t *testing.T) {
	src := "a = { b = ( [1] ); };"

	if _, err := NewParser().WithMaxDepth(3).Parse(src); err != nil {
		t.Fatalf("depth 3 failed: %v", err)
	}
	_, pe := parseFatal(t, NewParser().WithMaxDepth(2), src)
	if pe.Msg != "array nested deeper than 2 levels" {
		t.Errorf("message = %q", pe.Msg)
	}
}

func TestParserReuse(t *testing.T) {
	p := NewParser()
	if _, err := p.Parse("a = ;"); err == nil {
		t.Fatal("first Parse() should fail")
	}
	root, err := p.Parse("a = 1;")
	if err != nil {
		t.Fatalf("second Parse() failed: %v", err)
	}
	if root.Count() != 1 {
		t.Errorf("Count() = %d, want 1", root.Count())
	}
}

func TestParseReader(t *testing.T) {
	root, err := NewParser().ParseReader(strings.NewReader("name = \"x\";"))
	if err != nil {
		t.Fatalf("ParseReader() failed: %v", err)
	}
	if v, _ := root.Lookup("name"); v.String() != "x" {
		t.Errorf("name = %s, want x", v)
	}
}
