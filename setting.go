package lcfg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Setting is one node of a configuration tree. It holds exactly one of a
// bool, int64, float64 or string, or an ordered set of child settings
// arranged as a group, list or array.
//
// The zero Setting is a Bool holding false.
type Setting struct {
	name string
	v    payload
}

// NewBool returns an unnamed Bool setting.
func NewBool(b bool) *Setting { return &Setting{v: boolValue(b)} }

// NewInteger returns an unnamed Integer setting.
func NewInteger(i int64) *Setting { return &Setting{v: intValue(i)} }

// NewFloat returns an unnamed Float setting.
func NewFloat(f float64) *Setting { return &Setting{v: floatValue(f)} }

// NewString returns an unnamed String setting.
func NewString(s string) *Setting { return &Setting{v: stringValue(s)} }

// NewGroup returns an empty unnamed Group.
func NewGroup() *Setting { return &Setting{v: newGroupValue()} }

// NewList returns an empty unnamed List.
func NewList() *Setting { return &Setting{v: &listValue{}} }

// NewArray returns an empty unnamed Array. Its element kind is fixed by the
// first appended value.
func NewArray() *Setting { return &Setting{v: &arrayValue{}} }

// Name returns the setting's name within its parent group, or "" for list
// and array elements and the root.
func (s *Setting) Name() string { return s.name }

// Kind returns the active kind.
func (s *Setting) Kind() Kind {
	if s.v == nil {
		return KindBool
	}
	return s.v.kind()
}

// IsBool reports whether s holds a bool.
func (s *Setting) IsBool() bool { return s.Kind() == KindBool }

// IsInteger reports whether s holds an int64.
func (s *Setting) IsInteger() bool { return s.Kind() == KindInteger }

// IsFloat reports whether s holds a float64.
func (s *Setting) IsFloat() bool { return s.Kind() == KindFloat }

// IsString reports whether s holds a string.
func (s *Setting) IsString() bool { return s.Kind() == KindString }

// IsGroup reports whether s is a group.
func (s *Setting) IsGroup() bool { return s.Kind() == KindGroup }

// IsList reports whether s is a list.
func (s *Setting) IsList() bool { return s.Kind() == KindList }

// IsArray reports whether s is an array.
func (s *Setting) IsArray() bool { return s.Kind() == KindArray }

// IsNumeric reports whether s is an Integer or a Float.
func (s *Setting) IsNumeric() bool { return s.IsInteger() || s.IsFloat() }

// IsScalar reports whether s is a leaf.
func (s *Setting) IsScalar() bool { return s.Kind().IsScalar() }

// IsComposite reports whether s is a group, list or array.
func (s *Setting) IsComposite() bool { return !s.IsScalar() }

// ElementKind returns the kind shared by an array's elements. The second
// result is false when s is not an array or the array is still empty.
func (s *Setting) ElementKind() (Kind, bool) {
	a, ok := s.v.(*arrayValue)
	if !ok || len(a.children) == 0 {
		return 0, false
	}
	return a.elem, true
}

// BecomeGroup turns s into an empty group unless it already is one.
func (s *Setting) BecomeGroup() *Setting {
	if !s.IsGroup() {
		s.v = newGroupValue()
	}
	return s
}

// BecomeList turns s into an empty list unless it already is one.
func (s *Setting) BecomeList() *Setting {
	if !s.IsList() {
		s.v = &listValue{}
	}
	return s
}

// BecomeArray turns s into an empty array unless it already is one.
func (s *Setting) BecomeArray() *Setting {
	if !s.IsArray() {
		s.v = &arrayValue{}
	}
	return s
}

// SetBool replaces whatever s holds with b.
func (s *Setting) SetBool(b bool) *Setting {
	s.v = boolValue(b)
	return s
}

// SetInteger replaces whatever s holds with i.
func (s *Setting) SetInteger(i int64) *Setting {
	s.v = intValue(i)
	return s
}

// SetFloat replaces whatever s holds with f.
func (s *Setting) SetFloat(f float64) *Setting {
	s.v = floatValue(f)
	return s
}

// SetString replaces whatever s holds with str.
func (s *Setting) SetString(str string) *Setting {
	s.v = stringValue(str)
	return s
}

// CreateNamedChild appends a new child called name to the group s and
// returns it. The child starts as a Bool holding false. If s already has a
// child with that name nothing changes and ErrDuplicateName is returned.
func (s *Setting) CreateNamedChild(name string) (*Setting, error) {
	g, ok := s.v.(*groupValue)
	if !ok {
		return nil, fmt.Errorf("%w: cannot add %q to a %s", ErrNotGroup, name, s.Kind())
	}
	if _, exists := g.index[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	child := &Setting{name: name}
	g.index[name] = len(g.children)
	g.children = append(g.children, child)
	return child, nil
}

// Append adds child to the end of the list or array s. Lists take any kind.
// Arrays take scalars only, and every element must have the kind of the
// first one. A named child belongs to a group and is refused with
// ErrInvalidChild, as is a Clone of one, since clones keep their name. Build
// elements with the New constructors.
func (s *Setting) Append(child *Setting) error {
	if child == nil {
		return fmt.Errorf("%w: nil setting", ErrInvalidChild)
	}
	if child.name != "" {
		return fmt.Errorf("%w: %q is a group member", ErrInvalidChild, child.name)
	}
	switch c := s.v.(type) {
	case *listValue:
		c.children = append(c.children, child)
		return nil
	case *arrayValue:
		k := child.Kind()
		if !k.IsScalar() {
			return fmt.Errorf("%w: got %s", ErrCompositeElement, k)
		}
		if len(c.children) == 0 {
			c.elem = k
		} else if k != c.elem {
			return fmt.Errorf("%w: array holds %s, got %s", ErrTypeMismatch, c.elem, k)
		}
		c.children = append(c.children, child)
		return nil
	default:
		return fmt.Errorf("%w: cannot append to a %s", ErrNotCollection, s.Kind())
	}
}

// Exists reports whether the group s has a child called name. It is false
// for anything that is not a group.
func (s *Setting) Exists(name string) bool {
	g, ok := s.v.(*groupValue)
	if !ok {
		return false
	}
	_, ok = g.index[name]
	return ok
}

// Member returns the child of group s called name.
func (s *Setting) Member(name string) (*Setting, error) {
	g, ok := s.v.(*groupValue)
	if !ok {
		return nil, fmt.Errorf("%w: cannot look up %q in a %s", ErrNotGroup, name, s.Kind())
	}
	i, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return g.children[i], nil
}

// At returns the child at index i. Negative indexes count back from the
// end, so At(-1) is the last child.
func (s *Setting) At(i int) (*Setting, error) {
	if s.IsScalar() {
		return nil, fmt.Errorf("%w: cannot index a %s", ErrNotComposite, s.Kind())
	}
	children := s.children()
	n := len(children)
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return nil, fmt.Errorf("%w: %d with %d children", ErrIndexOutOfRange, i, n)
	}
	return children[j], nil
}

// Count returns the number of children, 0 for scalars.
func (s *Setting) Count() int {
	return len(s.children())
}

// Children returns the children in order. The slice is a copy; the
// settings are not.
func (s *Setting) Children() []*Setting {
	children := s.children()
	if len(children) == 0 {
		return nil
	}
	out := make([]*Setting, len(children))
	copy(out, children)
	return out
}

// Names returns a group's child names in definition order.
func (s *Setting) Names() []string {
	g, ok := s.v.(*groupValue)
	if !ok {
		return nil
	}
	names := make([]string, len(g.children))
	for i, c := range g.children {
		names[i] = c.name
	}
	return names
}

func (s *Setting) children() []*Setting {
	switch c := s.v.(type) {
	case *groupValue:
		return c.children
	case *listValue:
		return c.children
	case *arrayValue:
		return c.children
	default:
		return nil
	}
}

// Clone returns a deep copy of s, name included.
func (s *Setting) Clone() *Setting {
	out := &Setting{name: s.name}
	switch c := s.v.(type) {
	case *groupValue:
		g := newGroupValue()
		for i, child := range c.children {
			g.children = append(g.children, child.Clone())
			g.index[child.name] = i
		}
		out.v = g
	case *listValue:
		l := &listValue{}
		for _, child := range c.children {
			l.children = append(l.children, child.Clone())
		}
		out.v = l
	case *arrayValue:
		a := &arrayValue{elem: c.elem}
		for _, child := range c.children {
			a.children = append(a.children, child.Clone())
		}
		out.v = a
	default:
		out.v = s.v
	}
	return out
}

// Interface returns s as plain Go values: bool, int64, float64, string,
// map[string]any for groups and []any for lists and arrays.
func (s *Setting) Interface() any {
	switch c := s.v.(type) {
	case nil:
		return false
	case boolValue:
		return bool(c)
	case intValue:
		return int64(c)
	case floatValue:
		return float64(c)
	case stringValue:
		return string(c)
	case *groupValue:
		m := make(map[string]any, len(c.children))
		for _, child := range c.children {
			m[child.name] = child.Interface()
		}
		return m
	default:
		children := s.children()
		out := make([]any, len(children))
		for i, child := range children {
			out[i] = child.Interface()
		}
		return out
	}
}

// Scalar lists the types Get can convert a leaf to.
type Scalar interface {
	bool | string |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// Get converts the leaf s to T. Integers convert to every integer and float
// type, failing with ErrOverflow when the value does not fit. Floats convert
// to float32 and float64. Bools and strings only come out as themselves.
func Get[T Scalar](s *Setting) (T, error) {
	var out T
	var err error
	switch p := any(&out).(type) {
	case *bool:
		*p, err = s.Bool()
	case *string:
		*p, err = s.Text()
	case *int:
		*p, err = getSigned[int](s, math.MinInt, math.MaxInt)
	case *int8:
		*p, err = getSigned[int8](s, math.MinInt8, math.MaxInt8)
	case *int16:
		*p, err = getSigned[int16](s, math.MinInt16, math.MaxInt16)
	case *int32:
		*p, err = getSigned[int32](s, math.MinInt32, math.MaxInt32)
	case *int64:
		*p, err = s.Int()
	case *uint:
		*p, err = getUnsigned[uint](s, math.MaxUint)
	case *uint8:
		*p, err = getUnsigned[uint8](s, math.MaxUint8)
	case *uint16:
		*p, err = getUnsigned[uint16](s, math.MaxUint16)
	case *uint32:
		*p, err = getUnsigned[uint32](s, math.MaxUint32)
	case *uint64:
		*p, err = getUnsigned[uint64](s, math.MaxUint64)
	case *float32:
		var f float64
		f, err = s.Float()
		if err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			err = fmt.Errorf("%w: %g does not fit float32", ErrOverflow, f)
		}
		*p = float32(f)
	case *float64:
		*p, err = s.Float()
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func getSigned[T int | int8 | int16 | int32](s *Setting, lo, hi int64) (T, error) {
	i, err := s.Int()
	if err != nil {
		return 0, err
	}
	if i < lo || i > hi {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, i, T(0))
	}
	return T(i), nil
}

func getUnsigned[T uint | uint8 | uint16 | uint32 | uint64](s *Setting, hi uint64) (T, error) {
	i, err := s.Int()
	if err != nil {
		return 0, err
	}
	if i < 0 || uint64(i) > hi {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, i, T(0))
	}
	return T(i), nil
}

// Bool returns the payload of a Bool setting.
func (s *Setting) Bool() (bool, error) {
	switch v := s.v.(type) {
	case nil:
		return false, nil
	case boolValue:
		return bool(v), nil
	}
	return false, s.conversionError("bool")
}

// Int returns the payload of an Integer setting.
func (s *Setting) Int() (int64, error) {
	if v, ok := s.v.(intValue); ok {
		return int64(v), nil
	}
	return 0, s.conversionError("integer")
}

// Float returns the payload of a Float setting, or an Integer widened to
// float64.
func (s *Setting) Float() (float64, error) {
	switch v := s.v.(type) {
	case floatValue:
		return float64(v), nil
	case intValue:
		return float64(v), nil
	}
	return 0, s.conversionError("float")
}

// Text returns the payload of a String setting.
func (s *Setting) Text() (string, error) {
	if v, ok := s.v.(stringValue); ok {
		return string(v), nil
	}
	return "", s.conversionError("string")
}

func (s *Setting) conversionError(want string) error {
	if s.name != "" {
		return fmt.Errorf("%w: %q is a %s, not a %s", ErrTypeConversion, s.name, s.Kind(), want)
	}
	return fmt.Errorf("%w: %s is not a %s", ErrTypeConversion, s.Kind(), want)
}

// String renders scalars as their value and composites as a short summary.
func (s *Setting) String() string {
	switch v := s.v.(type) {
	case nil:
		return "false"
	case floatValue:
		return formatFloat(float64(v))
	case boolValue, intValue:
		return fmt.Sprint(v)
	case stringValue:
		return string(v)
	default:
		return fmt.Sprintf("%s(%d)", s.Kind(), s.Count())
	}
}

// formatFloat keeps a decimal point on integral values so a Float never
// prints like an Integer.
func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eEnN") {
		out += ".0"
	}
	return out
}
