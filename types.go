// Package lcfg parses libconfig-style configuration files into a tree of
// settings.
package lcfg

// Kind identifies which representation a Setting currently holds.
type Kind int

const (
	KindBool    Kind = iota // true or false
	KindInteger             // signed 64-bit integer
	KindFloat               // 64-bit floating point
	KindString              // byte string
	KindGroup               // named children, unique names
	KindList                // ordered children of any kind
	KindArray               // ordered scalars of one kind
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindGroup:
		return "group"
	case KindList:
		return "list"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// IsScalar reports whether k is one of the leaf kinds.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindString
}

// payload is the storage of exactly one kind. Only the types below implement
// it, so a Setting can never carry two representations at once.
type payload interface {
	kind() Kind
}

type boolValue bool

type intValue int64

type floatValue float64

type stringValue string

// groupValue keeps children in insertion order with a name index beside them.
type groupValue struct {
	children []*Setting
	index    map[string]int
}

type listValue struct {
	children []*Setting
}

// arrayValue holds scalars of one kind. elem is meaningless while children
// is empty.
type arrayValue struct {
	elem     Kind
	children []*Setting
}

func (boolValue) kind() Kind   { return KindBool }
func (intValue) kind() Kind    { return KindInteger }
func (floatValue) kind() Kind  { return KindFloat }
func (stringValue) kind() Kind { return KindString }
func (*groupValue) kind() Kind { return KindGroup }
func (*listValue) kind() Kind  { return KindList }
func (*arrayValue) kind() Kind { return KindArray }

func newGroupValue() *groupValue {
	return &groupValue{index: make(map[string]int)}
}
