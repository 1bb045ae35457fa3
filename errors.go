package lcfg

import (
	"errors"

	"gopkg.in/warnings.v0"
)

// Errors returned by Setting operations.
var (
	// ErrTypeConversion indicates Get was asked for a type the payload cannot convert to.
	ErrTypeConversion = errors.New("bad type conversion")

	// ErrOverflow indicates a numeric conversion would not fit the requested type.
	ErrOverflow = errors.New("value out of range for type")

	// ErrTypeMismatch indicates an array element does not match the array's element kind.
	ErrTypeMismatch = errors.New("array element kind mismatch")

	// ErrCompositeElement indicates a group, list or array was appended to an array.
	ErrCompositeElement = errors.New("arrays may only contain scalar values")

	// ErrNotGroup indicates a named operation on a setting that is not a group.
	ErrNotGroup = errors.New("setting is not a group")

	// ErrNotComposite indicates an index operation on a scalar setting.
	ErrNotComposite = errors.New("setting is not a composite")

	// ErrInvalidChild indicates a nil child, or one that is already a group member, was appended.
	ErrInvalidChild = errors.New("setting cannot be appended")

	// ErrNotCollection indicates an append on a setting that is not a list or array.
	ErrNotCollection = errors.New("setting is not a list or array")

	// ErrDuplicateName indicates a group already has a child with that name.
	ErrDuplicateName = errors.New("setting already defined in this group")

	// ErrNotFound indicates a group has no child with the requested name.
	ErrNotFound = errors.New("setting not found")

	// ErrIndexOutOfRange indicates an index outside a composite's children.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidPath indicates a lookup path that cannot be parsed.
	ErrInvalidPath = errors.New("invalid setting path")
)

// FatalOnly strips the recorded (non-fatal) parse errors from an error
// returned by Config.Parse, leaving nil when the parse only had recorded
// errors. It lets callers accept input with, say, a bad escape sequence.
func FatalOnly(err error) error {
	return warnings.FatalOnly(err)
}

// isFatal tells the warnings collector which parse errors end the parse.
func isFatal(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Fatal
	}
	return true
}
