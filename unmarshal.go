package lcfg

import (
	"fmt"
	"reflect"
	"strings"
)

var settingType = reflect.TypeOf((*Setting)(nil))

// Unmarshal parses a configuration document and stores the result in the
// value pointed to by v. If v is not a pointer to a struct, Unmarshal
// returns an error.
//
// Unmarshal uses struct tags to determine how to map setting names to
// struct fields:
//   - `lcfg:"fieldname"` - maps setting "fieldname" to this struct field
//   - `lcfg:"fieldname,required"` - fails if the setting is missing
//   - `lcfg:"fieldname,omitempty"` - leaves the field alone if the setting is empty
//   - `lcfg:"-"` - ignores this field
//
// Untagged fields use the lower-cased field name. A field of type *Setting
// receives the subtree itself.
//
// Example:
//
//	type Config struct {
//	    Host    string   `lcfg:"host"`
//	    Port    int      `lcfg:"port"`
//	    Enabled bool     `lcfg:"enabled"`
//	    Tags    []string `lcfg:"tags"`
//	    Database struct {
//	        Host string `lcfg:"host"`
//	        Port int    `lcfg:"port"`
//	    } `lcfg:"database"`
//	}
func Unmarshal(data []byte, v any) error {
	root, err := NewParser().Parse(string(data))
	if err != nil {
		return err
	}
	return UnmarshalSetting(root, v)
}

// UnmarshalSetting decodes the group s into the struct pointed to by v.
func UnmarshalSetting(s *Setting, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}
	if !s.IsGroup() {
		return fmt.Errorf("%w: cannot unmarshal a %s into a struct", ErrNotGroup, s.Kind())
	}

	return unmarshalStruct(s, elem)
}

// unmarshalStruct fills the fields of a struct value from a group.
func unmarshalStruct(group *Setting, v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("lcfg")
		if tag == "-" {
			continue
		}

		tagName, opts := parseTag(tag)
		if tagName == "" {
			tagName = strings.ToLower(field.Name)
		}

		child, err := group.Member(tagName)
		if err != nil {
			if hasOption(opts, "required") {
				return fmt.Errorf("required field %s not found", tagName)
			}
			continue
		}

		if hasOption(opts, "omitempty") && isEmpty(child) {
			continue
		}

		if err := setField(fieldValue, child); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// setField stores s into field, converting as Get would.
func setField(field reflect.Value, s *Setting) error {
	if field.Type() == settingType {
		field.Set(reflect.ValueOf(s))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		return setString(field, s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, s)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(field, s)
	case reflect.Float32, reflect.Float64:
		return setFloat(field, s)
	case reflect.Bool:
		return setBool(field, s)
	case reflect.Slice:
		return setSlice(field, s)
	case reflect.Map:
		return setMap(field, s)
	case reflect.Struct:
		return setStruct(field, s)
	case reflect.Ptr:
		return setPointer(field, s)
	case reflect.Interface:
		v := reflect.ValueOf(s.Interface())
		if !v.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("cannot assign %s to %s", v.Type(), field.Type())
		}
		field.Set(v)
		return nil
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
}

func setString(field reflect.Value, s *Setting) error {
	str, err := s.Text()
	if err != nil {
		return err
	}
	field.SetString(str)
	return nil
}

func setInt(field reflect.Value, s *Setting) error {
	i, err := s.Int()
	if err != nil {
		return err
	}
	if field.OverflowInt(i) {
		return fmt.Errorf("%w: %d does not fit %s", ErrOverflow, i, field.Type())
	}
	field.SetInt(i)
	return nil
}

func setUint(field reflect.Value, s *Setting) error {
	i, err := s.Int()
	if err != nil {
		return err
	}
	if i < 0 || field.OverflowUint(uint64(i)) {
		return fmt.Errorf("%w: %d does not fit %s", ErrOverflow, i, field.Type())
	}
	field.SetUint(uint64(i))
	return nil
}

func setFloat(field reflect.Value, s *Setting) error {
	f, err := s.Float()
	if err != nil {
		return err
	}
	if field.OverflowFloat(f) {
		return fmt.Errorf("%w: %g does not fit %s", ErrOverflow, f, field.Type())
	}
	field.SetFloat(f)
	return nil
}

func setBool(field reflect.Value, s *Setting) error {
	b, err := s.Bool()
	if err != nil {
		return err
	}
	field.SetBool(b)
	return nil
}

// setSlice fills a slice from a list or array.
func setSlice(field reflect.Value, s *Setting) error {
	if !s.IsList() && !s.IsArray() {
		return fmt.Errorf("%w: cannot convert %s to slice", ErrTypeConversion, s.Kind())
	}
	children := s.Children()
	slice := reflect.MakeSlice(field.Type(), len(children), len(children))
	for i, item := range children {
		if err := setField(slice.Index(i), item); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	field.Set(slice)
	return nil
}

// setMap fills a string-keyed map from a group.
func setMap(field reflect.Value, s *Setting) error {
	if !s.IsGroup() {
		return fmt.Errorf("%w: cannot convert %s to map", ErrTypeConversion, s.Kind())
	}
	if field.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported map key type: %s", field.Type().Key())
	}
	m := reflect.MakeMapWithSize(field.Type(), s.Count())
	for _, child := range s.Children() {
		keyValue := reflect.ValueOf(child.Name()).Convert(field.Type().Key())
		elemValue := reflect.New(field.Type().Elem()).Elem()
		if err := setField(elemValue, child); err != nil {
			return fmt.Errorf("key %s: %w", child.Name(), err)
		}
		m.SetMapIndex(keyValue, elemValue)
	}
	field.Set(m)
	return nil
}

func setStruct(field reflect.Value, s *Setting) error {
	if !s.IsGroup() {
		return fmt.Errorf("%w: cannot convert %s to struct", ErrTypeConversion, s.Kind())
	}
	return unmarshalStruct(s, field)
}

func setPointer(field reflect.Value, s *Setting) error {
	ptr := reflect.New(field.Type().Elem())
	if err := setField(ptr.Elem(), s); err != nil {
		return err
	}
	field.Set(ptr)
	return nil
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}

// isEmpty reports whether s is a zero scalar or a composite without
// children.
func isEmpty(s *Setting) bool {
	switch v := s.v.(type) {
	case nil:
		return true
	case boolValue:
		return !bool(v)
	case intValue:
		return v == 0
	case floatValue:
		return v == 0
	case stringValue:
		return v == ""
	default:
		return s.Count() == 0
	}
}
