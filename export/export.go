// Package export renders configuration trees as JSON, YAML or TOML so
// other tools can consume them.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	lcfg "github.com/lcfg/go"
)

// Format names an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat parses a format name, case-insensitively. "yml" is accepted
// for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Write renders s in format f to w.
func Write(w io.Writer, s *lcfg.Setting, f Format) error {
	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON:
		out, err = JSON(s)
	case FormatYAML:
		out, err = YAML(s)
	case FormatTOML:
		out, err = TOML(s)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// JSON renders s as indented JSON. Group members keep their definition
// order.
func JSON(s *lcfg.Setting) ([]byte, error) {
	raw, err := compactJSON(s)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(raw), nil
}

func compactJSON(s *lcfg.Setting) ([]byte, error) {
	switch s.Kind() {
	case lcfg.KindGroup:
		out := []byte("{}")
		for _, child := range s.Children() {
			raw, err := compactJSON(child)
			if err != nil {
				return nil, err
			}
			if out, err = sjson.SetRawBytes(out, escapeKey(child.Name()), raw); err != nil {
				return nil, fmt.Errorf("%s: %w", child.Name(), err)
			}
		}
		return out, nil
	case lcfg.KindList, lcfg.KindArray:
		out := []byte("[]")
		for i, child := range s.Children() {
			raw, err := compactJSON(child)
			if err != nil {
				return nil, err
			}
			if out, err = sjson.SetRawBytes(out, "-1", raw); err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return out, nil
	default:
		return json.Marshal(s.Interface())
	}
}

// escapeKey protects the characters sjson treats as path syntax. Setting
// names may contain '*'.
func escapeKey(name string) string {
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '\\', '.', '*', '?', '|', '#', '@', ':':
			sb.WriteByte('\\')
		}
		sb.WriteByte(name[i])
	}
	return sb.String()
}

// YAML renders s as a YAML document. Group members keep their definition
// order and arrays are written in flow style.
func YAML(s *lcfg.Setting) ([]byte, error) {
	node, err := yamlNode(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNode(s *lcfg.Setting) (*yaml.Node, error) {
	switch s.Kind() {
	case lcfg.KindGroup:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, child := range s.Children() {
			v, err := yamlNode(child)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: child.Name()}
			n.Content = append(n.Content, key, v)
		}
		return n, nil
	case lcfg.KindList, lcfg.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if s.IsArray() {
			n.Style = yaml.FlowStyle
		}
		for _, child := range s.Children() {
			v, err := yamlNode(child)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, v)
		}
		return n, nil
	case lcfg.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s.String()}, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(s.Interface()); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// TOML renders s, which must be a group, as a TOML document. TOML tables
// are unordered, so members come out sorted by name.
func TOML(s *lcfg.Setting) ([]byte, error) {
	if !s.IsGroup() {
		return nil, fmt.Errorf("%w: TOML documents must be a group, got %s", lcfg.ErrNotGroup, s.Kind())
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(s.Interface()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
