package lcfg

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/warnings.v0"
)

// Config owns the tree produced by the most recent parse.
type Config struct {
	parser *Parser
	root   *Setting
	errs   ErrorList
}

// New creates an empty Config using a default Parser.
func New() *Config {
	return &Config{
		parser: NewParser(),
		root:   NewGroup(),
	}
}

// WithParser configures the parser used by Parse and friends.
func (c *Config) WithParser(p *Parser) *Config {
	c.parser = p
	return c
}

// Parse replaces the tree with the result of parsing src.
//
// The returned error is nil on success. Otherwise it is a warnings.List
// whose Warnings are the recorded errors and whose Fatal is the error that
// stopped the parse, if any; use FatalOnly to ignore the recorded ones and
// Errors for the full ParseError values.
func (c *Config) Parse(src string) error {
	root, err := c.parser.Parse(src)
	c.root = root
	c.errs = nil
	if err == nil {
		return nil
	}
	if !errors.As(err, &c.errs) {
		return err
	}
	return collect(c.errs)
}

// ParseReader reads all of r and parses it.
func (c *Config) ParseReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return c.Parse(string(data))
}

// ParseFile reads and parses the named file.
func (c *Config) ParseFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.Parse(string(data))
}

// Root returns the top-level group.
func (c *Config) Root() *Setting { return c.root }

// Errors returns the errors of the most recent parse, in the order found.
func (c *Config) Errors() ErrorList { return c.errs }

// Lookup resolves a dotted path from the root; see Setting.Lookup.
func (c *Config) Lookup(path string) (*Setting, error) {
	return c.root.Lookup(path)
}

// Unmarshal decodes the tree into v; see UnmarshalSetting.
func (c *Config) Unmarshal(v any) error {
	return UnmarshalSetting(c.root, v)
}

func collect(list ErrorList) error {
	c := warnings.NewCollector(isFatal)
	c.FatalWithWarnings = true
	for _, e := range list {
		if err := c.Collect(e); err != nil {
			return err
		}
	}
	return c.Done()
}
