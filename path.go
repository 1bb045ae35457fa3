package lcfg

import (
	"fmt"
	"strconv"
	"strings"
)

// Lookup resolves a dotted path below s. Each element is a member name, an
// index in brackets, or a name followed by indexes:
//
//	server.listen.[0]
//	server.listen[0].port
//	servers[-1]
//
// An empty path returns s itself.
func (s *Setting) Lookup(path string) (*Setting, error) {
	if path == "" {
		return s, nil
	}

	cur := s
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("%w: empty element in %q", ErrInvalidPath, path)
		}

		name, indexes, _ := strings.Cut(part, "[")
		if name != "" {
			next, err := cur.Member(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cur = next
		}
		if indexes == "" && !strings.Contains(part, "[") {
			continue
		}

		for _, idx := range strings.Split("["+indexes, "[")[1:] {
			digits, ok := strings.CutSuffix(idx, "]")
			if !ok {
				return nil, fmt.Errorf("%w: unclosed index in %q", ErrInvalidPath, path)
			}
			i, err := strconv.Atoi(digits)
			if err != nil {
				return nil, fmt.Errorf("%w: bad index %q in %q", ErrInvalidPath, digits, path)
			}
			next, err := cur.At(i)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cur = next
		}
	}
	return cur, nil
}
