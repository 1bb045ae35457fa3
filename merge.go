package lcfg

import (
	"fmt"
)

// Merge strategies.
const (
	MergeDeep    = "deep"    // merge groups member by member, recursively
	MergeShallow = "shallow" // merge top-level members, replace everything below
	MergeReplace = "replace" // same as shallow
)

// List strategies, applied when both sides hold a list or both an array.
const (
	ListAppend  = "append"
	ListReplace = "replace"
	ListUnique  = "unique" // append, dropping scalars already present
)

// MergeOptions configures how a Merger combines trees.
type MergeOptions struct {
	Strategy     string // "deep", "shallow", "replace"
	ListStrategy string // "append", "replace", "unique"
}

// Merger overlays one configuration tree on another, for layered setups
// such as defaults, a site file and a local override.
type Merger struct {
	options MergeOptions
}

// NewMerger creates a Merger doing deep merges with appended lists.
func NewMerger() *Merger {
	return &Merger{
		options: MergeOptions{
			Strategy:     MergeDeep,
			ListStrategy: ListAppend,
		},
	}
}

// WithOptions sets merge options.
func (m *Merger) WithOptions(opts MergeOptions) *Merger {
	m.options = opts
	return m
}

// Merge returns a new tree with overlay laid over base. Neither input is
// modified. Members of the top-level groups are always merged by name;
// below that the strategy decides.
func (m *Merger) Merge(base, overlay *Setting) (*Setting, error) {
	switch m.options.Strategy {
	case MergeDeep, MergeShallow, MergeReplace:
	default:
		return nil, fmt.Errorf("unknown merge strategy %q", m.options.Strategy)
	}
	switch m.options.ListStrategy {
	case ListAppend, ListReplace, ListUnique:
	default:
		return nil, fmt.Errorf("unknown list strategy %q", m.options.ListStrategy)
	}

	if overlay == nil {
		return base.Clone(), nil
	}
	if base.IsGroup() && overlay.IsGroup() {
		return m.mergeGroups(base, overlay)
	}
	return m.mergeValues(base, overlay)
}

// mergeValues merges two values according to merge strategy
func (m *Merger) mergeValues(base, overlay *Setting) (*Setting, error) {
	if m.options.Strategy == MergeShallow || m.options.Strategy == MergeReplace {
		return renamed(overlay.Clone(), base.name), nil
	}

	if base.IsGroup() && overlay.IsGroup() {
		return m.mergeGroups(base, overlay)
	}

	sameKind := base.Kind() == overlay.Kind()
	if sameKind && (base.IsList() || base.IsArray()) {
		return m.mergeLists(base, overlay)
	}

	return renamed(overlay.Clone(), base.name), nil
}

// mergeGroups keeps base's member order and appends members only overlay has.
func (m *Merger) mergeGroups(base, overlay *Setting) (*Setting, error) {
	result := renamed(NewGroup(), base.name)
	for _, child := range base.Children() {
		merged := child.Clone()
		if o, err := overlay.Member(child.name); err == nil {
			if merged, err = m.mergeValues(child, o); err != nil {
				return nil, fmt.Errorf("%s: %w", child.name, err)
			}
		}
		if err := adopt(result, merged); err != nil {
			return nil, err
		}
	}
	for _, child := range overlay.Children() {
		if base.Exists(child.name) {
			continue
		}
		if err := adopt(result, child.Clone()); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (m *Merger) mergeLists(base, overlay *Setting) (*Setting, error) {
	if m.options.ListStrategy == ListReplace {
		return renamed(overlay.Clone(), base.name), nil
	}

	result := renamed(base.Clone(), base.name)
	seen := make(map[string]bool)
	if m.options.ListStrategy == ListUnique {
		for _, item := range result.Children() {
			if item.IsScalar() {
				seen[scalarKey(item)] = true
			}
		}
	}
	for _, item := range overlay.Children() {
		if m.options.ListStrategy == ListUnique && item.IsScalar() {
			key := scalarKey(item)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		if err := result.Append(item.Clone()); err != nil {
			return nil, fmt.Errorf("%s: %w", base.name, err)
		}
	}
	return result, nil
}

// adopt attaches child to group under child's own name.
func adopt(group, child *Setting) error {
	slot, err := group.CreateNamedChild(child.name)
	if err != nil {
		return err
	}
	slot.v = child.v
	return nil
}

func renamed(s *Setting, name string) *Setting {
	s.name = name
	return s
}

func scalarKey(s *Setting) string {
	return s.Kind().String() + ":" + s.String()
}
