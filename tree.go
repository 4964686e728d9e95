package ncdiff

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// ErrGroupNotFound is wrapped by accessors when a requested group path does
// not exist in a hierarchy
var ErrGroupNotFound = errors.New("group not found")

// ErrVariableNotFound is wrapped by accessors when a requested variable does
// not exist in a group
var ErrVariableNotFound = errors.New("variable not found")

// Group is an in-memory snapshot of one node in a container hierarchy.
// decoders (see the cdl & snapshot packages) produce trees of Groups, and
// NewTreeAccessor exposes a tree as an Accessor
type Group struct {
	Name       string
	Dimensions []DimensionInfo
	Variables  []*Variable
	Attributes Attributes
	Groups     []*Group
}

// Variable pairs variable metadata with the variable's attributes
type Variable struct {
	VariableInfo
	Attributes Attributes
}

// Group returns the named child group, nil if none exists
func (g *Group) Group(name string) *Group {
	for _, ch := range g.Groups {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// Variable returns the named variable, nil if none exists
func (g *Group) Variable(name string) *Variable {
	for _, v := range g.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Dimension returns the named dimension defined in this group
func (g *Group) Dimension(name string) (DimensionInfo, bool) {
	for _, d := range g.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return DimensionInfo{}, false
}

// Walk visits every group in the tree in top-down order, sorting children
// by name before recursing. returning false from fn skips a group's
// children
func (g *Group) Walk(fn func(p GroupPath, g *Group) bool) {
	walkGroups(g, RootPath, fn)
}

func walkGroups(g *Group, p GroupPath, fn func(p GroupPath, g *Group) bool) {
	if !fn(p, g) {
		return
	}
	children := make([]*Group, len(g.Groups))
	copy(children, g.Groups)
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	for _, ch := range children {
		walkGroups(ch, p.Child(ch.Name), fn)
	}
}

// Count returns the number of groups, dimensions & variables in the tree
func (g *Group) Count() (groups, dims, vars int) {
	g.Walk(func(_ GroupPath, n *Group) bool {
		groups++
		dims += len(n.Dimensions)
		vars += len(n.Variables)
		return true
	})
	return
}

// NewTreeAccessor exposes an in-memory group tree as an Accessor. Attribute
// values are normalized on read
func NewTreeAccessor(root *Group) Accessor {
	return treeAccessor{root: root}
}

type treeAccessor struct {
	root *Group
}

var _ Accessor = (*treeAccessor)(nil)

func (t treeAccessor) find(op string, p GroupPath) (*Group, error) {
	if t.root == nil {
		return nil, &AccessError{Op: op, Path: p, Err: ErrGroupNotFound}
	}
	g := t.root
	for _, name := range p.Elems() {
		if g = g.Group(name); g == nil {
			return nil, &AccessError{Op: op, Path: p, Err: ErrGroupNotFound}
		}
	}
	return g, nil
}

func (t treeAccessor) Subgroups(ctx context.Context, p GroupPath) ([]string, error) {
	g, err := t.find("subgroups", p)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(g.Groups))
	for _, ch := range g.Groups {
		names = append(names, ch.Name)
	}
	return names, nil
}

func (t treeAccessor) Dimensions(ctx context.Context, p GroupPath) (map[string]DimensionInfo, error) {
	g, err := t.find("dimensions", p)
	if err != nil {
		return nil, err
	}
	dims := make(map[string]DimensionInfo, len(g.Dimensions))
	for _, d := range g.Dimensions {
		dims[d.Name] = d
	}
	return dims, nil
}

func (t treeAccessor) Variables(ctx context.Context, p GroupPath) (map[string]VariableInfo, error) {
	g, err := t.find("variables", p)
	if err != nil {
		return nil, err
	}
	vars := make(map[string]VariableInfo, len(g.Variables))
	for _, v := range g.Variables {
		vars[v.Name] = v.VariableInfo
	}
	return vars, nil
}

func (t treeAccessor) Attributes(ctx context.Context, p GroupPath, variable string) (Attributes, error) {
	g, err := t.find("attributes", p)
	if err != nil {
		return nil, err
	}
	attrs := g.Attributes
	if variable != "" {
		v := g.Variable(variable)
		if v == nil {
			return nil, &AccessError{Op: "attributes", Path: p, Variable: variable, Err: ErrVariableNotFound}
		}
		attrs = v.Attributes
	}
	return normalizeAttributes(attrs), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
