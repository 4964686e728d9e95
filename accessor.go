package ncdiff

import (
	"context"
	"fmt"
	"strings"
)

// Accessor is the read-only metadata capability of an open container. It
// exposes structure only, ncdiff never asks an accessor for array data.
// Implementations should return an *AccessError when a path can't be read
type Accessor interface {
	// Subgroups lists the names of groups directly beneath path
	Subgroups(ctx context.Context, path GroupPath) ([]string, error)
	// Dimensions lists dimensions defined in the group at path, keyed by name
	Dimensions(ctx context.Context, path GroupPath) (map[string]DimensionInfo, error)
	// Variables lists variables defined in the group at path, keyed by name
	Variables(ctx context.Context, path GroupPath) (map[string]VariableInfo, error)
	// Attributes lists the attributes of a variable in the group at path, or
	// the group's own attributes when variable is the empty string
	Attributes(ctx context.Context, path GroupPath, variable string) (Attributes, error)
}

// GroupPath is the slash-separated sequence of group names from the root of
// a hierarchy to a group. The root group is "/". NetCDF names may not
// contain a slash, so the string form is unambiguous
type GroupPath string

// RootPath is the path of the root group
const RootPath = GroupPath("/")

// ParseGroupPath cleans a user-supplied path string, tolerating missing
// leading slashes and repeated separators
func ParseGroupPath(s string) GroupPath {
	return pathFromElems(strings.Split(s, "/"))
}

func pathFromElems(elems []string) GroupPath {
	var parts []string
	for _, e := range elems {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return GroupPath("/" + strings.Join(parts, "/"))
}

// IsRoot reports whether p names the root group
func (p GroupPath) IsRoot() bool { return p == "" || p == RootPath }

// Child returns the path of the named group beneath p
func (p GroupPath) Child(name string) GroupPath {
	if p.IsRoot() {
		return GroupPath("/" + name)
	}
	return GroupPath(string(p) + "/" + name)
}

// Parent returns the path of the group containing p. the root is its own
// parent
func (p GroupPath) Parent() GroupPath {
	if p.IsRoot() {
		return RootPath
	}
	i := strings.LastIndexByte(string(p), '/')
	if i <= 0 {
		return RootPath
	}
	return p[:i]
}

// Base returns the final element of the path, "/" for the root
func (p GroupPath) Base() string {
	if p.IsRoot() {
		return "/"
	}
	return string(p[strings.LastIndexByte(string(p), '/')+1:])
}

// Elems returns the group names along the path, empty for the root
func (p GroupPath) Elems() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p[1:]), "/")
}

// Depth is the number of groups between the root and p
func (p GroupPath) Depth() int { return len(p.Elems()) }

// String implements the fmt.Stringer interface
func (p GroupPath) String() string {
	if p == "" {
		return string(RootPath)
	}
	return string(p)
}

// qualify builds the identifier used for ignore-pattern matching of an
// entity named name that lives in the group at p
func (p GroupPath) qualify(name string) string {
	return string(p.Child(name))
}

// Unlimited is the conventional size reported for an unlimited dimension
// whose current length is unknown
const Unlimited = -1

// DimensionInfo describes a named axis
type DimensionInfo struct {
	Name string
	// Size is the current length of the dimension
	Size int
	// Unlimited dimensions can grow. Size holds the current length, or
	// the Unlimited constant when that isn't known
	Unlimited bool
}

func (d DimensionInfo) sizeString() string {
	if d.Unlimited {
		if d.Size == Unlimited {
			return "UNLIMITED"
		}
		return fmt.Sprintf("UNLIMITED (%d currently)", d.Size)
	}
	return fmt.Sprintf("%d", d.Size)
}

// VariableInfo is the structural metadata of a variable
type VariableInfo struct {
	Name string
	// DType is the data type tag, eg: "float", "int64", "string"
	DType string
	// Dimensions is the ordered sequence of dimension names defining the
	// variable's axes. order matters
	Dimensions []string
	// Shape holds per-axis sizes. Accessors may leave Shape nil, in which
	// case sizes are resolved from dimensions in the variable's scope
	Shape []int
	// Chunking holds per-axis chunk sizes for chunked storage, nil when
	// contiguous or unknown
	Chunking []int
}

// Attributes maps attribute names to values. values are scalars (string,
// int64, uint64, float64, bool) or sequences of scalars as []interface{}
type Attributes map[string]interface{}

// Names returns attribute keys in sorted order
func (a Attributes) Names() []string {
	return sortedKeys(a)
}

// AccessError is returned by an Accessor when part of a container can't
// be read. Comparisons treat an AccessError as a non-fatal, per-subtree
// failure
type AccessError struct {
	// Op is the accessor call that failed, eg: "variables"
	Op       string
	Path     GroupPath
	Variable string
	Err      error
}

// Error implements the error interface
func (e *AccessError) Error() string {
	loc := e.Path.String()
	if e.Variable != "" {
		loc = fmt.Sprintf("%s variable %q", loc, e.Variable)
	}
	if e.Err == nil {
		return fmt.Sprintf("reading %s at %s", e.Op, loc)
	}
	return fmt.Sprintf("reading %s at %s: %s", e.Op, loc, e.Err)
}

// Unwrap supports errors.Is & errors.As
func (e *AccessError) Unwrap() error { return e.Err }

// Cause supports github.com/pkg/errors.Cause
func (e *AccessError) Cause() error { return e.Err }

// asAccessError makes sure any failure surfaced from an accessor is
// reported as an *AccessError with path context
func asAccessError(op string, path GroupPath, variable string, err error) *AccessError {
	if ae, ok := err.(*AccessError); ok {
		return ae
	}
	return &AccessError{Op: op, Path: path, Variable: variable, Err: err}
}
