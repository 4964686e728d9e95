package ncdiff

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Status is the outcome of comparing one entity
type Status string

const (
	// StatusSame means the entity is present & structurally equal on both sides
	StatusSame = Status("same")
	// StatusAdded means the entity is only present on the right
	StatusAdded = Status("added")
	// StatusRemoved means the entity is only present on the left
	StatusRemoved = Status("removed")
	// StatusChanged means the entity is present on both sides but differs,
	// or could not be read
	StatusChanged = Status("changed")
	// StatusRenamed means the entity was paired by name similarity &
	// is otherwise equal
	StatusRenamed = Status("renamed")
)

// Statuses lists every status in summary order
var Statuses = []Status{StatusSame, StatusAdded, StatusRemoved, StatusChanged, StatusRenamed}

// Symbol is a one-character marker for the status, used by text output
func (s Status) Symbol() string {
	switch s {
	case StatusSame:
		return " "
	case StatusAdded:
		return "+"
	case StatusRemoved:
		return "-"
	case StatusChanged:
		return "~"
	case StatusRenamed:
		return ">"
	default:
		return "?"
	}
}

// Kind is the type of entity a record describes. Kinds are ordered, reports
// list groups before dimensions before variables before attributes
type Kind uint8

const (
	// KindGroup is a group
	KindGroup Kind = iota
	// KindDimension is a dimension
	KindDimension
	// KindVariable is a variable
	KindVariable
	// KindAttribute is a group or variable attribute
	KindAttribute
)

// String implements the fmt.Stringer interface
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDimension:
		return "dimension"
	case KindVariable:
		return "variable"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	for k := KindGroup; k <= KindAttribute; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindGroup, errors.Errorf("unrecognized entity kind %q", s)
}

// MarshalJSON encodes a kind as its name
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name
func (k *Kind) UnmarshalJSON(data []byte) (err error) {
	var s string
	if err = json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k, err = ParseKind(s)
	return err
}

// DiffRecord describes the comparison of one entity
type DiffRecord struct {
	// Path is the group the entity belongs to. for entities inside a group
	// pair this is the left group's path, for one-sided entities it's the
	// path on the side they were found. group records carry their own path
	Path GroupPath
	// RightPath is set when the right group's path differs from Path, which
	// happens beneath renamed groups
	RightPath GroupPath
	// Kind of entity
	Kind Kind
	// Left & Right are the entity's names on each side. one of them is empty
	// for added & removed records. Attribute names use CDL notation:
	// "var:attr" for variable attributes, ":attr" for group attributes
	Left, Right string
	// Status of the comparison
	Status Status
	// Detail is a human readable description, eg: "shape (10,20) vs (10,21)"
	Detail string
}

// Name is the entity name used for ordering: the left name when present,
// the right name otherwise
func (r DiffRecord) Name() string {
	if r.Left != "" {
		return r.Left
	}
	return r.Right
}

// PathString renders Path, including RightPath when it differs
func (r DiffRecord) PathString() string {
	if r.RightPath != "" && r.RightPath != r.Path {
		return fmt.Sprintf("%s -> %s", r.Path, r.RightPath)
	}
	return r.Path.String()
}

// IsDifference is true for every status other than same
func (r DiffRecord) IsDifference() bool {
	return r.Status != StatusSame
}

// MarshalJSON writes a record as a compact array:
// [status, path, kind, left, right, detail] with a right path appended
// when present
func (r DiffRecord) MarshalJSON() ([]byte, error) {
	v := []interface{}{r.Status, r.Path, r.Kind, r.Left, r.Right, r.Detail}
	if r.RightPath != "" {
		v = append(v, r.RightPath)
	}
	return json.Marshal(v)
}

// UnmarshalJSON reads the compact array form written by MarshalJSON
func (r *DiffRecord) UnmarshalJSON(data []byte) error {
	var v []json.RawMessage
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) < 6 || len(v) > 7 {
		return errors.Errorf("expected 6 or 7 elements in diff record, got %d", len(v))
	}

	rec := DiffRecord{}
	fields := []interface{}{&rec.Status, &rec.Path, &rec.Kind, &rec.Left, &rec.Right, &rec.Detail, &rec.RightPath}
	for i, raw := range v {
		if err := json.Unmarshal(raw, fields[i]); err != nil {
			return errors.Wrapf(err, "diff record element %d", i)
		}
	}
	*r = rec
	return nil
}

// Records is a sortable list of diff records
type Records []DiffRecord

func (rs Records) Len() int      { return len(rs) }
func (rs Records) Swap(i, j int) { rs[i], rs[j] = rs[j], rs[i] }
func (rs Records) Less(i, j int) bool {
	a, b := rs[i], rs[j]
	if a.Path != b.Path {
		return pathLess(a.Path, b.Path)
	}
	if a.RightPath != b.RightPath {
		return pathLess(a.RightPath, b.RightPath)
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Name() != b.Name() {
		return a.Name() < b.Name()
	}
	if a.Right != b.Right {
		return a.Right < b.Right
	}
	if a.Status != b.Status {
		return a.Status < b.Status
	}
	return a.Detail < b.Detail
}

// pathLess orders paths element by element so a group's descendants sort
// directly after it
func pathLess(a, b GroupPath) bool {
	ae, be := a.Elems(), b.Elems()
	for i := 0; i < len(ae) && i < len(be); i++ {
		if ae[i] != be[i] {
			return ae[i] < be[i]
		}
	}
	if len(ae) != len(be) {
		return len(ae) < len(be)
	}
	return a < b
}
