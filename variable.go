package ncdiff

import (
	"fmt"
	"strconv"
	"strings"
)

// VariablePair is a matched or renamed pair of variables from the same
// group pair
type VariablePair struct {
	Path, RightPath GroupPath
	Left, Right     VariableInfo
	// Renamed is true when the pair was matched by name similarity
	Renamed bool
}

// CompareVariables produces the identity record for a variable pair.
// mismatches are checked in order: data type, dimension names (order
// sensitive) & shape, plus chunking when compareChunks is set. All
// mismatches are joined into a single detail string. A renamed pair with no
// mismatches is reported as renamed, a renamed pair that also differs is
// changed, with the rename leading the detail
func CompareVariables(pair VariablePair, compareChunks bool) DiffRecord {
	l, r := pair.Left, pair.Right
	var diffs []string

	if pair.Renamed {
		diffs = append(diffs, fmt.Sprintf("renamed %s -> %s", l.Name, r.Name))
	}
	if l.DType != r.DType {
		diffs = append(diffs, fmt.Sprintf("dtype %s vs %s", l.DType, r.DType))
	}
	if !stringsEqual(l.Dimensions, r.Dimensions) {
		diffs = append(diffs, fmt.Sprintf("dimensions %s vs %s", formatDims(l.Dimensions), formatDims(r.Dimensions)))
	}
	if !intsEqual(l.Shape, r.Shape) {
		diffs = append(diffs, fmt.Sprintf("shape %s vs %s", formatShape(l.Shape), formatShape(r.Shape)))
	}
	if compareChunks && !intsEqual(l.Chunking, r.Chunking) {
		diffs = append(diffs, fmt.Sprintf("chunking %s vs %s", formatChunking(l.Chunking), formatChunking(r.Chunking)))
	}

	rec := DiffRecord{
		Path:      pair.Path,
		RightPath: pair.RightPath,
		Kind:      KindVariable,
		Left:      l.Name,
		Right:     r.Name,
	}

	switch {
	case len(diffs) == 0:
		rec.Status = StatusSame
		rec.Detail = describeVariable(l, compareChunks)
	case pair.Renamed && len(diffs) == 1:
		rec.Status = StatusRenamed
		rec.Detail = diffs[0]
	default:
		rec.Status = StatusChanged
		rec.Detail = strings.Join(diffs, "; ")
	}
	return rec
}

// describeVariable is the full metadata description used for one-sided &
// unchanged variables: "float (time, lat) shape (10,20)"
func describeVariable(v VariableInfo, withChunks bool) string {
	if len(v.Dimensions) == 0 {
		return v.DType + " scalar"
	}
	desc := fmt.Sprintf("%s %s shape %s", v.DType, formatDims(v.Dimensions), formatShape(v.Shape))
	if withChunks && v.Chunking != nil {
		desc += " chunking " + formatChunking(v.Chunking)
	}
	return desc
}

// resolveShape fills in per-axis sizes of v from dimensions visible in its
// scope when the accessor didn't supply a shape. unresolvable axes are
// reported as "?"
func resolveShape(v VariableInfo, scope *dimScope) VariableInfo {
	if v.Shape != nil || len(v.Dimensions) == 0 {
		return v
	}
	shape := make([]int, len(v.Dimensions))
	for i, name := range v.Dimensions {
		shape[i] = unknownSize
		if d, ok := scope.lookup(name); ok {
			shape[i] = d.Size
		}
	}
	v.Shape = shape
	return v
}

const unknownSize = -2

func formatDims(dims []string) string {
	return "(" + strings.Join(dims, ", ") + ")"
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		switch n {
		case unknownSize:
			parts[i] = "?"
		case Unlimited:
			parts[i] = "UNLIMITED"
		default:
			parts[i] = strconv.Itoa(n)
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func formatChunking(chunks []int) string {
	if chunks == nil {
		return "contiguous"
	}
	return formatShape(chunks)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dimScope chains the dimensions visible from a group: its own, then those
// of each ancestor
type dimScope struct {
	dims   map[string]DimensionInfo
	parent *dimScope
}

func (s *dimScope) lookup(name string) (DimensionInfo, bool) {
	for ; s != nil; s = s.parent {
		if d, ok := s.dims[name]; ok {
			return d, true
		}
	}
	return DimensionInfo{}, false
}
