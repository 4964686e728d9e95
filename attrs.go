package ncdiff

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// AttributeOwner identifies the group or variable whose attributes are being
// compared. Left & Right are variable names, both empty for group attributes
type AttributeOwner struct {
	Path, RightPath GroupPath
	Left, Right     string
}

func (o AttributeOwner) name(variable, attr string) string {
	return variable + ":" + attr
}

// DiffAttributes compares two attribute mappings, emitting exactly one record
// per key present in either. Keys are matched by exact name, renamed keys are
// reported as a removal & an addition. Values compare by exact equality, see
// ValuesEqual. Records are returned in key order
func DiffAttributes(owner AttributeOwner, left, right Attributes) []DiffRecord {
	keys := map[string]bool{}
	for k := range left {
		keys[k] = true
	}
	for k := range right {
		keys[k] = true
	}

	recs := make([]DiffRecord, 0, len(keys))
	for _, key := range sortedKeys(keys) {
		lv, inLeft := left[key]
		rv, inRight := right[key]
		rec := DiffRecord{
			Path:      owner.Path,
			RightPath: owner.RightPath,
			Kind:      KindAttribute,
		}

		switch {
		case inLeft && inRight:
			rec.Left = owner.name(owner.Left, key)
			rec.Right = owner.name(owner.Right, key)
			if ValuesEqual(lv, rv) {
				rec.Status = StatusSame
				rec.Detail = FormatValue(lv)
			} else {
				rec.Status = StatusChanged
				rec.Detail = fmt.Sprintf("left=%s right=%s", FormatValue(lv), FormatValue(rv))
			}
		case inLeft:
			rec.Left = owner.name(owner.Left, key)
			rec.Status = StatusRemoved
			rec.Detail = FormatValue(lv)
		default:
			rec.Right = owner.name(owner.Right, key)
			rec.Status = StatusAdded
			rec.Detail = FormatValue(rv)
		}
		recs = append(recs, rec)
	}
	return recs
}

var equateNaNs = cmpopts.EquateNaNs()

// ValuesEqual compares attribute values for exact equality after
// normalization. There is no numeric tolerance, but NaN equals NaN so a
// container compared with itself reports no changes. integer & floating
// point values never compare equal, nor do sequences of different lengths
func ValuesEqual(a, b interface{}) bool {
	return cmp.Equal(NormalizeValue(a), NormalizeValue(b), equateNaNs)
}

// NormalizeValue converts decoded attribute values to the small set of types
// ncdiff compares & formats: string, bool, int64, uint64 (only when too
// large for int64), float64 & []interface{} of those. single-element
// sequences collapse to a scalar, NetCDF stores scalar attributes as
// length-1 arrays. byte slices are treated as text
func NormalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil, string, bool, int64, float64:
		return x
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return normalizeUint(x)
	case float32:
		// parse the shortest decimal form so 0.1f reads as 0.1, not
		// 0.10000000149011612
		f, err := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		if err != nil {
			return float64(x)
		}
		return f
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 1 {
			return NormalizeValue(rv.Index(0).Interface())
		}
		seq := make([]interface{}, rv.Len())
		for i := range seq {
			seq[i] = NormalizeValue(rv.Index(i).Interface())
		}
		return seq
	}
	return fmt.Sprint(v)
}

func normalizeUint(u uint64) interface{} {
	if u > math.MaxInt64 {
		return u
	}
	return int64(u)
}

func normalizeAttributes(attrs Attributes) Attributes {
	if attrs == nil {
		return nil
	}
	norm := make(Attributes, len(attrs))
	for k, v := range attrs {
		norm[k] = NormalizeValue(v)
	}
	return norm
}

// FormatValue renders an attribute value for reports. text is written as-is,
// sequences as a bracketed, comma separated list. integral floats keep a
// decimal point so 1.0 never reads like the integer 1
func FormatValue(v interface{}) string {
	switch x := NormalizeValue(v).(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		f := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(f, ".eIN") {
			f += ".0"
		}
		return f
	case []interface{}:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = FormatValue(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}
