package ncdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCompareVariables(t *testing.T) {
	temp := VariableInfo{Name: "temp", DType: "float", Dimensions: []string{"time", "lat"}, Shape: []int{10, 180}}

	with := func(fn func(v *VariableInfo)) VariableInfo {
		v := temp
		fn(&v)
		return v
	}

	cases := []struct {
		description string
		pair        VariablePair
		chunks      bool
		status      Status
		detail      string
	}{
		{"same",
			VariablePair{Left: temp, Right: temp}, false,
			StatusSame, "float (time, lat) shape (10,180)",
		},
		{"shape",
			VariablePair{Left: temp, Right: with(func(v *VariableInfo) { v.Shape = []int{10, 181} })}, false,
			StatusChanged, "shape (10,180) vs (10,181)",
		},
		{"dtype & dimension order",
			VariablePair{Left: temp, Right: with(func(v *VariableInfo) {
				v.DType = "double"
				v.Dimensions = []string{"lat", "time"}
			})}, false,
			StatusChanged, "dtype float vs double; dimensions (time, lat) vs (lat, time)",
		},
		{"renamed",
			VariablePair{Left: temp, Right: with(func(v *VariableInfo) { v.Name = "tmp" }), Renamed: true}, false,
			StatusRenamed, "renamed temp -> tmp",
		},
		{"renamed & changed",
			VariablePair{Left: temp, Right: with(func(v *VariableInfo) {
				v.Name = "tmp"
				v.DType = "double"
			}), Renamed: true}, false,
			StatusChanged, "renamed temp -> tmp; dtype float vs double",
		},
		{"chunking ignored by default",
			VariablePair{Left: temp, Right: with(func(v *VariableInfo) { v.Chunking = []int{1, 180} })}, false,
			StatusSame, "float (time, lat) shape (10,180)",
		},
		{"chunking",
			VariablePair{Left: with(func(v *VariableInfo) { v.Chunking = []int{1, 180} }), Right: temp}, true,
			StatusChanged, "chunking (1,180) vs contiguous",
		},
		{"same with chunking",
			VariablePair{Left: with(func(v *VariableInfo) { v.Chunking = []int{1, 180} }), Right: with(func(v *VariableInfo) { v.Chunking = []int{1, 180} })}, true,
			StatusSame, "float (time, lat) shape (10,180) chunking (1,180)",
		},
		{"scalar",
			VariablePair{Left: VariableInfo{Name: "crs", DType: "int"}, Right: VariableInfo{Name: "crs", DType: "int"}}, false,
			StatusSame, "int scalar",
		},
	}

	for i, c := range cases {
		got := CompareVariables(c.pair, c.chunks)
		assert.Equal(t, KindVariable, got.Kind, "case %d", i)
		assert.Equal(t, c.pair.Left.Name, got.Left, "case %d", i)
		assert.Equal(t, c.pair.Right.Name, got.Right, "case %d", i)
		if got.Status != c.status || got.Detail != c.detail {
			t.Errorf("%d. %s\nwant: %s %q\ngot:  %s %q", i, c.description, c.status, c.detail, got.Status, got.Detail)
		}
	}
}

func TestResolveShape(t *testing.T) {
	root := &dimScope{dims: map[string]DimensionInfo{
		"time": {Name: "time", Size: 24, Unlimited: true},
		"lat":  {Name: "lat", Size: 180},
	}}
	child := &dimScope{parent: root, dims: map[string]DimensionInfo{
		"lat": {Name: "lat", Size: 90},
		"lon": {Name: "lon", Size: 360},
	}}

	v := VariableInfo{Name: "wind", DType: "float", Dimensions: []string{"time", "lat", "lon", "level"}}
	got := resolveShape(v, child)
	if diff := cmp.Diff([]int{24, 90, 360, unknownSize}, got.Shape); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "(24,90,360,?)", formatShape(got.Shape))
	assert.Nil(t, v.Shape, "input variable must not be modified")

	explicit := VariableInfo{Name: "x", Dimensions: []string{"lat"}, Shape: []int{7}}
	assert.Equal(t, []int{7}, resolveShape(explicit, child).Shape)
}
