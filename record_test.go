package ncdiff

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffRecordJSON(t *testing.T) {
	rec := DiffRecord{Path: "/g1", Kind: KindVariable, Left: "lat", Right: "lat", Status: StatusChanged, Detail: "shape (180) vs (181)"}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `["changed","/g1","variable","lat","lat","shape (180) vs (181)"]`, string(data))

	renamed := DiffRecord{Path: "/forecast", RightPath: "/forecasts", Kind: KindGroup, Left: "forecast", Right: "forecasts", Status: StatusRenamed, Detail: "renamed forecast -> forecasts"}
	data, err = json.Marshal(renamed)
	require.NoError(t, err)
	// encoding/json escapes ">" in strings
	assert.Equal(t, `["renamed","/forecast","group","forecast","forecasts","renamed forecast -\u003e forecasts","/forecasts"]`, string(data))

	var got []DiffRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		["changed","/g1","variable","lat","lat","shape (180) vs (181)"],
		["renamed","/forecast","group","forecast","forecasts","renamed forecast -> forecasts","/forecasts"]
	]`), &got))
	if diff := cmp.Diff([]DiffRecord{rec, renamed}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffRecordJSONErrors(t *testing.T) {
	cases := []string{
		`{}`,
		`["same","/"]`,
		`["same","/","galaxy","a","a",""]`,
		`["same","/","group","a","a","","/b","extra"]`,
	}
	for i, c := range cases {
		rec := &DiffRecord{}
		assert.Error(t, json.Unmarshal([]byte(c), rec), "case %d", i)
	}

	err := json.Unmarshal([]byte(`["same","/","galaxy","a","a",""]`), &DiffRecord{})
	assert.EqualError(t, err, `diff record element 2: unrecognized entity kind "galaxy"`)
}

func TestRecordsSort(t *testing.T) {
	recs := Records{
		{Path: "/g1/sub", Kind: KindGroup, Left: "sub", Right: "sub", Status: StatusSame},
		{Path: "/", Kind: KindAttribute, Left: ":title", Right: ":title", Status: StatusSame},
		{Path: "/g1", Kind: KindVariable, Right: "b", Status: StatusAdded},
		{Path: "/g1", Kind: KindVariable, Left: "a", Right: "a", Status: StatusSame},
		{Path: "/g1", Kind: KindDimension, Left: "z", Right: "z", Status: StatusSame},
		{Path: "/g1", Kind: KindGroup, Left: "g1", Right: "g1", Status: StatusSame},
		{Path: "/g1-old", Kind: KindGroup, Left: "g1-old", Status: StatusRemoved},
		{Path: "/", Kind: KindGroup, Left: "/", Right: "/", Status: StatusSame},
	}
	sort.Sort(recs)

	var got []string
	for _, r := range recs {
		got = append(got, r.Path.String()+" "+r.Kind.String()+" "+r.Name())
	}
	expect := []string{
		"/ group /",
		"/ attribute :title",
		"/g1 group g1",
		"/g1 dimension z",
		"/g1 variable a",
		"/g1 variable b",
		"/g1/sub group sub",
		"/g1-old group g1-old",
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestKindJSON(t *testing.T) {
	for k := KindGroup; k <= KindAttribute; k++ {
		data, err := json.Marshal(k)
		require.NoError(t, err)
		var got Kind
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("galaxy")
	assert.Error(t, err)
}

func TestGroupPath(t *testing.T) {
	assert.Equal(t, GroupPath("/a/b"), ParseGroupPath("a//b/"))
	assert.Equal(t, RootPath, ParseGroupPath(""))
	assert.Equal(t, GroupPath("/a"), RootPath.Child("a"))
	assert.Equal(t, GroupPath("/a/b"), GroupPath("/a").Child("b"))
	assert.Equal(t, GroupPath("/a"), GroupPath("/a/b").Parent())
	assert.Equal(t, RootPath, GroupPath("/a").Parent())
	assert.Equal(t, "b", GroupPath("/a/b").Base())
	assert.Equal(t, "/", RootPath.Base())
	assert.Equal(t, 2, GroupPath("/a/b").Depth())
	assert.Equal(t, 0, RootPath.Depth())
	assert.Equal(t, "/a -> /b", DiffRecord{Path: "/a", RightPath: "/b"}.PathString())
}
