package ncdiff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	rows    []Row
	summary map[string]int
}

func (s *recordingSink) WriteRow(row Row) error {
	s.rows = append(s.rows, row)
	return nil
}

func (s *recordingSink) WriteSummary(counts map[string]int) error {
	s.summary = counts
	return nil
}

func TestBuilderFinalize(t *testing.T) {
	title := DiffRecord{Path: "/", Kind: KindAttribute, Left: ":title", Right: ":title", Status: StatusSame, Detail: "obs"}
	b := NewBuilder()
	b.Add(
		DiffRecord{Path: "/g1", Kind: KindGroup, Left: "g1", Status: StatusRemoved, Detail: "0 dimensions, 0 variables, 0 subgroups"},
		title,
		DiffRecord{Path: "/", Kind: KindDimension, Left: "lat", Right: "lat", Status: StatusChanged, Detail: "size 180 vs 181"},
		title,
		DiffRecord{Path: "/", Kind: KindGroup, Left: "/", Right: "/", Status: StatusSame},
	)
	b.AddUnreadable(DiffRecord{Path: "/g2", Kind: KindGroup, Left: "g2", Right: "g2", Status: StatusChanged, Detail: "unreadable: left: boom"})

	r := b.Finalize()
	expect := []DiffRecord{
		{Path: "/", Kind: KindGroup, Left: "/", Right: "/", Status: StatusSame},
		{Path: "/", Kind: KindDimension, Left: "lat", Right: "lat", Status: StatusChanged, Detail: "size 180 vs 181"},
		title,
		{Path: "/g1", Kind: KindGroup, Left: "g1", Status: StatusRemoved, Detail: "0 dimensions, 0 variables, 0 subgroups"},
		{Path: "/g2", Kind: KindGroup, Left: "g2", Right: "g2", Status: StatusChanged, Detail: "unreadable: left: boom"},
	}
	if diff := cmp.Diff(expect, r.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	expectStats := Stats{Same: 2, Removed: 1, Changed: 2, Unreadable: 1, LeftGroups: 3, RightGroups: 2}
	if diff := cmp.Diff(expectStats, r.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, r.Aborted)

	again := b.Finalize()
	assert.Equal(t, r.Fingerprint(), again.Fingerprint())
}

func TestReportRender(t *testing.T) {
	b := NewBuilder()
	b.Add(
		DiffRecord{Path: "/", Kind: KindGroup, Left: "/", Right: "/", Status: StatusSame},
		DiffRecord{Path: "/a", RightPath: "/b", Kind: KindGroup, Left: "a", Right: "b", Status: StatusRenamed, Detail: "renamed a -> b"},
	)
	b.Abort()
	r := b.Finalize()
	assert.True(t, r.Aborted)

	s := &recordingSink{}
	require.NoError(t, r.Render(s))
	expect := []Row{
		{Path: "/", Kind: "group", Left: "/", Right: "/", Status: "same"},
		{Path: "/a -> /b", Kind: "group", Left: "a", Right: "b", Status: "renamed", Detail: "renamed a -> b"},
	}
	if diff := cmp.Diff(expect, s.rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]int{"same": 1, "added": 0, "removed": 0, "changed": 0, "renamed": 1, "unreadable": 0, "aborted": 1}, s.summary)

	diffs := r.Differences()
	assert.Len(t, diffs.Records, 1)
	assert.Equal(t, r.Stats, diffs.Stats)
	assert.NotEqual(t, r.Fingerprint(), diffs.Fingerprint())
}

func TestStats(t *testing.T) {
	st := Stats{Same: 3, Added: 1, Changed: 2}
	assert.Equal(t, 6, st.Total())
	assert.Equal(t, 3, st.Differences())
	assert.True(t, st.HasDifferences())
	assert.False(t, Stats{Same: 10}.HasDifferences())
}
