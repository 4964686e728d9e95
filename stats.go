package ncdiff

// Stats holds counts of records by status, plus bookkeeping about the walk
type Stats struct {
	Same    int `json:"same"`    // entities equal on both sides
	Added   int `json:"added"`   // entities only on the right
	Removed int `json:"removed"` // entities only on the left
	Changed int `json:"changed"` // entities present on both sides that differ
	Renamed int `json:"renamed"` // entities paired by similarity & otherwise equal

	Unreadable int `json:"unreadable,omitempty"` // groups that couldn't be read

	LeftGroups  int `json:"leftGroups"`  // count of groups reported from the left side
	RightGroups int `json:"rightGroups"` // count of groups reported from the right side
}

// count tallies a single record
func (s *Stats) count(rec DiffRecord) {
	switch rec.Status {
	case StatusSame:
		s.Same++
	case StatusAdded:
		s.Added++
	case StatusRemoved:
		s.Removed++
	case StatusChanged:
		s.Changed++
	case StatusRenamed:
		s.Renamed++
	}

	if rec.Kind == KindGroup {
		if rec.Left != "" {
			s.LeftGroups++
		}
		if rec.Right != "" {
			s.RightGroups++
		}
	}
}

// Total is the number of records counted
func (s Stats) Total() int {
	return s.Same + s.Added + s.Removed + s.Changed + s.Renamed
}

// Differences is the number of records with a status other than same
func (s Stats) Differences() int {
	return s.Total() - s.Same
}

// HasDifferences is true if any record isn't same
func (s Stats) HasDifferences() bool {
	return s.Differences() > 0
}

// Summary maps each status name to its count, with an additional
// "unreadable" entry
func (s Stats) Summary() map[string]int {
	return map[string]int{
		string(StatusSame):    s.Same,
		string(StatusAdded):   s.Added,
		string(StatusRemoved): s.Removed,
		string(StatusChanged): s.Changed,
		string(StatusRenamed): s.Renamed,
		"unreadable":          s.Unreadable,
	}
}
