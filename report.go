package ncdiff

import (
	"encoding/hex"
	"hash"
	"hash/fnv"
	"sort"
	"strings"
)

// Builder accumulates records in traversal order. A Builder is owned by a
// single comparison & isn't safe for concurrent use
type Builder struct {
	recs       []DiffRecord
	unreadable int
	aborted    bool
}

// NewBuilder allocates an empty Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends records to the builder
func (b *Builder) Add(recs ...DiffRecord) {
	b.recs = append(b.recs, recs...)
}

// AddUnreadable adds a record standing in for a subtree that couldn't be
// read, counting it in the unreadable total
func (b *Builder) AddUnreadable(rec DiffRecord) {
	b.unreadable++
	b.recs = append(b.recs, rec)
}

// Abort flags the report as partial
func (b *Builder) Abort() {
	b.aborted = true
}

// Finalize sorts & deduplicates accumulated records into a report.
// Finalize doesn't modify the builder, calling it twice gives equal reports
func (b *Builder) Finalize() *Report {
	recs := make(Records, len(b.recs))
	copy(recs, b.recs)
	sort.Sort(recs)

	// identical records are adjacent after sorting
	deduped := recs[:0]
	for i, rec := range recs {
		if i > 0 && rec == recs[i-1] {
			continue
		}
		deduped = append(deduped, rec)
	}

	r := &Report{
		Records: []DiffRecord(deduped),
		Aborted: b.aborted,
	}
	r.Stats.Unreadable = b.unreadable
	for _, rec := range r.Records {
		r.Stats.count(rec)
	}
	return r
}

// Report is the finalized, ordered result of a comparison
type Report struct {
	Records []DiffRecord `json:"records"`
	Stats   Stats        `json:"stats"`
	// Aborted is true when the comparison was cancelled before every group
	// was visited. records of visited groups are complete
	Aborted bool `json:"aborted,omitempty"`
}

// Row is a single rendered record. columns are, in order: group path, kind,
// left name, right name, status, detail
type Row struct {
	Path   string
	Kind   string
	Left   string
	Right  string
	Status string
	Detail string
}

// Strings lists row columns in order
func (r Row) Strings() []string {
	return []string{r.Path, r.Kind, r.Left, r.Right, r.Status, r.Detail}
}

// RowHeader names the columns of a Row
var RowHeader = []string{"path", "kind", "left", "right", "status", "detail"}

// NewRow renders a record as a row
func NewRow(rec DiffRecord) Row {
	return Row{
		Path:   rec.PathString(),
		Kind:   rec.Kind.String(),
		Left:   rec.Left,
		Right:  rec.Right,
		Status: string(rec.Status),
		Detail: rec.Detail,
	}
}

// Sink is a tabular report destination. Sinks must preserve the order rows
// are written in
type Sink interface {
	WriteRow(row Row) error
	WriteSummary(counts map[string]int) error
}

// Render writes one row per record in report order, followed by the
// summary counts. an aborted report carries an extra "aborted" count of 1
func (r *Report) Render(s Sink) error {
	for _, rec := range r.Records {
		if err := s.WriteRow(NewRow(rec)); err != nil {
			return err
		}
	}
	counts := r.Stats.Summary()
	if r.Aborted {
		counts["aborted"] = 1
	}
	return s.WriteSummary(counts)
}

// Differences returns a copy of the report with same records dropped. Stats
// are carried over unchanged
func (r *Report) Differences() *Report {
	diffs := &Report{Stats: r.Stats, Aborted: r.Aborted}
	for _, rec := range r.Records {
		if rec.IsDifference() {
			diffs.Records = append(diffs.Records, rec)
		}
	}
	return diffs
}

// Fingerprint is a hash of every record in order. Two reports with the
// same fingerprint list the same records
func (r *Report) Fingerprint() string {
	h := NewHash()
	for _, rec := range r.Records {
		h.Write([]byte(strings.Join(NewRow(rec).Strings(), "\x1f")))
		h.Write([]byte{'\x1e'})
	}
	return hashStr(h.Sum(nil))
}

// NewHash returns a new hash interface, wrapped in a function for easy
// hash algorithm switching, package consumers can override NewHash
// with their own desired hash.Hash implementation. default is 64-bit FNV 1
// for fast, cheap, (non-cryptographic) hashing
var NewHash = func() hash.Hash {
	return fnv.New64()
}

// hashStr converts a hash sum to a string using hex encoding
func hashStr(sum []byte) string {
	return hex.EncodeToString(sum)
}
