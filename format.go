package ncdiff

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

const colorClose = "\x1b[0m"

var statusColors = map[Status]string{
	StatusSame:    "\x1b[37m", // neutral
	StatusAdded:   "\x1b[32m", // green
	StatusRemoved: "\x1b[31m", // red
	StatusChanged: "\x1b[34m", // blue
	StatusRenamed: "\x1b[33m", // yellow
}

// FormatPrettyString is a convenience wrapper that outputs to a string
// instead of an io.Writer
func FormatPrettyString(r *Report, colorTTY bool) (string, error) {
	buf := &bytes.Buffer{}
	if err := FormatPretty(buf, r, colorTTY); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatPretty writes a text report to w. if colorTTY is true it will add
// red "-" for removals
// green "+" for additions
// blue "~" for changes
// yellow ">" for renames
func FormatPretty(w io.Writer, r *Report, colorTTY bool) error {
	return r.Render(NewTextSink(w, colorTTY))
}

// TextSink writes one line per row:
//
//	~ /g1 variable lat: shape (180) vs (181)
//
// followed by a line of summary counts
type TextSink struct {
	w     io.Writer
	color bool
}

// NewTextSink creates a text sink, colorTTY adds ANSI colors
func NewTextSink(w io.Writer, colorTTY bool) *TextSink {
	return &TextSink{w: w, color: colorTTY}
}

// WriteRow implements the Sink interface
func (s *TextSink) WriteRow(row Row) error {
	status := Status(row.Status)
	open, end := "", ""
	if s.color {
		open, end = statusColors[status], colorClose
	}

	name := row.Left
	switch {
	case name == "":
		name = row.Right
	case row.Right != "" && row.Right != row.Left:
		name = row.Left + " -> " + row.Right
	}

	detail := ""
	if row.Detail != "" {
		detail = ": " + row.Detail
	}
	_, err := fmt.Fprintf(s.w, "%s%s %s %s %s%s%s\n", open, status.Symbol(), row.Path, row.Kind, name, detail, end)
	return err
}

// WriteSummary implements the Sink interface
func (s *TextSink) WriteSummary(counts map[string]int) error {
	_, err := io.WriteString(s.w, formatSummary(counts, s.color))
	return err
}

// FormatPrettyStats prints a string of stats info
func FormatPrettyStats(st *Stats) string {
	return formatStats(st, false)
}

// FormatPrettyStatsColor prints a string of stats info with ANSI colors
func FormatPrettyStatsColor(st *Stats) string {
	return formatStats(st, true)
}

func formatStats(st *Stats, color bool) string {
	if st == nil {
		return "<nil>"
	}
	return formatSummary(st.Summary(), color)
}

// formatSummary writes counts in status order: "3 same. 1 added. 0 removed.
// 2 changed. 0 renamed." unreadable nodes & aborted runs are only mentioned
// when present
func formatSummary(counts map[string]int, color bool) string {
	buf := &bytes.Buffer{}
	for i, status := range Statuses {
		open, end := "", ""
		if color {
			open, end = statusColors[status], colorClose
		}
		if i > 0 {
			buf.WriteRune(' ')
		}
		fmt.Fprintf(buf, "%s%d %s.%s", open, counts[string(status)], status, end)
	}

	if n := counts["unreadable"]; n > 0 {
		open, end := "", ""
		if color {
			open, end = statusColors[StatusRemoved], colorClose
		}
		fmt.Fprintf(buf, " %s%d unreadable.%s", open, n, end)
	}
	if counts["aborted"] > 0 {
		open, end := "", ""
		if color {
			open, end = statusColors[StatusRemoved], colorClose
		}
		fmt.Fprintf(buf, " %saborted.%s", open, end)
	}

	buf.WriteRune('\n')
	return buf.String()
}

// CSVSink writes rows as comma separated values under a header row.
// summary counts follow as rows of kind "summary", with the status in the
// status column & the count in the detail column
type CSVSink struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVSink creates a CSV sink writing to w
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

func (s *CSVSink) header() error {
	if s.wroteHeader {
		return nil
	}
	s.wroteHeader = true
	return s.w.Write(RowHeader)
}

// WriteRow implements the Sink interface
func (s *CSVSink) WriteRow(row Row) error {
	if err := s.header(); err != nil {
		return err
	}
	return s.w.Write(row.Strings())
}

// WriteSummary implements the Sink interface, flushing all output
func (s *CSVSink) WriteSummary(counts map[string]int) error {
	if err := s.header(); err != nil {
		return err
	}
	for _, status := range append(append([]Status{}, Statuses...), "unreadable") {
		row := Row{Kind: "summary", Status: string(status), Detail: strconv.Itoa(counts[string(status)])}
		if err := s.w.Write(row.Strings()); err != nil {
			return err
		}
	}
	if counts["aborted"] > 0 {
		if err := s.w.Write(Row{Kind: "summary", Status: "aborted", Detail: "1"}.Strings()); err != nil {
			return err
		}
	}
	s.w.Flush()
	return s.w.Error()
}

// JSONSink buffers rows & writes a single JSON document when the summary
// arrives:
//
//	{"rows":[["/","group","/","/","same",""]],"summary":{"same":1}}
type JSONSink struct {
	w    io.Writer
	rows [][]string
}

// NewJSONSink creates a JSON sink writing to w
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, rows: [][]string{}}
}

// WriteRow implements the Sink interface
func (s *JSONSink) WriteRow(row Row) error {
	s.rows = append(s.rows, row.Strings())
	return nil
}

// WriteSummary implements the Sink interface
func (s *JSONSink) WriteSummary(counts map[string]int) error {
	enc := json.NewEncoder(s.w)
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Rows    [][]string     `json:"rows"`
		Summary map[string]int `json:"summary"`
	}{s.rows, counts})
}
