package ncdiff

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the name of the worksheet written by XLSXSink
const XLSXSheet = "ncdiff"

// XLSXSink writes rows to a single sheet Excel workbook laid out like
// CSVSink output: a header row, one row per record, then summary rows. the
// workbook is written to w when the summary arrives
type XLSXSink struct {
	w   io.Writer
	f   *excelize.File
	row int
}

// NewXLSXSink creates an Excel workbook sink writing to w
func NewXLSXSink(w io.Writer) *XLSXSink {
	return &XLSXSink{w: w}
}

func (s *XLSXSink) open() error {
	if s.f != nil {
		return nil
	}
	s.f = excelize.NewFile()
	if err := s.f.SetSheetName(s.f.GetSheetName(0), XLSXSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	return s.append(RowHeader)
}

func (s *XLSXSink) append(values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return s.appendCells(cells)
}

func (s *XLSXSink) appendCells(cells []interface{}) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(XLSXSheet, cell, &cells)
}

// WriteRow implements the Sink interface
func (s *XLSXSink) WriteRow(row Row) error {
	if err := s.open(); err != nil {
		return err
	}
	return s.append(row.Strings())
}

// WriteSummary implements the Sink interface. counts are written as numeric
// cells, then the workbook is saved to the underlying writer
func (s *XLSXSink) WriteSummary(counts map[string]int) error {
	if err := s.open(); err != nil {
		return err
	}
	defer s.f.Close()

	statuses := append(append([]string{}, statusNames()...), "unreadable")
	if counts["aborted"] > 0 {
		statuses = append(statuses, "aborted")
	}
	for _, status := range statuses {
		if err := s.appendCells([]interface{}{"", "summary", "", "", status, counts[status]}); err != nil {
			return err
		}
	}
	return errors.Wrap(s.f.Write(s.w), "writing workbook")
}

func statusNames() []string {
	names := make([]string, len(Statuses))
	for i, st := range Statuses {
		names[i] = string(st)
	}
	return names
}
