// Package export renders the currently filtered record view as CSV or an
// XLSX workbook.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaitoS828/sappuri-CSVcenter/internal/record"
)

// Headers is the export column order. Provenance fields are never exported.
var Headers = []string{
	"Card No",
	"Name",
	"Furigana",
	"Gender",
	"DOB Year",
	"DOB Month",
	"DOB Day",
	"Postal Code",
	"Address",
	"Phone",
	"Occupation",
}

// SheetName names the single workbook sheet after the record type.
const SheetName = "Applications"

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// CSV renders the given view with every field double-quote-wrapped,
// including empty ones. Embedded quotes are doubled.
func (s *Service) CSV(records []record.Record) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(Headers, ","))
	b.WriteString("\n")
	for _, r := range records {
		cells := rowValues(r)
		quoted := make([]string, len(cells))
		for i, c := range cells {
			quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		b.WriteString(strings.Join(quoted, ","))
		b.WriteString("\n")
	}
	s.logger.Info("export.csv.ok", "rows", len(records), "bytes", b.Len())
	return []byte(b.String())
}

// XLSX returns a workbook with one sheet holding the view.
func (s *Service) XLSX(records []record.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(SheetName); index == -1 {
		if _, err := f.NewSheet(SheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetName)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, r := range records {
		for col, v := range rowValues(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		row++
	}

	// Widen the free-text columns
	_ = f.SetColWidth(SheetName, "A", "A", 12) // card no
	_ = f.SetColWidth(SheetName, "B", "C", 20) // name, furigana
	_ = f.SetColWidth(SheetName, "I", "I", 48) // address
	_ = f.SetColWidth(SheetName, "J", "K", 18) // phone, occupation

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func rowValues(r record.Record) []string {
	return []string{
		r.CardNumber,
		r.Name,
		r.Furigana,
		r.Gender,
		r.DOBYear,
		r.DOBMonth,
		r.DOBDay,
		r.PostalCode,
		r.Address,
		r.Phone,
		r.Occupation,
	}
}
