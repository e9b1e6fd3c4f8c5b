package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kt-primus/einsatzplanung/internal/planning"
)

const sheetName = "Dienstplan"

// XLSXRenderer writes the grid as a spreadsheet with one colored cell per
// assignment.
type XLSXRenderer struct{}

var _ Renderer = XLSXRenderer{}

func (XLSXRenderer) Format() string { return "xlsx" }

func (XLSXRenderer) Render(ctx context.Context, v *planning.View) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &sheetWriter{f: f, styles: map[string]int{}}
	w.set(1, 1, v.Title)
	w.set(1, 2, "KW")
	w.set(1, 3, "Tag")
	w.set(1, 4, "Mitarbeiter")
	for i, d := range v.Days {
		col := i + 2
		if d.ShowWeek {
			w.set(col, 2, d.ISOWeek)
		}
		w.set(col, 3, d.Day)
		w.set(col, 4, d.Weekday)
	}

	row := 5
	for _, r := range v.Rows {
		w.set(1, row, r.Employee.DisplayName)
		for i, c := range r.Cells {
			w.set(i+2, row, c.Code)
			w.fill(i+2, row, c.Color)
		}
		row++
	}
	w.set(1, row, "Besetzung")
	for i, n := range v.Footer {
		w.set(i+2, row, n)
	}

	row += 2
	for _, st := range v.ShiftTypes {
		w.set(1, row, st.Name)
		w.set(2, row, st.Code)
		w.fill(2, row, st.Color)
		row++
	}
	if w.err != nil {
		return nil, w.err
	}

	if err := f.SetColWidth(sheetName, "A", "A", 24); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if last, err := excelize.ColumnNumberToName(len(v.Days) + 1); err == nil {
		if err := f.SetColWidth(sheetName, "B", last, 5); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      4,
		TopLeftCell: "B5",
		ActivePane:  "bottomRight",
	}); err != nil {
		return nil, fmt.Errorf("freeze panes: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return &Artifact{
		FileName:    FileName(v.Year, v.Month, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f      *excelize.File
	styles map[string]int
	err    error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(sheetName, cell, value); err != nil {
		w.err = fmt.Errorf("set %s: %w", cell, err)
	}
}

func (w *sheetWriter) fill(col, row int, hex string) {
	if w.err != nil || hex == "" {
		return
	}
	c := parseColor(hex)
	hex = fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	style, ok := w.styles[hex]
	if !ok {
		id, err := w.f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{hex}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			w.err = fmt.Errorf("style %s: %w", hex, err)
			return
		}
		style = id
		w.styles[hex] = id
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheetName, cell, cell, style); err != nil {
		w.err = fmt.Errorf("apply style %s: %w", cell, err)
	}
}
