package planning

import (
	"github.com/kt-primus/einsatzplanung/internal/domain"
)

const (
	Placeholder     = "·"
	NeutralColor    = "#ffffff"
	WeekendColor    = "#e2e8f0"
	UnknownCodeMark = "?"
)

// Employee is the row header of the grid.
type Employee struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

type Cell struct {
	Date         string `json:"date"`
	AssignmentID string `json:"assignmentId,omitempty"`
	ShiftTypeID  string `json:"shiftTypeId,omitempty"`
	Code         string `json:"code"`
	Color        string `json:"color"`
	Assigned     bool   `json:"assigned"`
}

type Row struct {
	Employee Employee `json:"employee"`
	Cells    []Cell   `json:"cells"`
}

// View is one rendered month: a row per active employee and a column per
// day, plus the per-day headcount of working shifts.
type View struct {
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Title      string             `json:"title"`
	Days       []Day              `json:"days"`
	ShiftTypes []domain.ShiftType `json:"shiftTypes"`
	Rows       []Row              `json:"rows"`
	Footer     []int              `json:"footer"`
	Editable   bool               `json:"editable"`
}

// Index maps a cell to its assignment.
type Index map[domain.CellKey]domain.Assignment

// BuildIndex keys assignments by cell. Cells with several documents, left
// over from writers that generated random ids, resolve to the most recently
// updated one; ties go to the composite id.
func BuildIndex(assignments []domain.Assignment) Index {
	idx := make(Index, len(assignments))
	for _, a := range assignments {
		cur, ok := idx[a.Key()]
		if !ok || newer(a, cur) {
			idx[a.Key()] = a
		}
	}
	return idx
}

func newer(a, b domain.Assignment) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	composite := domain.AssignmentID(a.UID, a.Date)
	if (a.ID == composite) != (b.ID == composite) {
		return a.ID == composite
	}
	return a.ID > b.ID
}

// Lookup returns the assignment of a cell.
func (idx Index) Lookup(uid, date string) (domain.Assignment, bool) {
	a, ok := idx[domain.CellKey{UID: uid, Date: date}]
	return a, ok
}

// Build renders a month. employees must already be filtered and ordered;
// inactive entries are skipped regardless.
func Build(year, month int, employees []domain.User, shiftTypes []domain.ShiftType, assignments []domain.Assignment) (*View, error) {
	days, err := Days(year, month)
	if err != nil {
		return nil, err
	}

	types := make(map[string]domain.ShiftType, len(shiftTypes))
	for _, st := range shiftTypes {
		types[st.ID] = st
	}
	idx := BuildIndex(assignments)

	v := &View{
		Year:       year,
		Month:      month,
		Title:      MonthTitle(year, month),
		Days:       days,
		ShiftTypes: shiftTypes,
		Rows:       make([]Row, 0, len(employees)),
		Footer:     make([]int, len(days)),
	}

	for _, e := range employees {
		if !e.IsActive {
			continue
		}
		row := Row{
			Employee: Employee{UID: e.UID, DisplayName: e.DisplayName},
			Cells:    make([]Cell, len(days)),
		}
		for i, d := range days {
			cell := emptyCell(d)
			if a, ok := idx.Lookup(e.UID, d.Date); ok && a.ShiftTypeID != "" {
				cell.AssignmentID = a.ID
				cell.ShiftTypeID = a.ShiftTypeID
				cell.Assigned = true
				if st, known := types[a.ShiftTypeID]; known {
					cell.Code, cell.Color = st.Code, st.Color
					if IsWorking(st.ID) {
						v.Footer[i]++
					}
				} else {
					cell.Code = UnknownCodeMark
				}
			}
			row.Cells[i] = cell
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}

func emptyCell(d Day) Cell {
	c := Cell{Date: d.Date, Code: Placeholder, Color: NeutralColor}
	if d.Weekend {
		c.Color = WeekendColor
	}
	return c
}
