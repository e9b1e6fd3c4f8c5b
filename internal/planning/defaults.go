package planning

import (
	"sort"

	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// Ids of the seeded catalog entries.
const (
	ShiftEarly    = "early"
	ShiftMid      = "mid"
	ShiftLate     = "late"
	ShiftWishOff  = "WF"
	ShiftVacation = "U"
	ShiftEmpty    = "—"
)

var nonWorking = map[string]bool{
	ShiftWishOff:  true,
	ShiftVacation: true,
	ShiftEmpty:    true,
}

// IsWorking reports whether an assignment of this shift type counts towards
// the daily headcount.
func IsWorking(shiftTypeID string) bool {
	return shiftTypeID != "" && !nonWorking[shiftTypeID]
}

func hours(h float64) *float64 { return &h }

// DefaultShiftTypes is the catalog seeded into an empty store.
func DefaultShiftTypes() []domain.ShiftType {
	return []domain.ShiftType{
		{ID: ShiftEarly, Code: "F", Name: "Früh", Color: "#4caf50", StartTime: "06:00", EndTime: "14:00", HoursValue: hours(8)},
		{ID: ShiftMid, Code: "M", Name: "Mittel", Color: "#ff9800", StartTime: "10:00", EndTime: "18:00", HoursValue: hours(8)},
		{ID: ShiftLate, Code: "S", Name: "Spät", Color: "#2196f3", StartTime: "14:00", EndTime: "22:00", HoursValue: hours(8)},
		{ID: ShiftWishOff, Code: "WF", Name: "Wunschfrei", Color: "#9c27b0"},
		{ID: ShiftVacation, Code: "U", Name: "Urlaub", Color: "#f44336"},
		{ID: ShiftEmpty, Code: "—", Name: "leer", Color: "#bdbdbd"},
	}
}

var defaultOrder = map[string]int{
	ShiftEarly: 0, ShiftMid: 1, ShiftLate: 2, ShiftWishOff: 3, ShiftVacation: 4, ShiftEmpty: 5,
}

// SortShiftTypes orders the seeded entries first, the rest by code.
func SortShiftTypes(types []domain.ShiftType) {
	sort.SliceStable(types, func(i, j int) bool {
		oi, iok := defaultOrder[types[i].ID]
		oj, jok := defaultOrder[types[j].ID]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		case types[i].Code != types[j].Code:
			return types[i].Code < types[j].Code
		default:
			return types[i].ID < types[j].ID
		}
	})
}
