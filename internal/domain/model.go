package domain

import (
	"fmt"
	"time"
)

// User is an employee profile. The UID is the identity provider's id and the
// document id in the users collection.
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	// RoleKnown is false when the stored role value was missing or not
	// one of the recognized values.
	RoleKnown bool `json:"-"`
	IsActive  bool `json:"isActive"`
}

// ShiftType is a catalog entry describing a kind of shift.
type ShiftType struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Color          string   `json:"color"`
	HoursValue     *float64 `json:"hoursValue,omitempty"`
	StartTime      string   `json:"startTime,omitempty"`
	EndTime        string   `json:"endTime,omitempty"`
	ActiveWeekdays []string `json:"activeWeekdays,omitempty"`
}

// Vehicle is a fleet catalog entry.
type Vehicle struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Plate string `json:"plate"`
}

// Assignment source values.
const (
	SourceAuto   = "auto"
	SourceManual = "manual"
)

// Assignment is one employee's shift on one calendar day. An empty
// ShiftTypeID means the cell is unassigned.
type Assignment struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	Date        string    `json:"date"`
	ShiftTypeID string    `json:"shiftTypeId,omitempty"`
	VehicleID   string    `json:"vehicleId,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AssignmentID is the composite document id for the (uid, date) cell.
func AssignmentID(uid, date string) string {
	return fmt.Sprintf("%s_%s", uid, date)
}

// CellKey identifies one cell of the planning grid.
type CellKey struct {
	UID  string
	Date string
}

func (a Assignment) Key() CellKey {
	return CellKey{UID: a.UID, Date: a.Date}
}

// Duty shift labels used by the duty and vacation list.
const (
	DutyEarly = "Früh"
	DutyLate  = "Spät"
	DutyNight = "Nacht"
)

// DutyShifts lists the duty shift labels in display order.
var DutyShifts = []string{DutyEarly, DutyLate, DutyNight}

// DutyEntry is a free-form duty or vacation note for one employee on one
// day. Employee is a name as typed, not a profile reference.
type DutyEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Employee  string    `json:"employee"`
	Shift     string    `json:"shift"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}
