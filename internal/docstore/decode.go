package docstore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kt-primus/einsatzplanung/internal/domain"
)

// DefaultShiftColor is used for shift types stored without a color.
const DefaultShiftColor = "#2196f3"

var weekdayOrder = []string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

// DecodeUser normalizes a users document. Legacy profiles use name and
// active; a missing active flag means active.
func DecodeUser(id string, data map[string]any) domain.User {
	u := domain.User{
		UID:         firstString(data, "uid"),
		DisplayName: firstString(data, "displayName", "name"),
		Email:       strings.TrimSpace(firstString(data, "email")),
		IsActive:    true,
	}
	if u.UID == "" {
		u.UID = id
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Email
	}
	if role, ok := ParseStoredRole(data["role"]); ok {
		u.Role, u.RoleKnown = role, true
	}
	for _, key := range []string{"isActive", "active"} {
		if v, ok := data[key].(bool); ok {
			u.IsActive = v
			break
		}
	}
	return u
}

// ParseStoredRole accepts only string values; anything else is unknown.
func ParseStoredRole(v any) (domain.Role, bool) {
	s, ok := v.(string)
	if !ok {
		return domain.RoleNone, false
	}
	return domain.ParseRole(s)
}

// EncodeUserUpdate maps an update onto canonical field names.
func EncodeUserUpdate(upd UserUpdate) map[string]any {
	out := map[string]any{}
	if upd.DisplayName != nil {
		out["displayName"] = *upd.DisplayName
	}
	if upd.Role != nil {
		out["role"] = upd.Role.String()
	}
	if upd.IsActive != nil {
		out["isActive"] = *upd.IsActive
	}
	return out
}

// DecodeShiftType normalizes a shiftTypes document. German field names from
// the configuration page decode into the same type.
func DecodeShiftType(id string, data map[string]any) domain.ShiftType {
	st := domain.ShiftType{
		ID:        id,
		Code:      firstString(data, "code", "kuerzel"),
		Name:      firstString(data, "name"),
		Color:     firstString(data, "color", "farbe"),
		StartTime: firstString(data, "startTime", "von"),
		EndTime:   firstString(data, "endTime", "bis"),
	}
	if st.Color == "" {
		st.Color = DefaultShiftColor
	}
	if st.Code == "" {
		st.Code = st.Name
	}
	for _, key := range []string{"hoursValue", "stundenwert"} {
		if h, ok := toFloat(data[key]); ok {
			st.HoursValue = &h
			break
		}
	}
	for _, key := range []string{"activeWeekdays", "wochentage"} {
		if days := decodeWeekdays(data[key]); len(days) > 0 {
			st.ActiveWeekdays = days
			break
		}
	}
	return st
}

// EncodeShiftType writes canonical field names only.
func EncodeShiftType(st domain.ShiftType) map[string]any {
	out := map[string]any{
		"code":  st.Code,
		"name":  st.Name,
		"color": st.Color,
	}
	if st.HoursValue != nil {
		out["hoursValue"] = *st.HoursValue
	}
	if st.StartTime != "" {
		out["startTime"] = st.StartTime
	}
	if st.EndTime != "" {
		out["endTime"] = st.EndTime
	}
	if len(st.ActiveWeekdays) > 0 {
		out["activeWeekdays"] = st.ActiveWeekdays
	}
	return out
}

func DecodeVehicle(id string, data map[string]any) domain.Vehicle {
	return domain.Vehicle{
		ID:    id,
		Name:  firstString(data, "name"),
		Plate: firstString(data, "plate", "kennzeichen"),
	}
}

func EncodeVehicle(v domain.Vehicle) map[string]any {
	return map[string]any{"name": v.Name, "plate": v.Plate}
}

// DecodeAssignment normalizes an assignments document. A null or missing
// shiftTypeId is an unassigned cell; an unknown source is treated as auto.
func DecodeAssignment(id string, data map[string]any) domain.Assignment {
	a := domain.Assignment{
		ID:          id,
		UID:         firstString(data, "uid"),
		Date:        firstString(data, "date"),
		ShiftTypeID: firstString(data, "shiftTypeId"),
		VehicleID:   firstString(data, "vehicleId"),
		Source:      domain.SourceAuto,
		CreatedAt:   toTime(data["createdAt"]),
		UpdatedAt:   toTime(data["updatedAt"]),
	}
	if src := firstString(data, "source"); src == domain.SourceManual {
		a.Source = domain.SourceManual
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	return a
}

// DecodeDutyEntry normalizes a dienst document. A missing or unknown shift
// reads as Früh and a null createdBy as empty.
func DecodeDutyEntry(id string, data map[string]any) domain.DutyEntry {
	e := domain.DutyEntry{
		ID:        id,
		Date:      firstString(data, "date"),
		Employee:  firstString(data, "employee"),
		Shift:     domain.DutyEarly,
		Notes:     firstString(data, "notes"),
		CreatedAt: toTime(data["createdAt"]),
		CreatedBy: firstString(data, "createdBy"),
	}
	if shift := firstString(data, "shift"); ValidDutyShift(shift) {
		e.Shift = shift
	}
	return e
}

// EncodeDutyEntry writes the editable fields. The creation fields are set
// once by the store.
func EncodeDutyEntry(e domain.DutyEntry) map[string]any {
	return map[string]any{
		"date":     e.Date,
		"employee": e.Employee,
		"shift":    e.Shift,
		"notes":    e.Notes,
	}
}

// ValidDutyShift reports whether s is one of the duty shift labels.
func ValidDutyShift(s string) bool {
	for _, d := range domain.DutyShifts {
		if d == s {
			return true
		}
	}
	return false
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case fmt.Stringer:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", "."), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t != nil {
			return t.UTC()
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// decodeWeekdays accepts a list of labels or a {"Mo": true, ...} map and
// returns labels in calendar order.
func decodeWeekdays(v any) []string {
	set := map[string]bool{}
	switch days := v.(type) {
	case []any:
		for _, d := range days {
			if s, ok := d.(string); ok {
				set[strings.TrimSpace(s)] = true
			}
		}
	case []string:
		for _, s := range days {
			set[strings.TrimSpace(s)] = true
		}
	case map[string]any:
		for k, on := range days {
			if b, ok := on.(bool); ok && b {
				set[k] = true
			}
		}
	}
	var out []string
	for _, d := range weekdayOrder {
		if set[d] {
			out = append(out, d)
		}
	}
	return out
}

// ValidWeekday reports whether s is one of Mo..So.
func ValidWeekday(s string) bool {
	for _, d := range weekdayOrder {
		if d == s {
			return true
		}
	}
	return false
}
