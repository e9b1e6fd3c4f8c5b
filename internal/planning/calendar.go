package planning

import (
	"fmt"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

var weekdayLabels = [...]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"}

var monthNames = [...]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Day is one column of the grid.
type Day struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
	Weekend bool   `json:"weekend"`
	ISOWeek int    `json:"isoWeek"`
	// ShowWeek marks the columns that display the week number: the first
	// column and every Monday.
	ShowWeek bool `json:"showWeek"`
}

func ValidateMonth(year, month int) error {
	if month < 1 || month > 12 || year < 1900 || year > 9999 {
		return fmt.Errorf("%w: %d-%d", ErrInvalidMonth, year, month)
	}
	return nil
}

// ParseMonth validates route parameters.
func ParseMonth(yearParam, monthParam string) (int, int, error) {
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: year %q", ErrInvalidMonth, yearParam)
	}
	month, err := strconv.Atoi(monthParam)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidMonth, monthParam)
	}
	if err := ValidateMonth(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// Days lists the calendar days of the month in UTC.
func Days(year, month int) ([]Day, error) {
	if err := ValidateMonth(year, month); err != nil {
		return nil, err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := make([]Day, 0, 31)
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		wd := d.Weekday()
		days = append(days, Day{
			Date:     d.Format(DateLayout),
			Day:      d.Day(),
			Weekday:  weekdayLabels[wd],
			Weekend:  wd == time.Saturday || wd == time.Sunday,
			ISOWeek:  week,
			ShowWeek: len(days) == 0 || wd == time.Monday,
		})
	}
	return days, nil
}

// MonthRange returns the first and last date of the month, inclusive.
func MonthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout)
}

// MonthKey is the "YYYY-MM" form used for event routing.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// MonthTitle renders e.g. "März 2025".
func MonthTitle(year, month int) string {
	if month < 1 || month > 12 {
		return MonthKey(year, month)
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// InMonth reports whether date is a valid ISO date inside the month.
func InMonth(date string, year, month int) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return t.Year() == year && int(t.Month()) == month
}

// PreviousMonth returns the month before the one containing t.
func PreviousMonth(t time.Time) (int, int) {
	p := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return p.Year(), int(p.Month())
}
