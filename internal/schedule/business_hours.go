package schedule

import "time"

const (
	defaultOpenHour  = 8
	defaultCloseHour = 18
)

// BusinessHours is the calling window: Monday to Friday, [OpenHour:00, CloseHour:00)
// in the facility's local time. The zero value is usable and means 08:00-18:00 UTC.
type BusinessHours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// NewBusinessHours returns the default 08:00-18:00 window in the named time zone.
// Unknown or empty zones fall back to UTC.
func NewBusinessHours(timezone string) BusinessHours {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return BusinessHours{Location: loc, OpenHour: defaultOpenHour, CloseHour: defaultCloseHour}
}

func (b BusinessHours) normalized() BusinessHours {
	if b.Location == nil {
		b.Location = time.UTC
	}
	if b.OpenHour == 0 && b.CloseHour == 0 {
		b.OpenHour, b.CloseHour = defaultOpenHour, defaultCloseHour
	}
	return b
}

// IsBusinessHours reports whether now is inside the open window.
// The opening instant is open; the closing instant is closed.
func (b BusinessHours) IsBusinessHours(now time.Time) bool {
	b = b.normalized()
	local := now.In(b.Location)
	if isWeekend(local.Weekday()) {
		return false
	}
	return local.Hour() >= b.OpenHour && local.Hour() < b.CloseHour
}

// NextBusinessDatetime returns the first instant at or after now that is inside
// the open window. Inside the window it returns now unchanged.
func (b BusinessHours) NextBusinessDatetime(now time.Time) time.Time {
	b = b.normalized()
	local := now.In(b.Location)

	switch wd := local.Weekday(); {
	case wd == time.Saturday:
		return b.openingOn(local, 2)
	case wd == time.Sunday:
		return b.openingOn(local, 1)
	case local.Hour() < b.OpenHour:
		return b.openingOn(local, 0)
	case local.Hour() >= b.CloseHour:
		days := 1
		for isWeekend(local.AddDate(0, 0, days).Weekday()) {
			days++
		}
		return b.openingOn(local, days)
	}
	return now
}

// openingOn returns the opening instant plusDays calendar days after local's date.
// time.Date normalizes the day overflow and resolves DST in the location.
func (b BusinessHours) openingOn(local time.Time, plusDays int) time.Time {
	y, m, d := local.Date()
	return time.Date(y, m, d+plusDays, b.OpenHour, 0, 0, 0, b.Location)
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}
