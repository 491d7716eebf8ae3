package schedule

import "time"

// IsOpenAt reports whether the schedule is serving at the wall-clock time of at,
// read in at's own location. Bounds are inclusive at minute resolution.
//
// A day whose close is earlier than its open spans midnight: it is open from
// open until the end of that day, and the previous day's entry keeps the café
// open until its close on the following morning.
func IsOpenAt(s WeeklySchedule, at time.Time) bool {
	if len(s) == 0 {
		return false
	}
	now := at.Hour()*60 + at.Minute()

	if today, ok := s[DayOf(at.Weekday())]; ok {
		if from, until, ok := today.window(); ok {
			if until >= from {
				if from <= now && now <= until {
					return true
				}
			} else if now >= from {
				return true
			}
		}
	}

	yesterday := DayOf((at.Weekday() + 6) % 7)
	if prev, ok := s[yesterday]; ok {
		if from, until, ok := prev.window(); ok && until < from && now <= until {
			return true
		}
	}
	return false
}

// Clock evaluates schedules against a fixed location.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// IsOpenNow evaluates the schedule at the clock's current instant.
func (c Clock) IsOpenNow(s WeeklySchedule) bool {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	at := now()
	if c.Location != nil {
		at = at.In(c.Location)
	}
	return IsOpenAt(s, at)
}
