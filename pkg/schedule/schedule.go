// Package schedule models a café's weekly opening hours and the rules
// evaluated against them.
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/delatte-backend/pkg/textnorm"
)

// Day is the canonical lower-case English key for a day of the week.
type Day string

const (
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
)

// Days is indexed by time.Weekday.
var Days = [7]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayAliases = map[string]Day{
	"sunday":    Sunday,
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"domingo":   Sunday,
	"lunes":     Monday,
	"martes":    Tuesday,
	"miercoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
	"sabado":    Saturday,
}

// DayOf maps a weekday onto its schedule key.
func DayOf(w time.Weekday) Day {
	return Days[int(w)%7]
}

// ParseDay accepts English or Spanish day names, with or without accents.
func ParseDay(raw string) (Day, error) {
	key := textnorm.Normalize(strings.TrimSpace(raw))
	if day, ok := dayAliases[key]; ok {
		return day, nil
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// DayHours is one entry of the weekly schedule. Times are 24h "HH:MM".
type DayHours struct {
	Open     *string `json:"open"`
	Close    *string `json:"close"`
	IsClosed bool    `json:"is_closed"`
}

func (d *DayHours) UnmarshalJSON(data []byte) error {
	var raw struct {
		Open        *string `json:"open"`
		Close       *string `json:"close"`
		IsClosed    *bool   `json:"is_closed"`
		IsClosedAlt *bool   `json:"isClosed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DayHours{Open: blankToNil(raw.Open), Close: blankToNil(raw.Close)}
	switch {
	case raw.IsClosed != nil:
		d.IsClosed = *raw.IsClosed
	case raw.IsClosedAlt != nil:
		d.IsClosed = *raw.IsClosedAlt
	}
	if d.IsClosed {
		d.Open, d.Close = nil, nil
	}
	return nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// WeeklySchedule holds at most one entry per day. Missing days count as closed.
type WeeklySchedule map[Day]DayHours

func (s *WeeklySchedule) UnmarshalJSON(data []byte) error {
	var raw map[string]DayHours
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(WeeklySchedule, len(raw))
	for key, hours := range raw {
		day, err := ParseDay(key)
		if err != nil {
			return err
		}
		out[day] = hours
	}
	*s = out
	return nil
}

// Value stores the schedule as JSON.
func (s WeeklySchedule) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(map[Day]DayHours(s))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes the JSON column.
func (s *WeeklySchedule) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("schedule: unsupported scan type %T", value)
	}
	return s.UnmarshalJSON(raw)
}

// Minutes converts "HH:MM" into minutes since midnight.
func Minutes(clock string) (int, bool) {
	if !clockPattern.MatchString(clock) {
		return 0, false
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func (d DayHours) window() (from, until int, ok bool) {
	if d.IsClosed || d.Open == nil || d.Close == nil {
		return 0, 0, false
	}
	from, okOpen := Minutes(*d.Open)
	until, okClose := Minutes(*d.Close)
	if !okOpen || !okClose {
		return 0, 0, false
	}
	return from, until, true
}
