package schedule

import (
	"fmt"
	"regexp"

	"go.uber.org/multierr"
)

var clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// FieldError describes one malformed entry of a schedule.
type FieldError struct {
	Day   Day
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid HH:MM format for %s (%s): %q", e.Day, e.Field, e.Value)
}

// Key identifies the offending field, e.g. "monday.open".
func (e *FieldError) Key() string {
	return fmt.Sprintf("%s.%s", e.Day, e.Field)
}

// Validate checks every provided time against 24h HH:MM. All offending fields
// are reported together; use multierr.Errors to inspect them.
func (s WeeklySchedule) Validate() error {
	var err error
	for _, day := range Days {
		hours, ok := s[day]
		if !ok {
			continue
		}
		if hours.Open != nil {
			if _, valid := Minutes(*hours.Open); !valid {
				err = multierr.Append(err, &FieldError{Day: day, Field: "open", Value: *hours.Open})
			}
		}
		if hours.Close != nil {
			if _, valid := Minutes(*hours.Close); !valid {
				err = multierr.Append(err, &FieldError{Day: day, Field: "close", Value: *hours.Close})
			}
		}
	}
	return err
}

// Details flattens a Validate error into field -> message pairs.
func Details(err error) map[string]string {
	if err == nil {
		return nil
	}
	out := map[string]string{}
	for _, e := range multierr.Errors(err) {
		if fe, ok := e.(*FieldError); ok {
			out[fe.Key()] = "must be HH:MM"
			continue
		}
		out["schedule"] = e.Error()
	}
	return out
}
