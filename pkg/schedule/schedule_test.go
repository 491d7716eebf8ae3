package schedule

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func hours(open, close string) DayHours {
	return DayHours{Open: &open, Close: &close}
}

// 2024-06-05 is a Wednesday.
func at(day int, clock string) time.Time {
	ts, err := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("2024-06-%02d %s", day, clock), time.UTC)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestIsOpenAtInclusiveBounds(t *testing.T) {
	s := WeeklySchedule{Wednesday: hours("08:00", "22:00")}

	tests := []struct {
		clock string
		want  bool
	}{
		{"15:00", true},
		{"08:00", true},
		{"22:00", true},
		{"07:59", false},
		{"22:01", false},
		{"23:00", false},
	}
	for _, tt := range tests {
		if got := IsOpenAt(s, at(5, tt.clock)); got != tt.want {
			t.Fatalf("IsOpenAt at %s = %v, want %v", tt.clock, got, tt.want)
		}
	}
}

func TestIsOpenAtClosedDayIgnoresTimes(t *testing.T) {
	open, close := "00:00", "23:59"
	s := WeeklySchedule{Wednesday: DayHours{Open: &open, Close: &close, IsClosed: true}}
	for _, clock := range []string{"00:00", "12:00", "23:59"} {
		if IsOpenAt(s, at(5, clock)) {
			t.Fatalf("closed day reported open at %s", clock)
		}
	}
}

func TestIsOpenAtMissingDayIsClosed(t *testing.T) {
	s := WeeklySchedule{Monday: hours("08:00", "22:00")}
	assert.False(t, IsOpenAt(s, at(5, "12:00")))
	assert.False(t, IsOpenAt(nil, at(5, "12:00")))
}

func TestIsOpenAtSpansMidnight(t *testing.T) {
	s := WeeklySchedule{
		Wednesday: hours("20:00", "02:00"),
		Thursday:  hours("10:00", "18:00"),
	}
	assert.True(t, IsOpenAt(s, at(5, "23:30")), "late wednesday")
	assert.False(t, IsOpenAt(s, at(5, "01:00")), "early wednesday belongs to tuesday")
	assert.True(t, IsOpenAt(s, at(6, "01:30")), "thursday morning carries wednesday night")
	assert.True(t, IsOpenAt(s, at(6, "02:00")), "close bound inclusive")
	assert.False(t, IsOpenAt(s, at(6, "02:01")))
	assert.True(t, IsOpenAt(s, at(6, "12:00")))
}

func TestClockUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	s := WeeklySchedule{Wednesday: hours("08:00", "10:00")}
	c := Clock{
		Now:      func() time.Time { return at(5, "12:00") },
		Location: loc,
	}
	assert.True(t, c.IsOpenNow(s), "12:00 UTC is 09:00 at UTC-3")
}

func TestSatisfiesRules(t *testing.T) {
	late := WeeklySchedule{
		Monday: hours("09:00", "18:00"),
		Friday: hours("20:00", "23:30"),
		Sunday: DayHours{IsClosed: true},
	}
	early := WeeklySchedule{Tuesday: hours("07:30", "15:00")}
	daytime := WeeklySchedule{}
	for _, d := range Days {
		daytime[d] = hours("09:00", "18:00")
	}

	assert.True(t, Satisfies(late, RuleOpensAfter20))
	assert.False(t, Satisfies(daytime, RuleOpensAfter20))
	assert.False(t, Satisfies(late, RuleOpensBefore08))
	assert.True(t, Satisfies(early, RuleOpensBefore08))
	assert.True(t, Satisfies(late, RuleClosesAfter22))
	assert.False(t, Satisfies(daytime, RuleClosesAfter22))
}

func TestSatisfiesSkipsClosedDays(t *testing.T) {
	open, close := "21:00", "23:00"
	s := WeeklySchedule{Saturday: DayHours{Open: &open, Close: &close, IsClosed: true}}
	assert.False(t, Satisfies(s, RuleOpensAfter20))
}

func TestPartitionKeepsUngatedItems(t *testing.T) {
	type cat struct {
		name string
		rule Rule
	}
	s := WeeklySchedule{Monday: hours("09:00", "18:00")}
	items := []cat{{"WiFi", ""}, {"Abre hasta tarde", RuleOpensAfter20}, {"Abre temprano", RuleOpensBefore08}}

	kept, rejected := Partition(s, items, func(c cat) Rule { return c.rule })
	require.Len(t, kept, 1)
	assert.Equal(t, "WiFi", kept[0].name)
	require.Len(t, rejected, 2)
}

func TestUnmarshalNormalizesDayKeys(t *testing.T) {
	payload := `{"lunes":{"open":"08:00","close":"18:00","isClosed":false},"Miércoles":{"open":"09:00","close":"17:00"},"sunday":{"open":"10:00","close":"12:00","is_closed":true}}`

	var s WeeklySchedule
	require.NoError(t, json.Unmarshal([]byte(payload), &s))
	require.Contains(t, s, Monday)
	require.Contains(t, s, Wednesday)
	assert.Equal(t, "09:00", *s[Wednesday].Open)
	assert.True(t, s[Sunday].IsClosed)
	assert.Nil(t, s[Sunday].Open, "closed days drop their times")
}

func TestUnmarshalRejectsUnknownDay(t *testing.T) {
	var s WeeklySchedule
	assert.Error(t, json.Unmarshal([]byte(`{"funday":{"open":"08:00"}}`), &s))
}

func TestValueScanRoundTrip(t *testing.T) {
	s := WeeklySchedule{Friday: hours("08:00", "22:00")}
	v, err := s.Value()
	require.NoError(t, err)

	var out WeeklySchedule
	require.NoError(t, out.Scan(v))
	assert.Equal(t, "22:00", *out[Friday].Close)
}

func TestValidateReportsEveryBadField(t *testing.T) {
	s := WeeklySchedule{
		Monday:  hours("8:00", "18:00"),
		Tuesday: hours("08:00", "25:00"),
		Friday:  hours("08:00", "18:00"),
	}
	err := s.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	details := Details(err)
	assert.Contains(t, details, "monday.open")
	assert.Contains(t, details, "tuesday.close")
	assert.NoError(t, WeeklySchedule{Friday: hours("08:00", "18:00")}.Validate())
}

func TestParseRuleAliases(t *testing.T) {
	rule, err := ParseRule("openAfter20")
	require.NoError(t, err)
	assert.Equal(t, RuleOpensAfter20, rule)

	_, err = ParseRule("never")
	assert.Error(t, err)
}
