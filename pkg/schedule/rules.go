package schedule

import (
	"fmt"
	"strings"
)

// Rule names a schedule condition a structural category depends on.
type Rule string

const (
	RuleOpensAfter20  Rule = "opens_after_20"
	RuleOpensBefore08 Rule = "opens_before_08"
	RuleClosesAfter22 Rule = "closes_after_22"
)

const (
	eightPM = 20 * 60
	eightAM = 8 * 60
	tenPM   = 22 * 60
)

var ruleAliases = map[string]Rule{
	"opens_after_20":  RuleOpensAfter20,
	"openafter20":     RuleOpensAfter20,
	"opens_before_08": RuleOpensBefore08,
	"openbefore8":     RuleOpensBefore08,
	"closes_after_22": RuleClosesAfter22,
	"latenight":       RuleClosesAfter22,
}

// ParseRule accepts the canonical names plus the legacy camel-case spellings.
func ParseRule(raw string) (Rule, error) {
	if rule, ok := ruleAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return rule, nil
	}
	return "", fmt.Errorf("unknown schedule rule %q", raw)
}

func (r Rule) String() string {
	return string(r)
}

// Satisfies reports whether at least one open day of s meets rule.
// Days flagged closed or without an opening time never count.
func Satisfies(s WeeklySchedule, rule Rule) bool {
	for _, day := range Days {
		hours, ok := s[day]
		if !ok || hours.IsClosed || hours.Open == nil {
			continue
		}
		open, ok := Minutes(*hours.Open)
		if !ok {
			continue
		}
		switch rule {
		case RuleOpensAfter20:
			if open >= eightPM {
				return true
			}
		case RuleOpensBefore08:
			if open < eightAM {
				return true
			}
		case RuleClosesAfter22:
			if hours.Close == nil {
				continue
			}
			if until, ok := Minutes(*hours.Close); ok && until > tenPM {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// Partition splits items into those whose rule holds for s and those whose
// rule does not. Items with an empty rule are always kept.
func Partition[T any](s WeeklySchedule, items []T, ruleOf func(T) Rule) (kept, rejected []T) {
	for _, item := range items {
		rule := ruleOf(item)
		if rule == "" || Satisfies(s, rule) {
			kept = append(kept, item)
			continue
		}
		rejected = append(rejected, item)
	}
	return kept, rejected
}
