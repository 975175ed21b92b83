package event

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/scheduleshare/event-manager/internal/errdef"
	"github.com/scheduleshare/event-manager/pkg/model"
)

// validateWindow enforces that the event window is non-empty.
func validateWindow(start, end time.Time) error {
	if !end.After(start) {
		return errdef.NewBadRequest("end_time must be after start_time")
	}
	return nil
}

// validateRecurrence enforces the pattern/rule pairing: a custom pattern requires a rule
// carrying a parseable RFC 5545 RRULE, every other pattern forbids a rule.
func validateRecurrence(pattern model.RecurrencePattern, rule model.RecurrenceRule) error {
	if pattern == "" {
		pattern = model.RecurrenceNone
	}

	switch pattern {
	case model.RecurrenceNone, model.RecurrenceDaily, model.RecurrenceWeekly, model.RecurrenceMonthly, model.RecurrenceYearly:
		if rule != nil {
			return errdef.NewBadRequest("recurrence_rule should only be provided when recurrence_pattern is custom")
		}
		return nil
	case model.RecurrenceCustom:
		if rule == nil {
			return errdef.NewBadRequest("recurrence_rule must be provided when recurrence_pattern is custom")
		}

		rruleString, ok := rule.RRule()
		if !ok {
			return errdef.NewBadRequest("recurrence_rule must carry an \"rrule\" string")
		}
		if _, err := rrule.StrToRRule(rruleString); err != nil {
			return errdef.NewBadRequest("invalid recurrence rule %q: %v", rruleString, err)
		}
		return nil
	default:
		return errdef.NewBadRequest("unknown recurrence pattern %q", pattern)
	}
}
