package event

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/scheduleshare/event-manager/pkg/model"
)

// buildCalendar renders the events as an iCalendar document. Recurring events carry an
// RRULE derived from their pattern; custom patterns contribute their stored rule as-is.
func buildCalendar(events []model.Event) *ics.Calendar {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId("-//scheduleshare//event-manager//EN")

	for i := range events {
		e := &events[i]

		entry := calendar.AddEvent(fmt.Sprintf("event-%d@scheduleshare", e.ID))
		entry.SetCreatedTime(e.CreatedAt)
		entry.SetModifiedAt(e.UpdatedAt)
		entry.SetDtStampTime(time.Now())
		entry.SetStartAt(e.StartTime)
		entry.SetEndAt(e.EndTime)
		entry.SetSummary(e.Title)
		if e.Description != "" {
			entry.SetDescription(e.Description)
		}
		if e.Location != "" {
			entry.SetLocation(e.Location)
		}
		if rule, ok := exportRRule(e); ok {
			entry.AddRrule(rule)
		}
	}

	return calendar
}

func exportRRule(e *model.Event) (string, bool) {
	if !e.IsRecurring {
		return "", false
	}

	switch e.RecurrencePattern {
	case model.RecurrenceDaily:
		return "FREQ=DAILY", true
	case model.RecurrenceWeekly:
		return "FREQ=WEEKLY", true
	case model.RecurrenceMonthly:
		return "FREQ=MONTHLY", true
	case model.RecurrenceYearly:
		return "FREQ=YEARLY", true
	case model.RecurrenceCustom:
		return e.RecurrenceRule.RRule()
	default:
		return "", false
	}
}
