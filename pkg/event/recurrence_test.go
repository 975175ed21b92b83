package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheduleshare/event-manager/internal/errdef"
	"github.com/scheduleshare/event-manager/pkg/model"
)

func TestValidateWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, validateWindow(start, start.Add(time.Hour)))

	err := validateWindow(start, start)
	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))

	err = validateWindow(start, start.Add(-time.Hour))
	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
}

func TestValidateRecurrence_SimplePatterns(t *testing.T) {
	patterns := []model.RecurrencePattern{
		"",
		model.RecurrenceNone,
		model.RecurrenceDaily,
		model.RecurrenceWeekly,
		model.RecurrenceMonthly,
		model.RecurrenceYearly,
	}

	for _, pattern := range patterns {
		assert.NoError(t, validateRecurrence(pattern, nil), "pattern %q", pattern)
	}
}

func TestValidateRecurrence_RuleForbiddenOutsideCustom(t *testing.T) {
	rule := model.RecurrenceRule{"rrule": "FREQ=DAILY"}

	err := validateRecurrence(model.RecurrenceWeekly, rule)

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
	assert.ErrorContains(t, err, "recurrence_rule should only be provided when recurrence_pattern is custom")
}

func TestValidateRecurrence_CustomRequiresRule(t *testing.T) {
	err := validateRecurrence(model.RecurrenceCustom, nil)

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
	assert.ErrorContains(t, err, "recurrence_rule must be provided when recurrence_pattern is custom")
}

func TestValidateRecurrence_CustomRuleMustCarryRRule(t *testing.T) {
	err := validateRecurrence(model.RecurrenceCustom, model.RecurrenceRule{"frequency": "weekly"})

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
}

func TestValidateRecurrence_CustomRuleMustParse(t *testing.T) {
	err := validateRecurrence(model.RecurrenceCustom, model.RecurrenceRule{"rrule": "FREQ=SOMETIMES"})

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
}

func TestValidateRecurrence_ValidCustomRule(t *testing.T) {
	rule := model.RecurrenceRule{"rrule": "FREQ=WEEKLY;BYDAY=MO,WE,FR"}

	assert.NoError(t, validateRecurrence(model.RecurrenceCustom, rule))
}

func TestValidateRecurrence_UnknownPattern(t *testing.T) {
	err := validateRecurrence("fortnightly", nil)

	require.Error(t, err)
	assert.True(t, errdef.IsBadRequest(err))
}
