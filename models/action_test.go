package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var actionNow = time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)

func TestIsOverdue(t *testing.T) {
	yesterday := actionNow.AddDate(0, 0, -1)
	tomorrow := actionNow.AddDate(0, 0, 1)

	a := &MitigationAction{Status: "in_progress", DueDate: yesterday}
	assert.True(t, a.IsOverdue(actionNow))

	a.DueDate = tomorrow
	assert.False(t, a.IsOverdue(actionNow))

	// due today is not overdue yet
	a.DueDate = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.False(t, a.IsOverdue(actionNow))

	// terminal statuses are never overdue
	for _, status := range []string{"completed", "cancelled"} {
		a := &MitigationAction{Status: status, DueDate: yesterday}
		assert.False(t, a.IsOverdue(actionNow), status)
	}
}

func TestOverdueUsesUTCDayBoundary(t *testing.T) {
	// due dates are stored as UTC midnights; a clock reporting in
	// another zone must compare against the same boundary
	a := &MitigationAction{
		Status:  "planned",
		DueDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
	eastern := time.FixedZone("UTC-5", -5*3600)
	localEvening := time.Date(2026, 8, 31, 20, 0, 0, 0, eastern)

	assert.False(t, a.IsOverdue(localEvening), "still due today, not overdue")
	assert.Equal(t, 0, a.DaysUntilDue(localEvening))
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "Critical", (&MitigationAction{Priority: 1}).PriorityLabel())
	assert.Equal(t, "Very Low", (&MitigationAction{Priority: 5}).PriorityLabel())
	assert.Equal(t, "Unknown", (&MitigationAction{Priority: 0}).PriorityLabel())
	assert.Equal(t, "Unknown", (&MitigationAction{Priority: 9}).PriorityLabel())
}

func TestDaysUntilDue(t *testing.T) {
	a := &MitigationAction{DueDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 5, a.DaysUntilDue(actionNow))

	a.DueDate = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -3, a.DaysUntilDue(actionNow))
}
