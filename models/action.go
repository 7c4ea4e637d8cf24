package models

import (
	"time"
)

// Action statuses
var ActionStatuses = map[string]string{
	"planned":     "Planned",
	"in_progress": "In Progress",
	"completed":   "Completed",
	"cancelled":   "Cancelled",
}

// Priority levels, 1 = highest
var ActionPriorities = map[int]string{
	1: "Critical",
	2: "High",
	3: "Medium",
	4: "Low",
	5: "Very Low",
}

type MitigationAction struct {
	ID            int64      `json:"id"`
	RiskID        int64      `json:"risk_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	AssignedTo    int64      `json:"assigned_to"`
	DueDate       time.Time  `json:"due_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Priority      int        `json:"priority,omitempty"`
	CostEstimate  *float64   `json:"cost_estimate,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	DeletedAt     *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsOverdue reports whether the action's due date has passed while it is
// still open. Completed and cancelled actions are never overdue.
func (a *MitigationAction) IsOverdue(now time.Time) bool {
	if a.Status == "completed" || a.Status == "cancelled" {
		return false
	}
	return a.DueDate.Before(startOfDay(now))
}

// PriorityLabel maps the 1-5 priority to its display label, "Unknown"
// outside the range.
func (a *MitigationAction) PriorityLabel() string {
	if label, ok := ActionPriorities[a.Priority]; ok {
		return label
	}
	return "Unknown"
}

// DaysUntilDue is negative once the due date has passed.
func (a *MitigationAction) DaysUntilDue(now time.Time) int {
	return int(a.DueDate.Sub(startOfDay(now)).Hours() / 24)
}

func ValidActionStatus(status string) bool {
	_, ok := ActionStatuses[status]
	return ok
}

// startOfDay normalizes to a UTC midnight so comparisons against the
// stored UTC due dates hold whatever zone the clock reports in.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
