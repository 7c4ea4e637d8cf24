// models/risk.go
package models

import (
	"time"
)

// Risk categories
var RiskCategories = map[string]string{
	"operational":  "Operational",
	"financial":    "Financial",
	"compliance":   "Compliance",
	"strategic":    "Strategic",
	"reputational": "Reputational",
}

// Risk statuses. No transition graph is enforced: any status may be set
// directly by an authorized actor.
var RiskStatuses = map[string]string{
	"identified": "Identified",
	"assessed":   "Assessed",
	"mitigating": "Mitigating",
	"closed":     "Closed",
}

// Risk level thresholds: score >= 15 is high, >= 8 is medium, below is low.
const (
	HighRiskThreshold   = 15
	MediumRiskThreshold = 8
)

type Risk struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Likelihood        int        `json:"likelihood"`
	Impact            int        `json:"impact"`
	RiskScore         float64    `json:"risk_score"`
	Status            string     `json:"status"`
	OwnerID           int64      `json:"owner_id"`
	Department        string     `json:"department,omitempty"`
	IdentifiedDate    time.Time  `json:"identified_date"`
	TargetClosureDate *time.Time `json:"target_closure_date,omitempty"`
	ActualClosureDate *time.Time `json:"actual_closure_date,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	DeletedAt         *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Score computes the raw risk score from likelihood and impact. The 1-5
// range is enforced by the caller.
func Score(likelihood, impact int) float64 {
	return float64(likelihood * impact)
}

// LevelForScore buckets a risk score into low/medium/high.
func LevelForScore(score float64) string {
	switch {
	case score >= HighRiskThreshold:
		return "high"
	case score >= MediumRiskThreshold:
		return "medium"
	default:
		return "low"
	}
}

// CalculateRiskScore recomputes the derived score. Called immediately
// before every persist; the score is never independently settable.
func (r *Risk) CalculateRiskScore() {
	r.RiskScore = Score(r.Likelihood, r.Impact)
}

func (r *Risk) RiskLevel() string {
	return LevelForScore(r.RiskScore)
}

func (r *Risk) IsHighRisk() bool {
	return r.RiskScore >= HighRiskThreshold
}

// IsOpen reports whether the risk is in any non-closed status.
func (r *Risk) IsOpen() bool {
	return r.Status != "closed"
}

func ValidRiskCategory(category string) bool {
	_, ok := RiskCategories[category]
	return ok
}

func ValidRiskStatus(status string) bool {
	_, ok := RiskStatuses[status]
	return ok
}

// ValidRating reports whether a likelihood or impact value is in range.
func ValidRating(v int) bool {
	return v >= 1 && v <= 5
}
