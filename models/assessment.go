package models

import (
	"math"
	"time"
)

// RiskAssessment is a point-in-time re-evaluation of a risk. Saving one
// propagates the "after" likelihood/impact back onto the parent risk.
// Assessments are hard-deleted; there is no tombstone column.
type RiskAssessment struct {
	ID               int64     `json:"id"`
	RiskID           int64     `json:"risk_id"`
	AssessorID       int64     `json:"assessor_id"`
	LikelihoodBefore *int      `json:"likelihood_before,omitempty"`
	ImpactBefore     *int      `json:"impact_before,omitempty"`
	RiskScoreBefore  *float64  `json:"risk_score_before,omitempty"`
	LikelihoodAfter  int       `json:"likelihood_after"`
	ImpactAfter      int       `json:"impact_after"`
	RiskScoreAfter   float64   `json:"risk_score_after"`
	AssessmentNotes  string    `json:"assessment_notes,omitempty"`
	AssessmentDate   time.Time `json:"assessment_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CalculateRiskScores recomputes both derived scores. The "before" score
// is only computed when both before values are present.
func (a *RiskAssessment) CalculateRiskScores() {
	if a.LikelihoodBefore != nil && a.ImpactBefore != nil {
		score := Score(*a.LikelihoodBefore, *a.ImpactBefore)
		a.RiskScoreBefore = &score
	}
	a.RiskScoreAfter = Score(a.LikelihoodAfter, a.ImpactAfter)
}

// RiskImprovement is the absolute score reduction, nil without a baseline.
func (a *RiskAssessment) RiskImprovement() *float64 {
	if a.RiskScoreBefore == nil {
		return nil
	}
	diff := *a.RiskScoreBefore - a.RiskScoreAfter
	return &diff
}

// ImprovementPercentage is the relative score reduction rounded to two
// decimals, nil when there is no baseline or the baseline is zero.
func (a *RiskAssessment) ImprovementPercentage() *float64 {
	if a.RiskScoreBefore == nil || *a.RiskScoreBefore == 0 {
		return nil
	}
	pct := ImprovementPct(*a.RiskScoreBefore, a.RiskScoreAfter)
	return &pct
}

// ImprovementPct returns ((before-after)/before)*100 rounded to 2 decimals.
func ImprovementPct(before, after float64) float64 {
	return math.Round(((before-after)/before)*100*100) / 100
}
