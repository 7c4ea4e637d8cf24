package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func TestCalculateRiskScores(t *testing.T) {
	a := &RiskAssessment{
		LikelihoodBefore: intp(4),
		ImpactBefore:     intp(5),
		LikelihoodAfter:  2,
		ImpactAfter:      5,
	}
	a.CalculateRiskScores()
	assert.NotNil(t, a.RiskScoreBefore)
	assert.Equal(t, 20.0, *a.RiskScoreBefore)
	assert.Equal(t, 10.0, a.RiskScoreAfter)
}

func TestCalculateRiskScoresWithoutBaseline(t *testing.T) {
	a := &RiskAssessment{LikelihoodAfter: 3, ImpactAfter: 3}
	a.CalculateRiskScores()
	assert.Nil(t, a.RiskScoreBefore)
	assert.Equal(t, 9.0, a.RiskScoreAfter)

	// one of the two before values is not enough
	a = &RiskAssessment{LikelihoodBefore: intp(4), LikelihoodAfter: 3, ImpactAfter: 3}
	a.CalculateRiskScores()
	assert.Nil(t, a.RiskScoreBefore)
}

func TestRiskImprovement(t *testing.T) {
	before := 20.0
	a := &RiskAssessment{RiskScoreBefore: &before, RiskScoreAfter: 10}
	improvement := a.RiskImprovement()
	assert.NotNil(t, improvement)
	assert.Equal(t, 10.0, *improvement)

	assert.Nil(t, (&RiskAssessment{RiskScoreAfter: 10}).RiskImprovement())
}

func TestImprovementPercentage(t *testing.T) {
	before := 20.0
	a := &RiskAssessment{RiskScoreBefore: &before, RiskScoreAfter: 10}
	pct := a.ImprovementPercentage()
	assert.NotNil(t, pct)
	assert.Equal(t, 50.0, *pct)

	// no baseline
	assert.Nil(t, (&RiskAssessment{RiskScoreAfter: 10}).ImprovementPercentage())

	// zero baseline must not divide
	zero := 0.0
	assert.Nil(t, (&RiskAssessment{RiskScoreBefore: &zero, RiskScoreAfter: 10}).ImprovementPercentage())
}

func TestImprovementPctRounding(t *testing.T) {
	assert.Equal(t, 50.0, ImprovementPct(20, 10))
	assert.Equal(t, 33.33, ImprovementPct(12, 8))
	assert.Equal(t, -25.0, ImprovementPct(16, 20))
}
