package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskregister/policy"
	"riskregister/store"
)

func intPtr(v int) *int { return &v }

func TestCreateAssessmentSyncsParentRisk(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 4, 5) // score 20

	assessment, err := f.svc.CreateAssessment(ctx, owner, CreateAssessmentInput{
		RiskID:           risk.ID,
		LikelihoodBefore: intPtr(4),
		ImpactBefore:     intPtr(5),
		LikelihoodAfter:  2,
		ImpactAfter:      5,
		AssessmentDate:   f.now,
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, *assessment.RiskScoreBefore)
	assert.Equal(t, 10.0, assessment.RiskScoreAfter)
	assert.Equal(t, owner.ID, assessment.AssessorID)

	improvement := assessment.RiskImprovement()
	require.NotNil(t, improvement)
	assert.Equal(t, 10.0, *improvement)
	pct := assessment.ImprovementPercentage()
	require.NotNil(t, pct)
	assert.Equal(t, 50.0, *pct)

	// the parent now carries the "after" values and recomputed score
	synced, err := f.svc.GetRisk(ctx, owner, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, synced.Likelihood)
	assert.Equal(t, 5, synced.Impact)
	assert.Equal(t, 10.0, synced.RiskScore)
	assert.Equal(t, "medium", synced.RiskLevel())
}

func TestAssessmentSyncEmitsNoNotification(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 1, 2) // low, no notification
	require.Empty(t, f.notified)

	// the sync pushes the risk into high territory, yet stays silent
	_, err := f.svc.CreateAssessment(ctx, owner, CreateAssessmentInput{
		RiskID:          risk.ID,
		LikelihoodAfter: 5,
		ImpactAfter:     5,
		AssessmentDate:  f.now,
	})
	require.NoError(t, err)

	synced, err := f.svc.GetRisk(ctx, owner, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, synced.RiskScore)
	assert.Empty(t, f.notified)
}

func TestCreateAssessmentForbiddenForNonOwner(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	risk := f.createRisk(t, owner, 3, 3)

	_, err := f.svc.CreateAssessment(ctx, other, CreateAssessmentInput{
		RiskID: risk.ID, LikelihoodAfter: 2, ImpactAfter: 2, AssessmentDate: f.now,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateAssessmentValidatesRatings(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 3, 3)

	_, err := f.svc.CreateAssessment(ctx, owner, CreateAssessmentInput{
		RiskID: risk.ID, LikelihoodAfter: 0, ImpactAfter: 3, AssessmentDate: f.now,
	})
	assert.True(t, IsValidation(err))

	_, err = f.svc.CreateAssessment(ctx, owner, CreateAssessmentInput{
		RiskID: risk.ID, LikelihoodBefore: intPtr(7), LikelihoodAfter: 2, ImpactAfter: 3,
		AssessmentDate: f.now,
	})
	assert.True(t, IsValidation(err))
}

func TestUpdateAssessmentRePropagatesAfterValues(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 4, 4)

	assessment, err := f.svc.CreateAssessment(ctx, owner, CreateAssessmentInput{
		RiskID: risk.ID, LikelihoodAfter: 3, ImpactAfter: 3, AssessmentDate: f.now,
	})
	require.NoError(t, err)

	// a notes-only patch leaves the risk untouched
	beforePatch, err := f.svc.GetRisk(ctx, owner, risk.ID)
	require.NoError(t, err)
	notes := "revisited after control rollout"
	_, err = f.svc.UpdateAssessment(ctx, owner, assessment.ID, UpdateAssessmentInput{AssessmentNotes: &notes})
	require.NoError(t, err)
	afterPatch, err := f.svc.GetRisk(ctx, owner, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, beforePatch.RiskScore, afterPatch.RiskScore)

	// touching an "after" value re-propagates
	updated, err := f.svc.UpdateAssessment(ctx, owner, assessment.ID, UpdateAssessmentInput{LikelihoodAfter: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.RiskScoreAfter)

	synced, err := f.svc.GetRisk(ctx, owner, risk.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, synced.Likelihood)
	assert.Equal(t, 3.0, synced.RiskScore)
}

func TestAssessorMayEditAndDelete(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")
	assessor := f.user(t, policy.RoleRiskOwner, "assessor@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	stranger := f.user(t, policy.RoleRiskOwner, "stranger@example.com")
	risk := f.createRisk(t, assessor, 3, 3)

	assessment, err := f.svc.CreateAssessment(ctx, assessor, CreateAssessmentInput{
		RiskID: risk.ID, LikelihoodAfter: 2, ImpactAfter: 2, AssessmentDate: f.now,
	})
	require.NoError(t, err)

	// reassigning the risk demotes the assessor to a bare direct party
	_, err = f.svc.UpdateRisk(ctx, manager, risk.ID, UpdateRiskInput{OwnerID: &other.ID})
	require.NoError(t, err)

	notes := "initial review"
	_, err = f.svc.UpdateAssessment(ctx, assessor, assessment.ID, UpdateAssessmentInput{AssessmentNotes: &notes})
	assert.NoError(t, err)

	err = f.svc.DeleteAssessment(ctx, stranger, assessment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.svc.DeleteAssessment(ctx, assessor, assessment.ID))
	_, err = f.svc.GetAssessment(ctx, manager, assessment.ID)
	assert.ErrorIs(t, err, store.ErrAssessmentNotFound)
}

func TestListAssessmentsScopedToOwnRisks(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	mine := f.createRisk(t, owner, 3, 3)
	theirs := f.createRisk(t, other, 3, 3)
	for _, r := range []int64{mine.ID, theirs.ID} {
		actor := owner
		if r == theirs.ID {
			actor = other
		}
		_, err := f.svc.CreateAssessment(ctx, actor, CreateAssessmentInput{
			RiskID: r, LikelihoodAfter: 2, ImpactAfter: 2, AssessmentDate: f.now,
		})
		require.NoError(t, err)
	}

	visible, err := f.svc.ListAssessments(ctx, owner, store.AssessmentFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := f.svc.ListAssessments(ctx, manager, store.AssessmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
