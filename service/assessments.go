package service

import (
	"context"
	"time"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

type CreateAssessmentInput struct {
	RiskID           int64
	LikelihoodBefore *int
	ImpactBefore     *int
	LikelihoodAfter  int
	ImpactAfter      int
	AssessmentNotes  string
	AssessmentDate   time.Time
}

// CreateAssessment records a re-evaluation and propagates the "after"
// likelihood/impact onto the parent risk in the same transaction. The
// parent's score is recomputed; no high-risk notification is emitted
// from this path.
func (s *Service) CreateAssessment(ctx context.Context, actor *models.User, in CreateAssessmentInput) (*models.RiskAssessment, error) {
	if !policy.Has(actor, policy.CreateRiskAssessments) {
		return nil, ErrForbidden
	}
	risk, err := s.store.GetRisk(ctx, in.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnRisk(actor, risk) {
		return nil, ErrForbidden
	}
	if !models.ValidRating(in.LikelihoodAfter) {
		return nil, invalidf("likelihood_after must be between 1 and 5")
	}
	if !models.ValidRating(in.ImpactAfter) {
		return nil, invalidf("impact_after must be between 1 and 5")
	}
	if in.LikelihoodBefore != nil && !models.ValidRating(*in.LikelihoodBefore) {
		return nil, invalidf("likelihood_before must be between 1 and 5")
	}
	if in.ImpactBefore != nil && !models.ValidRating(*in.ImpactBefore) {
		return nil, invalidf("impact_before must be between 1 and 5")
	}
	if in.AssessmentDate.IsZero() {
		return nil, invalidf("assessment_date is required")
	}

	now := s.now()
	assessment := &models.RiskAssessment{
		RiskID:           in.RiskID,
		AssessorID:       actor.ID,
		LikelihoodBefore: in.LikelihoodBefore,
		ImpactBefore:     in.ImpactBefore,
		LikelihoodAfter:  in.LikelihoodAfter,
		ImpactAfter:      in.ImpactAfter,
		AssessmentNotes:  in.AssessmentNotes,
		AssessmentDate:   dateOnly(in.AssessmentDate),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	assessment.CalculateRiskScores()

	risk.Likelihood = in.LikelihoodAfter
	risk.Impact = in.ImpactAfter
	risk.CalculateRiskScore()
	risk.UpdatedAt = now

	if err := s.store.CreateAssessment(ctx, assessment, risk); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "assessment_create", "risk_assessment", assessment.ID, map[string]interface{}{
		"risk_id": risk.ID, "risk_score_after": assessment.RiskScoreAfter,
	})
	s.broadcast("assessment_created", assessment)
	return assessment, nil
}

// GetAssessment returns one assessment. Visible to the parent-risk
// owner, the assessor, and manage-all-risks holders.
func (s *Service) GetAssessment(ctx context.Context, actor *models.User, id int64) (*models.RiskAssessment, error) {
	if !policy.Has(actor, policy.ViewRiskAssessments) {
		return nil, ErrForbidden
	}
	assessment, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.GetRisk(ctx, assessment.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnAssessment(actor, assessment, risk) {
		return nil, ErrForbidden
	}
	return assessment, nil
}

type UpdateAssessmentInput struct {
	LikelihoodBefore *int
	ImpactBefore     *int
	LikelihoodAfter  *int
	ImpactAfter      *int
	AssessmentNotes  *string
	AssessmentDate   *time.Time
}

// UpdateAssessment applies a partial update. A patch touching the
// "after" values re-propagates them to the parent risk, atomically with
// the assessment write; other patches leave the risk alone.
func (s *Service) UpdateAssessment(ctx context.Context, actor *models.User, id int64, in UpdateAssessmentInput) (*models.RiskAssessment, error) {
	assessment, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.GetRisk(ctx, assessment.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnAssessment(actor, assessment, risk) {
		return nil, ErrForbidden
	}

	touchedAfter := false
	if in.LikelihoodBefore != nil {
		if !models.ValidRating(*in.LikelihoodBefore) {
			return nil, invalidf("likelihood_before must be between 1 and 5")
		}
		assessment.LikelihoodBefore = in.LikelihoodBefore
	}
	if in.ImpactBefore != nil {
		if !models.ValidRating(*in.ImpactBefore) {
			return nil, invalidf("impact_before must be between 1 and 5")
		}
		assessment.ImpactBefore = in.ImpactBefore
	}
	if in.LikelihoodAfter != nil {
		if !models.ValidRating(*in.LikelihoodAfter) {
			return nil, invalidf("likelihood_after must be between 1 and 5")
		}
		assessment.LikelihoodAfter = *in.LikelihoodAfter
		touchedAfter = true
	}
	if in.ImpactAfter != nil {
		if !models.ValidRating(*in.ImpactAfter) {
			return nil, invalidf("impact_after must be between 1 and 5")
		}
		assessment.ImpactAfter = *in.ImpactAfter
		touchedAfter = true
	}
	if in.AssessmentNotes != nil {
		assessment.AssessmentNotes = *in.AssessmentNotes
	}
	if in.AssessmentDate != nil {
		assessment.AssessmentDate = dateOnly(*in.AssessmentDate)
	}

	now := s.now()
	assessment.CalculateRiskScores()
	assessment.UpdatedAt = now

	var syncRisk *models.Risk
	if touchedAfter {
		risk.Likelihood = assessment.LikelihoodAfter
		risk.Impact = assessment.ImpactAfter
		risk.CalculateRiskScore()
		risk.UpdatedAt = now
		syncRisk = risk
	}

	if err := s.store.UpdateAssessment(ctx, assessment, syncRisk); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "assessment_update", "risk_assessment", assessment.ID, map[string]interface{}{
		"risk_id": risk.ID, "risk_score_after": assessment.RiskScoreAfter,
	})
	s.broadcast("assessment_updated", assessment)
	return assessment, nil
}

// DeleteAssessment removes the record permanently. Unlike risks and
// actions there is no tombstone; the parent risk keeps whatever values
// the assessment last propagated.
func (s *Service) DeleteAssessment(ctx context.Context, actor *models.User, id int64) error {
	assessment, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return err
	}
	risk, err := s.store.GetRisk(ctx, assessment.RiskID)
	if err != nil {
		return err
	}
	if !policy.CanActOnAssessment(actor, assessment, risk) {
		return ErrForbidden
	}
	if err := s.store.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor, "assessment_delete", "risk_assessment", id, nil)
	s.broadcast("assessment_deleted", map[string]interface{}{"id": id})
	return nil
}

// ListAssessments returns assessments matching the filter. Actors
// without manage-all-risks are scoped to assessments of their own risks.
func (s *Service) ListAssessments(ctx context.Context, actor *models.User, f store.AssessmentFilter) ([]*models.RiskAssessment, error) {
	if !policy.Has(actor, policy.ViewRiskAssessments) {
		return nil, ErrForbidden
	}
	if !policy.ManagesAllRisks(actor) {
		f.RiskOwnerID = actor.ID
	}
	return s.store.ListAssessments(ctx, f)
}
