package service

import (
	"context"
	"errors"
	"time"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

type CreateRiskInput struct {
	Title             string
	Description       string
	Category          string
	Likelihood        int
	Impact            int
	Status            string // defaults to "identified"
	OwnerID           int64  // honored only with manage-all-risks
	Department        string
	IdentifiedDate    time.Time
	TargetClosureDate *time.Time
	Notes             string
}

// CreateRisk persists a new risk for the actor. The owner defaults to the
// actor; an explicit owner is honored only when the actor holds
// manage-all-risks. A risk born high emits exactly one notification.
func (s *Service) CreateRisk(ctx context.Context, actor *models.User, in CreateRiskInput) (*models.Risk, error) {
	if !policy.Has(actor, policy.CreateRisks) {
		return nil, ErrForbidden
	}
	if in.Title == "" {
		return nil, invalidf("title is required")
	}
	if in.Description == "" {
		return nil, invalidf("description is required")
	}
	if !models.ValidRiskCategory(in.Category) {
		return nil, invalidf("invalid risk category %q", in.Category)
	}
	if !models.ValidRating(in.Likelihood) {
		return nil, invalidf("likelihood must be between 1 and 5")
	}
	if !models.ValidRating(in.Impact) {
		return nil, invalidf("impact must be between 1 and 5")
	}
	if in.IdentifiedDate.IsZero() {
		return nil, invalidf("identified_date is required")
	}
	if in.TargetClosureDate != nil && !dateOnly(*in.TargetClosureDate).After(dateOnly(in.IdentifiedDate)) {
		return nil, invalidf("target_closure_date must be after identified_date")
	}
	status := in.Status
	if status == "" {
		status = "identified"
	}
	if !models.ValidRiskStatus(status) {
		return nil, invalidf("invalid risk status %q", status)
	}

	ownerID := actor.ID
	if in.OwnerID != 0 && policy.ManagesAllRisks(actor) {
		if _, err := s.store.GetUser(ctx, in.OwnerID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, invalidf("owner %d does not exist", in.OwnerID)
			}
			return nil, err
		}
		ownerID = in.OwnerID
	}

	var targetClosure *time.Time
	if in.TargetClosureDate != nil {
		d := dateOnly(*in.TargetClosureDate)
		targetClosure = &d
	}

	now := s.now()
	risk := &models.Risk{
		Title:             in.Title,
		Description:       in.Description,
		Category:          in.Category,
		Likelihood:        in.Likelihood,
		Impact:            in.Impact,
		Status:            status,
		OwnerID:           ownerID,
		Department:        in.Department,
		IdentifiedDate:    dateOnly(in.IdentifiedDate),
		TargetClosureDate: targetClosure,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	risk.CalculateRiskScore()

	if err := s.store.CreateRisk(ctx, risk); err != nil {
		return nil, err
	}
	if risk.IsHighRisk() {
		s.alertHighRisk(risk)
	}
	s.audit(ctx, actor, "risk_create", "risk", risk.ID, map[string]interface{}{
		"title": risk.Title, "risk_score": risk.RiskScore,
	})
	s.broadcast("risk_created", risk)
	return risk, nil
}

// GetRisk returns one risk. Actors without manage-all-risks may only
// fetch their own.
func (s *Service) GetRisk(ctx context.Context, actor *models.User, id int64) (*models.Risk, error) {
	if !policy.Has(actor, policy.ViewRisks) {
		return nil, ErrForbidden
	}
	risk, err := s.store.GetRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnRisk(actor, risk) {
		return nil, ErrForbidden
	}
	return risk, nil
}

type UpdateRiskInput struct {
	Title             *string
	Description       *string
	Category          *string
	Likelihood        *int
	Impact            *int
	Status            *string
	OwnerID           *int64
	Department        *string
	IdentifiedDate    *time.Time
	TargetClosureDate *time.Time
	ActualClosureDate *time.Time
	Notes             *string
}

// UpdateRisk applies a partial update. The owner field is silently
// dropped when the actor lacks manage-all-risks. A score crossing into
// high emits the notification; dropping out of high emits nothing.
func (s *Service) UpdateRisk(ctx context.Context, actor *models.User, id int64, in UpdateRiskInput) (*models.Risk, error) {
	if !policy.Has(actor, policy.EditRisks) {
		return nil, ErrForbidden
	}
	risk, err := s.store.GetRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnRisk(actor, risk) {
		return nil, ErrForbidden
	}
	wasHigh := risk.IsHighRisk()

	if in.Title != nil {
		if *in.Title == "" {
			return nil, invalidf("title cannot be empty")
		}
		risk.Title = *in.Title
	}
	if in.Description != nil {
		risk.Description = *in.Description
	}
	if in.Category != nil {
		if !models.ValidRiskCategory(*in.Category) {
			return nil, invalidf("invalid risk category %q", *in.Category)
		}
		risk.Category = *in.Category
	}
	if in.Likelihood != nil {
		if !models.ValidRating(*in.Likelihood) {
			return nil, invalidf("likelihood must be between 1 and 5")
		}
		risk.Likelihood = *in.Likelihood
	}
	if in.Impact != nil {
		if !models.ValidRating(*in.Impact) {
			return nil, invalidf("impact must be between 1 and 5")
		}
		risk.Impact = *in.Impact
	}
	if in.Status != nil {
		if !models.ValidRiskStatus(*in.Status) {
			return nil, invalidf("invalid risk status %q", *in.Status)
		}
		risk.Status = *in.Status
	}
	if in.OwnerID != nil && policy.ManagesAllRisks(actor) {
		if _, err := s.store.GetUser(ctx, *in.OwnerID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, invalidf("owner %d does not exist", *in.OwnerID)
			}
			return nil, err
		}
		risk.OwnerID = *in.OwnerID
	}
	if in.Department != nil {
		risk.Department = *in.Department
	}
	if in.IdentifiedDate != nil {
		risk.IdentifiedDate = dateOnly(*in.IdentifiedDate)
	}
	if in.TargetClosureDate != nil {
		d := dateOnly(*in.TargetClosureDate)
		risk.TargetClosureDate = &d
	}
	if in.ActualClosureDate != nil {
		d := dateOnly(*in.ActualClosureDate)
		risk.ActualClosureDate = &d
	}
	if in.Notes != nil {
		risk.Notes = *in.Notes
	}

	risk.CalculateRiskScore()
	risk.UpdatedAt = s.now()

	if err := s.store.UpdateRisk(ctx, risk); err != nil {
		return nil, err
	}
	if !wasHigh && risk.IsHighRisk() {
		s.alertHighRisk(risk)
	}
	s.audit(ctx, actor, "risk_update", "risk", risk.ID, map[string]interface{}{
		"risk_score": risk.RiskScore, "status": risk.Status,
	})
	s.broadcast("risk_updated", risk)
	return risk, nil
}

// DeleteRisk tombstones the risk. The record stays recoverable in the
// store but disappears from every read path.
func (s *Service) DeleteRisk(ctx context.Context, actor *models.User, id int64) error {
	risk, err := s.store.GetRisk(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanActOnRisk(actor, risk) {
		return ErrForbidden
	}
	if err := s.store.SoftDeleteRisk(ctx, id, s.now()); err != nil {
		return err
	}
	s.audit(ctx, actor, "risk_delete", "risk", id, nil)
	s.broadcast("risk_deleted", map[string]interface{}{"id": id})
	return nil
}

// ListRisks returns risks matching the filter. Actors without
// manage-all-risks see only their own risks, never an error.
func (s *Service) ListRisks(ctx context.Context, actor *models.User, f store.RiskFilter) ([]*models.Risk, error) {
	if !policy.Has(actor, policy.ViewRisks) {
		return nil, ErrForbidden
	}
	if !policy.ManagesAllRisks(actor) {
		f.OwnerID = actor.ID
	}
	return s.store.ListRisks(ctx, f)
}

// LatestAssessment returns the newest assessment of a risk the actor can
// see, or nil when it has none.
func (s *Service) LatestAssessment(ctx context.Context, actor *models.User, riskID int64) (*models.RiskAssessment, error) {
	if _, err := s.GetRisk(ctx, actor, riskID); err != nil {
		return nil, err
	}
	return s.store.LatestAssessment(ctx, riskID)
}
