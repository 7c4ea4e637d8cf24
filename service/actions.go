package service

import (
	"context"
	"errors"
	"time"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

type CreateActionInput struct {
	RiskID       int64
	Title        string
	Description  string
	Status       string // defaults to "planned"
	AssignedTo   int64
	DueDate      time.Time
	Priority     int // 0 = unset
	CostEstimate *float64
	Notes        string
}

// CreateAction attaches a mitigation action to a risk. The due date must
// fall strictly after the creation date.
func (s *Service) CreateAction(ctx context.Context, actor *models.User, in CreateActionInput) (*models.MitigationAction, error) {
	if !policy.Has(actor, policy.CreateMitigationActions) {
		return nil, ErrForbidden
	}
	risk, err := s.store.GetRisk(ctx, in.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanActOnRisk(actor, risk) {
		return nil, ErrForbidden
	}
	if in.Title == "" {
		return nil, invalidf("title is required")
	}
	if in.Description == "" {
		return nil, invalidf("description is required")
	}
	if in.AssignedTo == 0 {
		return nil, invalidf("assigned_to is required")
	}
	if _, err := s.store.GetUser(ctx, in.AssignedTo); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, invalidf("assignee %d does not exist", in.AssignedTo)
		}
		return nil, err
	}
	now := s.now()
	if !dateOnly(in.DueDate).After(dateOnly(now)) {
		return nil, invalidf("due_date must be after today")
	}
	status := in.Status
	if status == "" {
		status = "planned"
	}
	if !models.ValidActionStatus(status) {
		return nil, invalidf("invalid action status %q", status)
	}
	if in.Priority != 0 && !models.ValidRating(in.Priority) {
		return nil, invalidf("priority must be between 1 and 5")
	}

	action := &models.MitigationAction{
		RiskID:       in.RiskID,
		Title:        in.Title,
		Description:  in.Description,
		Status:       status,
		AssignedTo:   in.AssignedTo,
		DueDate:      dateOnly(in.DueDate),
		Priority:     in.Priority,
		CostEstimate: in.CostEstimate,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == "completed" {
		d := dateOnly(now)
		action.CompletedDate = &d
	}

	if err := s.store.CreateAction(ctx, action); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "action_create", "mitigation_action", action.ID, map[string]interface{}{
		"risk_id": action.RiskID, "title": action.Title,
	})
	s.broadcast("action_created", action)
	return action, nil
}

// GetAction returns one mitigation action. Visible to the parent-risk
// owner, the assignee, and manage-all-risks holders.
func (s *Service) GetAction(ctx context.Context, actor *models.User, id int64) (*models.MitigationAction, error) {
	if !policy.Has(actor, policy.ViewMitigationActions) {
		return nil, ErrForbidden
	}
	action, err := s.store.GetAction(ctx, id)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.GetRisk(ctx, action.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditAction(actor, action, risk) {
		return nil, ErrForbidden
	}
	return action, nil
}

type UpdateActionInput struct {
	Title        *string
	Description  *string
	Status       *string
	AssignedTo   *int64
	DueDate      *time.Time
	Priority     *int
	CostEstimate *float64
	Notes        *string
}

// UpdateAction applies a partial update. Reassignment requires the
// assign-mitigation-actions capability; without it the assigned_to patch
// is dropped rather than rejected. The first transition to "completed"
// stamps completed_date; later updates never overwrite it.
func (s *Service) UpdateAction(ctx context.Context, actor *models.User, id int64, in UpdateActionInput) (*models.MitigationAction, error) {
	if !policy.Has(actor, policy.EditMitigationActions) {
		return nil, ErrForbidden
	}
	action, err := s.store.GetAction(ctx, id)
	if err != nil {
		return nil, err
	}
	risk, err := s.store.GetRisk(ctx, action.RiskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditAction(actor, action, risk) {
		return nil, ErrForbidden
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, invalidf("title cannot be empty")
		}
		action.Title = *in.Title
	}
	if in.Description != nil {
		action.Description = *in.Description
	}
	if in.Status != nil {
		if !models.ValidActionStatus(*in.Status) {
			return nil, invalidf("invalid action status %q", *in.Status)
		}
		if *in.Status == "completed" && action.Status != "completed" && action.CompletedDate == nil {
			d := dateOnly(s.now())
			action.CompletedDate = &d
		}
		action.Status = *in.Status
	}
	if in.AssignedTo != nil && policy.Has(actor, policy.AssignMitigationActions) {
		if _, err := s.store.GetUser(ctx, *in.AssignedTo); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return nil, invalidf("assignee %d does not exist", *in.AssignedTo)
			}
			return nil, err
		}
		action.AssignedTo = *in.AssignedTo
	}
	if in.DueDate != nil {
		action.DueDate = dateOnly(*in.DueDate)
	}
	if in.Priority != nil {
		if *in.Priority != 0 && !models.ValidRating(*in.Priority) {
			return nil, invalidf("priority must be between 1 and 5")
		}
		action.Priority = *in.Priority
	}
	if in.CostEstimate != nil {
		action.CostEstimate = in.CostEstimate
	}
	if in.Notes != nil {
		action.Notes = *in.Notes
	}
	action.UpdatedAt = s.now()

	if err := s.store.UpdateAction(ctx, action); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, "action_update", "mitigation_action", action.ID, map[string]interface{}{
		"status": action.Status,
	})
	s.broadcast("action_updated", action)
	return action, nil
}

// DeleteAction tombstones the action. Assignees may not delete; only the
// parent-risk owner or a manage-all-risks holder.
func (s *Service) DeleteAction(ctx context.Context, actor *models.User, id int64) error {
	action, err := s.store.GetAction(ctx, id)
	if err != nil {
		return err
	}
	risk, err := s.store.GetRisk(ctx, action.RiskID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteAction(actor, risk) {
		return ErrForbidden
	}
	if err := s.store.SoftDeleteAction(ctx, id, s.now()); err != nil {
		return err
	}
	s.audit(ctx, actor, "action_delete", "mitigation_action", id, nil)
	s.broadcast("action_deleted", map[string]interface{}{"id": id})
	return nil
}

// ListActions returns actions matching the filter. Actors without
// manage-all-risks see only actions on their own risks or assigned to
// them.
func (s *Service) ListActions(ctx context.Context, actor *models.User, f store.ActionFilter) ([]*models.MitigationAction, error) {
	if !policy.Has(actor, policy.ViewMitigationActions) {
		return nil, ErrForbidden
	}
	if !policy.ManagesAllRisks(actor) {
		f.VisibleTo = actor.ID
	}
	if f.Overdue {
		f.Now = s.now()
	}
	return s.store.ListActions(ctx, f)
}
