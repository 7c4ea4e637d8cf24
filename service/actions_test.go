package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

func (f *fixture) createAction(t *testing.T, actor *models.User, riskID, assignee int64) *models.MitigationAction {
	t.Helper()
	action, err := f.svc.CreateAction(ctx, actor, CreateActionInput{
		RiskID:      riskID,
		Title:       "Negotiate second supplier",
		Description: "Qualify an alternative vendor",
		AssignedTo:  assignee,
		DueDate:     f.now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	return action
}

func TestCreateActionDueDateMustBeFuture(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 2, 2)

	_, err := f.svc.CreateAction(ctx, owner, CreateActionInput{
		RiskID: risk.ID, Title: "t", Description: "d", AssignedTo: owner.ID,
		DueDate: f.now, // today is not strictly after today
	})
	assert.True(t, IsValidation(err))

	_, err = f.svc.CreateAction(ctx, owner, CreateActionInput{
		RiskID: risk.ID, Title: "t", Description: "d", AssignedTo: owner.ID,
		DueDate: f.now.AddDate(0, 0, 1),
	})
	assert.NoError(t, err)
}

func TestCreateActionRequiresParentAccess(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	risk := f.createRisk(t, owner, 2, 2)

	_, err := f.svc.CreateAction(ctx, other, CreateActionInput{
		RiskID: risk.ID, Title: "t", Description: "d", AssignedTo: other.ID,
		DueDate: f.now.AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.CreateAction(ctx, owner, CreateActionInput{
		RiskID: 9999, Title: "t", Description: "d", AssignedTo: owner.ID,
		DueDate: f.now.AddDate(0, 0, 7),
	})
	assert.ErrorIs(t, err, store.ErrRiskNotFound)
}

func TestCompletedDateStampedExactlyOnce(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 2, 2)
	action := f.createAction(t, owner, risk.ID, owner.ID)
	require.Nil(t, action.CompletedDate)

	completed := "completed"
	updated, err := f.svc.UpdateAction(ctx, owner, action.ID, UpdateActionInput{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	firstStamp := *updated.CompletedDate

	// completing again later must not move the stamp
	f.now = f.now.AddDate(0, 0, 10)
	inProgress := "in_progress"
	_, err = f.svc.UpdateAction(ctx, owner, action.ID, UpdateActionInput{Status: &inProgress})
	require.NoError(t, err)
	updated, err = f.svc.UpdateAction(ctx, owner, action.ID, UpdateActionInput{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedDate)
	assert.Equal(t, firstStamp, *updated.CompletedDate)
}

func TestCompletedActionIsNeverOverdue(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	risk := f.createRisk(t, owner, 2, 2)
	action := f.createAction(t, owner, risk.ID, owner.ID)

	// push past the due date
	f.now = f.now.AddDate(0, 2, 0)
	got, err := f.svc.GetAction(ctx, owner, action.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOverdue(f.now))

	completed := "completed"
	updated, err := f.svc.UpdateAction(ctx, owner, action.ID, UpdateActionInput{Status: &completed})
	require.NoError(t, err)
	assert.False(t, updated.IsOverdue(f.now))
}

func TestReassignmentRequiresCapability(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")
	risk := f.createRisk(t, owner, 2, 2)
	action := f.createAction(t, owner, risk.ID, owner.ID)

	// risk owners lack assign-mitigation-actions: the patch is dropped,
	// not rejected
	updated, err := f.svc.UpdateAction(ctx, owner, action.ID, UpdateActionInput{AssignedTo: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, updated.AssignedTo)

	updated, err = f.svc.UpdateAction(ctx, manager, action.ID, UpdateActionInput{AssignedTo: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.AssignedTo)
}

func TestAssigneeMayEditButNotDelete(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	assignee := f.user(t, policy.RoleRiskOwner, "assignee@example.com")
	risk := f.createRisk(t, owner, 2, 2)
	action := f.createAction(t, owner, risk.ID, assignee.ID)

	notes := "supplier shortlist drafted"
	_, err := f.svc.UpdateAction(ctx, assignee, action.ID, UpdateActionInput{Notes: &notes})
	assert.NoError(t, err)

	err = f.svc.DeleteAction(ctx, assignee, action.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.NoError(t, f.svc.DeleteAction(ctx, owner, action.ID))
}

func TestListActionsScopedForNonManagers(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	mine := f.createRisk(t, owner, 2, 2)
	theirs := f.createRisk(t, other, 2, 2)
	f.createAction(t, owner, mine.ID, owner.ID)
	f.createAction(t, other, theirs.ID, other.ID)

	visible, err := f.svc.ListActions(ctx, owner, store.ActionFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := f.svc.ListActions(ctx, manager, store.ActionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
