package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"riskregister/models"
)

func user(id int64, role string) *models.User {
	return &models.User{ID: id, Role: role}
}

func TestRoleGrants(t *testing.T) {
	admin := user(1, RoleAdmin)
	manager := user(2, RoleRiskManager)
	owner := user(3, RoleRiskOwner)
	auditor := user(4, RoleAuditor)

	assert.True(t, Has(admin, ManageSystem))
	assert.True(t, Has(admin, ManageAllRisks))

	assert.True(t, Has(manager, ManageAllRisks))
	assert.True(t, Has(manager, AssignMitigationActions))
	assert.False(t, Has(manager, DeleteRisks))
	assert.False(t, Has(manager, ManageSystem))

	assert.True(t, Has(owner, CreateRisks))
	assert.False(t, Has(owner, ManageAllRisks))
	assert.False(t, Has(owner, AssignMitigationActions))
	assert.False(t, Has(owner, DeleteRiskAssessments))

	assert.True(t, Has(auditor, ViewRisks))
	assert.True(t, Has(auditor, ExportReports))
	assert.False(t, Has(auditor, CreateRisks))
	assert.False(t, Has(auditor, EditMitigationActions))
}

func TestUnknownRoleGetsNothing(t *testing.T) {
	stranger := user(9, "intern")
	assert.False(t, ValidRole("intern"))
	assert.Empty(t, CapabilitiesFor("intern"))
	assert.False(t, Has(stranger, ViewRisks))
}

func TestCanActOnRisk(t *testing.T) {
	risk := &models.Risk{ID: 10, OwnerID: 3}

	assert.True(t, CanActOnRisk(user(3, RoleRiskOwner), risk), "owner")
	assert.True(t, CanActOnRisk(user(2, RoleRiskManager), risk), "manage-all override")
	assert.False(t, CanActOnRisk(user(5, RoleRiskOwner), risk), "unrelated user")
	assert.False(t, CanActOnRisk(user(4, RoleAuditor), risk), "auditor has no override")
}

func TestCanEditAction(t *testing.T) {
	risk := &models.Risk{ID: 10, OwnerID: 3}
	action := &models.MitigationAction{ID: 20, RiskID: 10, AssignedTo: 5}

	assert.True(t, CanEditAction(user(3, RoleRiskOwner), action, risk), "parent owner")
	assert.True(t, CanEditAction(user(5, RoleRiskOwner), action, risk), "assignee")
	assert.True(t, CanEditAction(user(2, RoleRiskManager), action, risk), "override")
	assert.False(t, CanEditAction(user(7, RoleRiskOwner), action, risk))
}

func TestCanDeleteActionExcludesAssignee(t *testing.T) {
	risk := &models.Risk{ID: 10, OwnerID: 3}

	assert.True(t, CanDeleteAction(user(3, RoleRiskOwner), risk))
	assert.True(t, CanDeleteAction(user(2, RoleRiskManager), risk))
	// the assignee may edit but not delete
	assert.False(t, CanDeleteAction(user(5, RoleRiskOwner), risk))
}

func TestCanActOnAssessment(t *testing.T) {
	risk := &models.Risk{ID: 10, OwnerID: 3}
	assessment := &models.RiskAssessment{ID: 30, RiskID: 10, AssessorID: 5}

	assert.True(t, CanActOnAssessment(user(3, RoleRiskOwner), assessment, risk), "parent owner")
	assert.True(t, CanActOnAssessment(user(5, RoleRiskOwner), assessment, risk), "assessor")
	assert.True(t, CanActOnAssessment(user(2, RoleRiskManager), assessment, risk), "override")
	assert.False(t, CanActOnAssessment(user(7, RoleRiskOwner), assessment, risk))
}
