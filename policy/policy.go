// Package policy resolves whether an actor may act on an entity. It is a
// pure function of (actor, entity): capabilities come from the actor's
// role, ownership from the entity's owner chain. Nothing here reads
// ambient request state.
package policy

import (
	"riskregister/models"
)

// Capability is a named grant. The set is closed: adding a capability
// means adding a constant here and granting it in roleGrants.
type Capability string

const (
	ViewRisks      Capability = "view-risks"
	CreateRisks    Capability = "create-risks"
	EditRisks      Capability = "edit-risks"
	DeleteRisks    Capability = "delete-risks"
	ManageAllRisks Capability = "manage-all-risks"

	ViewMitigationActions   Capability = "view-mitigation-actions"
	CreateMitigationActions Capability = "create-mitigation-actions"
	EditMitigationActions   Capability = "edit-mitigation-actions"
	DeleteMitigationActions Capability = "delete-mitigation-actions"
	AssignMitigationActions Capability = "assign-mitigation-actions"

	ViewRiskAssessments   Capability = "view-risk-assessments"
	CreateRiskAssessments Capability = "create-risk-assessments"
	EditRiskAssessments   Capability = "edit-risk-assessments"
	DeleteRiskAssessments Capability = "delete-risk-assessments"

	ViewUsers   Capability = "view-users"
	CreateUsers Capability = "create-users"
	EditUsers   Capability = "edit-users"
	DeleteUsers Capability = "delete-users"

	ViewReports   Capability = "view-reports"
	ExportReports Capability = "export-reports"

	ManageSystem Capability = "manage-system"
)

var allCapabilities = []Capability{
	ViewRisks, CreateRisks, EditRisks, DeleteRisks, ManageAllRisks,
	ViewMitigationActions, CreateMitigationActions, EditMitigationActions,
	DeleteMitigationActions, AssignMitigationActions,
	ViewRiskAssessments, CreateRiskAssessments, EditRiskAssessments,
	DeleteRiskAssessments,
	ViewUsers, CreateUsers, EditUsers, DeleteUsers,
	ViewReports, ExportReports,
	ManageSystem,
}

// Roles
const (
	RoleAdmin       = "admin"
	RoleRiskManager = "risk_manager"
	RoleRiskOwner   = "risk_owner"
	RoleAuditor     = "auditor"
)

var roleGrants = map[string][]Capability{
	RoleAdmin: allCapabilities,
	RoleRiskManager: {
		ViewRisks, CreateRisks, EditRisks, ManageAllRisks,
		ViewMitigationActions, CreateMitigationActions, EditMitigationActions, AssignMitigationActions,
		ViewRiskAssessments, CreateRiskAssessments, EditRiskAssessments,
		ViewReports, ExportReports,
	},
	RoleRiskOwner: {
		ViewRisks, CreateRisks, EditRisks,
		ViewMitigationActions, CreateMitigationActions, EditMitigationActions,
		ViewRiskAssessments, CreateRiskAssessments,
		ViewReports,
	},
	RoleAuditor: {
		ViewRisks,
		ViewMitigationActions,
		ViewRiskAssessments,
		ViewReports, ExportReports,
	},
}

func ValidRole(role string) bool {
	_, ok := roleGrants[role]
	return ok
}

// CapabilitiesFor returns the capability set granted by a role. Unknown
// roles get nothing.
func CapabilitiesFor(role string) []Capability {
	return roleGrants[role]
}

// Has reports whether the user's role grants the capability.
func Has(u *models.User, c Capability) bool {
	for _, granted := range roleGrants[u.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

// ManagesAllRisks reports the global override that bypasses all ownership
// checks.
func ManagesAllRisks(u *models.User) bool {
	return Has(u, ManageAllRisks)
}

// CanActOnRisk: the override or ownership.
func CanActOnRisk(u *models.User, r *models.Risk) bool {
	return ManagesAllRisks(u) || r.OwnerID == u.ID
}

// CanEditAction: the override, parent-risk ownership, or being the
// assignee.
func CanEditAction(u *models.User, a *models.MitigationAction, parent *models.Risk) bool {
	return ManagesAllRisks(u) || parent.OwnerID == u.ID || a.AssignedTo == u.ID
}

// CanDeleteAction: the assignee may not delete, only the override or the
// parent-risk owner.
func CanDeleteAction(u *models.User, parent *models.Risk) bool {
	return CanActOnRisk(u, parent)
}

// CanActOnAssessment: the override, parent-risk ownership, or being the
// assessor.
func CanActOnAssessment(u *models.User, a *models.RiskAssessment, parent *models.Risk) bool {
	return ManagesAllRisks(u) || parent.OwnerID == u.ID || a.AssessorID == u.ID
}
