package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskregister/policy"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	f.createRisk(t, manager, 5, 5) // high
	f.createRisk(t, manager, 3, 3) // medium
	low := f.createRisk(t, manager, 1, 2)
	closed := "closed"
	_, err := f.svc.UpdateRisk(ctx, manager, low.ID, UpdateRiskInput{Status: &closed})
	require.NoError(t, err)

	risk := f.createRisk(t, manager, 2, 2)
	action := f.createAction(t, manager, risk.ID, manager.ID)
	completed := "completed"
	_, err = f.svc.UpdateAction(ctx, manager, action.ID, UpdateActionInput{Status: &completed})
	require.NoError(t, err)

	stats, err := f.svc.Dashboard(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRisks)
	assert.Equal(t, 3, stats.OpenRisks)
	assert.Equal(t, 1, stats.HighRisks)
	assert.Equal(t, 1, stats.RisksByLevel["high"])
	assert.Equal(t, 2, stats.RisksByLevel["low"])
	assert.Equal(t, 1, stats.RisksByStatus["closed"])
	assert.Equal(t, 1, stats.TotalActions)
	assert.Equal(t, 1, stats.CompletedActions)
	assert.Equal(t, 0, stats.OverdueActions)
}

func TestRiskMatrixCells(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	f.createRisk(t, manager, 4, 5)
	f.createRisk(t, manager, 4, 5)
	f.createRisk(t, manager, 1, 1)

	matrix, err := f.svc.RiskMatrix(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, 2, matrix[3][4].Count, "likelihood 4, impact 5 cell")
	assert.Len(t, matrix[3][4].Risks, 2)
	assert.Equal(t, 20.0, matrix[3][4].RiskScore)
	assert.Equal(t, 1, matrix[0][0].Count)
	assert.Equal(t, 0, matrix[2][2].Count)
	assert.NotNil(t, matrix[2][2].Risks, "empty cells carry an empty list, not null")
	assert.Equal(t, 9.0, matrix[2][2].RiskScore)
}

func TestRisksByCategoryAggregation(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	mk := func(category string, likelihood, impact int) {
		_, err := f.svc.CreateRisk(ctx, manager, CreateRiskInput{
			Title: "r", Description: "d", Category: category,
			Likelihood: likelihood, Impact: impact, IdentifiedDate: f.now,
		})
		require.NoError(t, err)
	}
	mk("operational", 5, 5) // 25
	mk("operational", 3, 5) // 15
	mk("operational", 3, 3) // 9
	mk("financial", 1, 2)   // 2

	summaries, err := f.svc.RisksByCategory(ctx, manager)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "operational", summaries[0].Key)
	assert.Equal(t, "Operational", summaries[0].Label)
	assert.Equal(t, 3, summaries[0].Count)
	assert.Equal(t, 16.33, summaries[0].AverageScore)
	assert.Equal(t, 2, summaries[0].HighCount)
	assert.Equal(t, 1, summaries[0].MediumCount)
	assert.Equal(t, 0, summaries[0].LowCount)
	assert.Equal(t, "financial", summaries[1].Key)
	assert.Equal(t, 1, summaries[1].LowCount)
}

func TestOverdueActionsReport(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")
	risk := f.createRisk(t, manager, 2, 2)
	action := f.createAction(t, manager, risk.ID, manager.ID) // due 2026-10-01

	f.now = f.now.AddDate(0, 0, 41) // 2026-10-11, ten days past due
	reports, err := f.svc.OverdueActions(ctx, manager)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, action.ID, reports[0].Action.ID)
	assert.Equal(t, risk.Title, reports[0].RiskTitle)
	assert.Equal(t, 10, reports[0].DaysOverdue)
}

func TestHighRiskItemsOrdering(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	f.createRisk(t, manager, 4, 4) // 16
	f.createRisk(t, manager, 5, 5) // 25
	f.createRisk(t, manager, 2, 2) // 4, excluded
	closedHigh := f.createRisk(t, manager, 5, 4)
	closed := "closed"
	_, err := f.svc.UpdateRisk(ctx, manager, closedHigh.ID, UpdateRiskInput{Status: &closed})
	require.NoError(t, err)

	high, err := f.svc.HighRiskItems(ctx, manager)
	require.NoError(t, err)
	require.Len(t, high, 2, "closed risks are excluded even when high")
	assert.Equal(t, 25.0, high[0].RiskScore)
	assert.Equal(t, 16.0, high[1].RiskScore)
}

func TestRiskSummaryReport(t *testing.T) {
	f := newFixture()
	manager := f.user(t, policy.RoleRiskManager, "manager@example.com")

	f.createRisk(t, manager, 5, 5) // 25, strategic
	f.createRisk(t, manager, 3, 3) // 9, strategic
	_, err := f.svc.CreateRisk(ctx, manager, CreateRiskInput{
		Title: "r", Description: "d", Category: "financial",
		Likelihood: 1, Impact: 2, IdentifiedDate: f.now,
	})
	require.NoError(t, err)

	summary, err := f.svc.RiskSummaryReport(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRisks)
	assert.Equal(t, 3, summary.ByStatus["identified"])
	assert.Equal(t, 2, summary.ByCategory["strategic"])
	assert.Equal(t, 1, summary.ByCategory["financial"])
	assert.Equal(t, 1, summary.ByRiskLevel["high"])
	assert.Equal(t, 1, summary.ByRiskLevel["medium"])
	assert.Equal(t, 1, summary.ByRiskLevel["low"])
	assert.Equal(t, 12.0, summary.AverageRiskScore) // (25+9+2)/3
}

func TestReportsScopedForNonManagers(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	other := f.user(t, policy.RoleRiskOwner, "other@example.com")
	f.createRisk(t, owner, 5, 5)
	f.createRisk(t, other, 5, 5)

	stats, err := f.svc.Dashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRisks)
}

func TestExportRequiresCapability(t *testing.T) {
	f := newFixture()
	owner := f.user(t, policy.RoleRiskOwner, "owner@example.com")
	auditor := f.user(t, policy.RoleAuditor, "auditor@example.com")
	f.createRisk(t, owner, 5, 5)

	_, err := f.svc.ExportRiskRegister(ctx, owner)
	assert.ErrorIs(t, err, ErrForbidden, "risk owners cannot export")

	risks, err := f.svc.ExportRiskRegister(ctx, auditor)
	require.NoError(t, err)
	assert.Empty(t, risks, "auditors export only their visible scope")
}
