package service

import (
	"context"
	"math"
	"sort"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

// DashboardStats is the headline summary for the reporting landing page.
type DashboardStats struct {
	TotalRisks       int            `json:"total_risks"`
	OpenRisks        int            `json:"open_risks"`
	HighRisks        int            `json:"high_risks"`
	RisksByStatus    map[string]int `json:"risks_by_status"`
	RisksByLevel     map[string]int `json:"risks_by_level"`
	TotalActions     int            `json:"total_actions"`
	CompletedActions int            `json:"completed_actions"`
	OverdueActions   int            `json:"overdue_actions"`
}

// RiskSummary is the grouped-count view of the visible register.
type RiskSummary struct {
	ByStatus         map[string]int `json:"by_status"`
	ByCategory       map[string]int `json:"by_category"`
	ByRiskLevel      map[string]int `json:"by_risk_level"`
	AverageRiskScore float64        `json:"average_risk_score"`
	TotalRisks       int            `json:"total_risks"`
}

// CategorySummary aggregates risks sharing a category or department.
type CategorySummary struct {
	Key          string  `json:"key"`
	Label        string  `json:"label,omitempty"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
	HighCount    int     `json:"high_count"`
	MediumCount  int     `json:"medium_count"`
	LowCount     int     `json:"low_count"`
}

// OverdueActionReport pairs an overdue action with its parent risk.
type OverdueActionReport struct {
	Action      *models.MitigationAction `json:"action"`
	RiskID      int64                    `json:"risk_id"`
	RiskTitle   string                   `json:"risk_title"`
	DaysOverdue int                      `json:"days_overdue"`
}

// visibleRisks loads every risk the actor may see, unpaginated.
func (s *Service) visibleRisks(ctx context.Context, actor *models.User) ([]*models.Risk, error) {
	f := store.RiskFilter{}
	if !policy.ManagesAllRisks(actor) {
		f.OwnerID = actor.ID
	}
	return s.store.ListRisks(ctx, f)
}

// Dashboard computes the headline stats over the actor's visible risks
// and actions.
func (s *Service) Dashboard(ctx context.Context, actor *models.User) (*DashboardStats, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return nil, err
	}
	af := store.ActionFilter{}
	if !policy.ManagesAllRisks(actor) {
		af.VisibleTo = actor.ID
	}
	actions, err := s.store.ListActions(ctx, af)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		RisksByStatus: map[string]int{},
		RisksByLevel:  map[string]int{},
	}
	for _, r := range risks {
		stats.TotalRisks++
		if r.IsOpen() {
			stats.OpenRisks++
		}
		if r.IsHighRisk() {
			stats.HighRisks++
		}
		stats.RisksByStatus[r.Status]++
		stats.RisksByLevel[r.RiskLevel()]++
	}
	now := s.now()
	for _, a := range actions {
		stats.TotalActions++
		if a.Status == "completed" {
			stats.CompletedActions++
		}
		if a.IsOverdue(now) {
			stats.OverdueActions++
		}
	}
	return stats, nil
}

// RiskSummaryReport groups the actor's visible risks by status, category
// and level, with the average score rounded to two decimals.
func (s *Service) RiskSummaryReport(ctx context.Context, actor *models.User) (*RiskSummary, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return nil, err
	}

	summary := &RiskSummary{
		ByStatus:    map[string]int{},
		ByCategory:  map[string]int{},
		ByRiskLevel: map[string]int{"high": 0, "medium": 0, "low": 0},
	}
	var total float64
	for _, r := range risks {
		summary.TotalRisks++
		summary.ByStatus[r.Status]++
		summary.ByCategory[r.Category]++
		summary.ByRiskLevel[r.RiskLevel()]++
		total += r.RiskScore
	}
	if summary.TotalRisks > 0 {
		summary.AverageRiskScore = math.Round(total/float64(summary.TotalRisks)*100) / 100
	}
	return summary, nil
}

// MatrixCell is one likelihood/impact cell of the 5x5 risk matrix.
type MatrixCell struct {
	Count     int            `json:"count"`
	Risks     []*models.Risk `json:"risks"`
	RiskScore float64        `json:"risk_score"`
}

// RiskMatrix returns a 5x5 grid of visible risks, indexed
// [likelihood-1][impact-1]. Every cell carries its static score so the
// dashboard can color empty cells too.
func (s *Service) RiskMatrix(ctx context.Context, actor *models.User) ([5][5]MatrixCell, error) {
	var matrix [5][5]MatrixCell
	if !policy.Has(actor, policy.ViewReports) {
		return matrix, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return matrix, err
	}
	for l := 0; l < 5; l++ {
		for i := 0; i < 5; i++ {
			matrix[l][i].Risks = []*models.Risk{}
			matrix[l][i].RiskScore = models.Score(l+1, i+1)
		}
	}
	for _, r := range risks {
		if models.ValidRating(r.Likelihood) && models.ValidRating(r.Impact) {
			cell := &matrix[r.Likelihood-1][r.Impact-1]
			cell.Count++
			cell.Risks = append(cell.Risks, r)
		}
	}
	return matrix, nil
}

// RisksByCategory aggregates visible risks per category, highest average
// score first.
func (s *Service) RisksByCategory(ctx context.Context, actor *models.User) ([]*CategorySummary, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return nil, err
	}
	return summarize(risks, func(r *models.Risk) (string, string) {
		return r.Category, models.RiskCategories[r.Category]
	}), nil
}

// RisksByDepartment aggregates visible risks per department. Risks with
// no department fall under "unassigned".
func (s *Service) RisksByDepartment(ctx context.Context, actor *models.User) ([]*CategorySummary, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return nil, err
	}
	return summarize(risks, func(r *models.Risk) (string, string) {
		if r.Department == "" {
			return "unassigned", ""
		}
		return r.Department, ""
	}), nil
}

func summarize(risks []*models.Risk, keyFn func(*models.Risk) (string, string)) []*CategorySummary {
	byKey := map[string]*CategorySummary{}
	totals := map[string]float64{}
	for _, r := range risks {
		key, label := keyFn(r)
		summary, ok := byKey[key]
		if !ok {
			summary = &CategorySummary{Key: key, Label: label}
			byKey[key] = summary
		}
		summary.Count++
		totals[key] += r.RiskScore
		switch r.RiskLevel() {
		case "high":
			summary.HighCount++
		case "medium":
			summary.MediumCount++
		default:
			summary.LowCount++
		}
	}
	out := make([]*CategorySummary, 0, len(byKey))
	for key, summary := range byKey {
		summary.AverageScore = math.Round(totals[key]/float64(summary.Count)*100) / 100
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageScore != out[j].AverageScore {
			return out[i].AverageScore > out[j].AverageScore
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// OverdueActions lists visible open actions past their due date, most
// overdue first.
func (s *Service) OverdueActions(ctx context.Context, actor *models.User) ([]*OverdueActionReport, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	now := s.now()
	f := store.ActionFilter{Overdue: true, Now: now, SortBy: "due_date", SortOrder: "asc"}
	if !policy.ManagesAllRisks(actor) {
		f.VisibleTo = actor.ID
	}
	actions, err := s.store.ListActions(ctx, f)
	if err != nil {
		return nil, err
	}
	reports := make([]*OverdueActionReport, 0, len(actions))
	for _, a := range actions {
		risk, err := s.store.GetRisk(ctx, a.RiskID)
		if err != nil {
			continue // parent tombstoned between queries
		}
		reports = append(reports, &OverdueActionReport{
			Action:      a,
			RiskID:      risk.ID,
			RiskTitle:   risk.Title,
			DaysOverdue: -a.DaysUntilDue(now),
		})
	}
	return reports, nil
}

// HighRiskItems lists visible open risks at or above the high threshold,
// highest score first.
func (s *Service) HighRiskItems(ctx context.Context, actor *models.User) ([]*models.Risk, error) {
	if !policy.Has(actor, policy.ViewReports) {
		return nil, ErrForbidden
	}
	risks, err := s.visibleRisks(ctx, actor)
	if err != nil {
		return nil, err
	}
	high := make([]*models.Risk, 0)
	for _, r := range risks {
		if r.IsHighRisk() && r.IsOpen() {
			high = append(high, r)
		}
	}
	sort.Slice(high, func(i, j int) bool {
		if high[i].RiskScore != high[j].RiskScore {
			return high[i].RiskScore > high[j].RiskScore
		}
		return high[i].ID < high[j].ID
	})
	return high, nil
}

// ExportRiskRegister returns every visible risk ordered by score for
// CSV export.
func (s *Service) ExportRiskRegister(ctx context.Context, actor *models.User) ([]*models.Risk, error) {
	if !policy.Has(actor, policy.ExportReports) {
		return nil, ErrForbidden
	}
	f := store.RiskFilter{SortBy: "risk_score", SortOrder: "desc"}
	if !policy.ManagesAllRisks(actor) {
		f.OwnerID = actor.ID
	}
	return s.store.ListRisks(ctx, f)
}
