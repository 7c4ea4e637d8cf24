package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"riskregister/models"
)

// Memory is an in-memory Store used by tests. All methods copy entities in
// and out so callers never alias internal state. The assessment sync pair
// is applied under one lock with both writes validated up front, matching
// the all-or-nothing contract of the SQL transaction.
type Memory struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	risks       map[int64]*models.Risk
	actions     map[int64]*models.MitigationAction
	assessments map[int64]*models.RiskAssessment
	audit       []*models.AuditLog
	nextID      int64
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[int64]*models.User),
		risks:       make(map[int64]*models.Risk),
		actions:     make(map[int64]*models.MitigationAction),
		assessments: make(map[int64]*models.RiskAssessment),
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Users

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	if u.ID == 0 {
		u.ID = m.id()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

// Risks

func (m *Memory) CreateRisk(ctx context.Context, r *models.Risk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		r.ID = m.id()
	}
	cp := *r
	m.risks[r.ID] = &cp
	return nil
}

func (m *Memory) GetRisk(ctx context.Context, id int64) (*models.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getRiskLocked(id)
}

func (m *Memory) getRiskLocked(id int64) (*models.Risk, error) {
	r, ok := m.risks[id]
	if !ok || r.DeletedAt != nil {
		return nil, ErrRiskNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) UpdateRisk(ctx context.Context, r *models.Risk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRiskLocked(r)
}

func (m *Memory) updateRiskLocked(r *models.Risk) error {
	existing, ok := m.risks[r.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrRiskNotFound
	}
	cp := *r
	m.risks[r.ID] = &cp
	return nil
}

func (m *Memory) SoftDeleteRisk(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.risks[id]
	if !ok || r.DeletedAt != nil {
		return ErrRiskNotFound
	}
	r.DeletedAt = &at
	return nil
}

func (m *Memory) ListRisks(ctx context.Context, f RiskFilter) ([]*models.Risk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Risk
	for _, r := range m.risks {
		if r.DeletedAt != nil {
			continue
		}
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.RiskLevel != "" && r.RiskLevel() != f.RiskLevel {
			continue
		}
		if f.OwnerID != 0 && r.OwnerID != f.OwnerID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sortRisks(out, f.SortBy, f.SortOrder)
	return pageSlice(out, f.Page, f.PerPage), nil
}

func sortRisks(risks []*models.Risk, sortBy, sortOrder string) {
	desc := sortOrder != "asc"
	less := func(a, b *models.Risk) bool {
		switch sortBy {
		case "risk_score":
			return a.RiskScore < b.RiskScore
		case "likelihood":
			return a.Likelihood < b.Likelihood
		case "impact":
			return a.Impact < b.Impact
		case "identified_date":
			return a.IdentifiedDate.Before(b.IdentifiedDate)
		case "title":
			return a.Title < b.Title
		case "status":
			return a.Status < b.Status
		case "category":
			return a.Category < b.Category
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default: // created_at
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(risks, func(i, j int) bool {
		if desc {
			return less(risks[j], risks[i])
		}
		return less(risks[i], risks[j])
	})
}

// Actions

func (m *Memory) CreateAction(ctx context.Context, a *models.MitigationAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	cp := *a
	m.actions[a.ID] = &cp
	return nil
}

func (m *Memory) GetAction(ctx context.Context, id int64) (*models.MitigationAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok || a.DeletedAt != nil {
		return nil, ErrActionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) UpdateAction(ctx context.Context, a *models.MitigationAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.actions[a.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrActionNotFound
	}
	cp := *a
	m.actions[a.ID] = &cp
	return nil
}

func (m *Memory) SoftDeleteAction(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.actions[id]
	if !ok || a.DeletedAt != nil {
		return ErrActionNotFound
	}
	a.DeletedAt = &at
	return nil
}

func (m *Memory) ListActions(ctx context.Context, f ActionFilter) ([]*models.MitigationAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.MitigationAction
	for _, a := range m.actions {
		if a.DeletedAt != nil {
			continue
		}
		if f.RiskID != 0 && a.RiskID != f.RiskID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.AssignedTo != 0 && a.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Overdue && !a.IsOverdue(f.Now) {
			continue
		}
		if f.VisibleTo != 0 {
			parent, ok := m.risks[a.RiskID]
			ownsParent := ok && parent.DeletedAt == nil && parent.OwnerID == f.VisibleTo
			if !ownsParent && a.AssignedTo != f.VisibleTo {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sortActions(out, f.SortBy, f.SortOrder)
	return pageSlice(out, f.Page, f.PerPage), nil
}

func sortActions(actions []*models.MitigationAction, sortBy, sortOrder string) {
	if sortBy == "priority" {
		// Risk-scoped listings: priority then due date, ascending.
		sort.SliceStable(actions, func(i, j int) bool {
			if actions[i].Priority != actions[j].Priority {
				return actions[i].Priority < actions[j].Priority
			}
			return actions[i].DueDate.Before(actions[j].DueDate)
		})
		return
	}
	desc := sortOrder != "asc"
	less := func(a, b *models.MitigationAction) bool {
		switch sortBy {
		case "due_date":
			return a.DueDate.Before(b.DueDate)
		case "status":
			return a.Status < b.Status
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default: // created_at
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(actions, func(i, j int) bool {
		if desc {
			return less(actions[j], actions[i])
		}
		return less(actions[i], actions[j])
	})
}

// Assessments

func (m *Memory) CreateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate the risk-side write before touching anything.
	if _, ok := m.risks[syncRisk.ID]; !ok || m.risks[syncRisk.ID].DeletedAt != nil {
		return ErrRiskNotFound
	}
	if a.ID == 0 {
		a.ID = m.id()
	}
	cpA := *a
	m.assessments[a.ID] = &cpA
	cpR := *syncRisk
	m.risks[syncRisk.ID] = &cpR
	return nil
}

func (m *Memory) UpdateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assessments[a.ID]; !ok {
		return ErrAssessmentNotFound
	}
	if syncRisk != nil {
		if r, ok := m.risks[syncRisk.ID]; !ok || r.DeletedAt != nil {
			return ErrRiskNotFound
		}
	}
	cpA := *a
	m.assessments[a.ID] = &cpA
	if syncRisk != nil {
		cpR := *syncRisk
		m.risks[syncRisk.ID] = &cpR
	}
	return nil
}

func (m *Memory) GetAssessment(ctx context.Context, id int64) (*models.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, ErrAssessmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) DeleteAssessment(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return ErrAssessmentNotFound
	}
	delete(m.assessments, id)
	return nil
}

func (m *Memory) ListAssessments(ctx context.Context, f AssessmentFilter) ([]*models.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.RiskAssessment
	for _, a := range m.assessments {
		if f.RiskID != 0 && a.RiskID != f.RiskID {
			continue
		}
		if f.AssessorID != 0 && a.AssessorID != f.AssessorID {
			continue
		}
		if f.StartDate != nil && a.AssessmentDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && a.AssessmentDate.After(*f.EndDate) {
			continue
		}
		if f.RiskOwnerID != 0 {
			parent, ok := m.risks[a.RiskID]
			if !ok || parent.DeletedAt != nil || parent.OwnerID != f.RiskOwnerID {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AssessmentDate.Equal(out[j].AssessmentDate) {
			return out[i].AssessmentDate.After(out[j].AssessmentDate)
		}
		return out[i].ID > out[j].ID
	})
	return pageSlice(out, f.Page, f.PerPage), nil
}

func (m *Memory) LatestAssessment(ctx context.Context, riskID int64) (*models.RiskAssessment, error) {
	list, err := m.ListAssessments(ctx, AssessmentFilter{RiskID: riskID})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// Audit

func (m *Memory) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == 0 {
		entry.ID = m.id()
	}
	cp := *entry
	m.audit = append(m.audit, &cp)
	return nil
}

func (m *Memory) ListAudit(ctx context.Context, f AuditFilter) ([]*models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditLog
	for i := len(m.audit) - 1; i >= 0; i-- {
		entry := m.audit[i]
		if f.UserID != 0 && entry.UserID != f.UserID {
			continue
		}
		cp := *entry
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func pageSlice[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
