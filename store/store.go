// Package store persists risk-register entities. Two implementations: a
// PostgreSQL store for production and an in-memory store for tests. Both
// honor soft deletion for risks and mitigation actions (tombstoned rows
// are excluded everywhere) and the atomic assessment/risk sync pair.
package store

import (
	"context"
	"errors"
	"time"

	"riskregister/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRiskNotFound       = errors.New("risk not found")
	ErrActionNotFound     = errors.New("mitigation action not found")
	ErrAssessmentNotFound = errors.New("risk assessment not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRiskNotFound) ||
		errors.Is(err, ErrActionNotFound) ||
		errors.Is(err, ErrAssessmentNotFound)
}

// RiskFilter narrows and orders risk listings. Zero values mean "no
// restriction". OwnerID scopes to a single owner; the service sets it for
// actors without the manage-all override.
type RiskFilter struct {
	Category  string
	Status    string
	RiskLevel string // low|medium|high, translated to score predicates
	OwnerID   int64
	SortBy    string // whitelisted column, default created_at
	SortOrder string // asc|desc, default desc
	Page      int
	PerPage   int // 0 = unpaginated
}

// ActionFilter narrows mitigation action listings. VisibleTo matches
// actions whose parent risk is owned by the user OR that are assigned to
// the user.
type ActionFilter struct {
	RiskID     int64
	Status     string
	AssignedTo int64
	Overdue    bool
	Now        time.Time // reference date for Overdue
	VisibleTo  int64
	SortBy     string
	SortOrder  string
	Page       int
	PerPage    int
}

// AssessmentFilter narrows assessment listings. Results are always ordered
// assessment_date descending, id descending.
type AssessmentFilter struct {
	RiskID      int64
	AssessorID  int64
	StartDate   *time.Time
	EndDate     *time.Time
	RiskOwnerID int64 // scope to risks owned by this user
	Page        int
	PerPage     int
}

// AuditFilter narrows audit log listings, newest first.
type AuditFilter struct {
	UserID int64
	Limit  int
}

type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Risks
	CreateRisk(ctx context.Context, r *models.Risk) error
	GetRisk(ctx context.Context, id int64) (*models.Risk, error)
	UpdateRisk(ctx context.Context, r *models.Risk) error
	SoftDeleteRisk(ctx context.Context, id int64, at time.Time) error
	ListRisks(ctx context.Context, f RiskFilter) ([]*models.Risk, error)

	// Mitigation actions
	CreateAction(ctx context.Context, a *models.MitigationAction) error
	GetAction(ctx context.Context, id int64) (*models.MitigationAction, error)
	UpdateAction(ctx context.Context, a *models.MitigationAction) error
	SoftDeleteAction(ctx context.Context, id int64, at time.Time) error
	ListActions(ctx context.Context, f ActionFilter) ([]*models.MitigationAction, error)

	// Assessments. Create and Update take the already-synced parent risk
	// and persist both records atomically: either both commit or neither.
	CreateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error
	UpdateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error
	GetAssessment(ctx context.Context, id int64) (*models.RiskAssessment, error)
	DeleteAssessment(ctx context.Context, id int64) error
	ListAssessments(ctx context.Context, f AssessmentFilter) ([]*models.RiskAssessment, error)
	// LatestAssessment returns (nil, nil) when the risk has none. Ties on
	// assessment_date break toward the higher id.
	LatestAssessment(ctx context.Context, riskID int64) (*models.RiskAssessment, error)

	// Audit trail
	AppendAudit(ctx context.Context, entry *models.AuditLog) error
	ListAudit(ctx context.Context, f AuditFilter) ([]*models.AuditLog, error)
}
