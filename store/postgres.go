package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"riskregister/models"
)

// Postgres persists the register in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Users

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role, department, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, nullString(u.Department), u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, password_hash, role, department, created_at
		FROM users WHERE id = $1`, id))
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, password_hash, role, department, created_at
		FROM users WHERE lower(email) = lower($1)`, email))
}

func (p *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var department sql.NullString
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &department, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Department = department.String
	return u, nil
}

// Risks

const riskColumns = `id, title, description, category, likelihood, impact, risk_score,
	status, owner_id, department, identified_date, target_closure_date,
	actual_closure_date, notes, deleted_at, created_at, updated_at`

func (p *Postgres) CreateRisk(ctx context.Context, r *models.Risk) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO risks (title, description, category, likelihood, impact, risk_score,
			status, owner_id, department, identified_date, target_closure_date, notes,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		r.Title, r.Description, r.Category, r.Likelihood, r.Impact, r.RiskScore,
		r.Status, r.OwnerID, nullString(r.Department), r.IdentifiedDate,
		nullTime(r.TargetClosureDate), nullString(r.Notes), r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
}

func (p *Postgres) GetRisk(ctx context.Context, id int64) (*models.Risk, error) {
	return scanRisk(p.db.QueryRowContext(ctx, `
		SELECT `+riskColumns+` FROM risks
		WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (p *Postgres) UpdateRisk(ctx context.Context, r *models.Risk) error {
	result, err := p.db.ExecContext(ctx, updateRiskSQL,
		r.Title, r.Description, r.Category, r.Likelihood, r.Impact, r.RiskScore,
		r.Status, r.OwnerID, nullString(r.Department), r.IdentifiedDate,
		nullTime(r.TargetClosureDate), nullTime(r.ActualClosureDate),
		nullString(r.Notes), r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrRiskNotFound)
}

const updateRiskSQL = `
	UPDATE risks SET title = $1, description = $2, category = $3, likelihood = $4,
		impact = $5, risk_score = $6, status = $7, owner_id = $8, department = $9,
		identified_date = $10, target_closure_date = $11, actual_closure_date = $12,
		notes = $13, updated_at = $14
	WHERE id = $15 AND deleted_at IS NULL`

func (p *Postgres) SoftDeleteRisk(ctx context.Context, id int64, at time.Time) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE risks SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrRiskNotFound)
}

var riskSortColumns = map[string]string{
	"created_at":      "created_at",
	"updated_at":      "updated_at",
	"risk_score":      "risk_score",
	"likelihood":      "likelihood",
	"impact":          "impact",
	"identified_date": "identified_date",
	"title":           "title",
	"status":          "status",
	"category":        "category",
}

func (p *Postgres) ListRisks(ctx context.Context, f RiskFilter) ([]*models.Risk, error) {
	where := []string{"deleted_at IS NULL"}
	var args []interface{}

	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	switch f.RiskLevel {
	case "high":
		where = append(where, fmt.Sprintf("risk_score >= %d", models.HighRiskThreshold))
	case "medium":
		where = append(where, fmt.Sprintf("risk_score >= %d AND risk_score < %d",
			models.MediumRiskThreshold, models.HighRiskThreshold))
	case "low":
		where = append(where, fmt.Sprintf("risk_score < %d", models.MediumRiskThreshold))
	}
	if f.OwnerID != 0 {
		args = append(args, f.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	query := `SELECT ` + riskColumns + ` FROM risks WHERE ` + strings.Join(where, " AND ") +
		orderClause(riskSortColumns, f.SortBy, f.SortOrder) + limitClause(f.Page, f.PerPage)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var risks []*models.Risk
	for rows.Next() {
		r, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		risks = append(risks, r)
	}
	return risks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRisk(row rowScanner) (*models.Risk, error) {
	r := &models.Risk{}
	var (
		department, notes            sql.NullString
		targetClosure, actualClosure sql.NullTime
		deletedAt                    sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &r.Likelihood,
		&r.Impact, &r.RiskScore, &r.Status, &r.OwnerID, &department,
		&r.IdentifiedDate, &targetClosure, &actualClosure, &notes, &deletedAt,
		&r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRiskNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Department = department.String
	r.Notes = notes.String
	r.TargetClosureDate = timePtr(targetClosure)
	r.ActualClosureDate = timePtr(actualClosure)
	r.DeletedAt = timePtr(deletedAt)
	return r, nil
}

// Mitigation actions

const actionColumns = `id, risk_id, title, description, status, assigned_to, due_date,
	completed_date, priority, cost_estimate, notes, deleted_at, created_at, updated_at`

func (p *Postgres) CreateAction(ctx context.Context, a *models.MitigationAction) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO mitigation_actions (risk_id, title, description, status, assigned_to,
			due_date, priority, cost_estimate, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		a.RiskID, a.Title, a.Description, a.Status, a.AssignedTo, a.DueDate,
		nullInt(a.Priority), nullFloat(a.CostEstimate), nullString(a.Notes),
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (p *Postgres) GetAction(ctx context.Context, id int64) (*models.MitigationAction, error) {
	return scanAction(p.db.QueryRowContext(ctx, `
		SELECT `+actionColumns+` FROM mitigation_actions
		WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (p *Postgres) UpdateAction(ctx context.Context, a *models.MitigationAction) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE mitigation_actions SET title = $1, description = $2, status = $3,
			assigned_to = $4, due_date = $5, completed_date = $6, priority = $7,
			cost_estimate = $8, notes = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL`,
		a.Title, a.Description, a.Status, a.AssignedTo, a.DueDate,
		nullTime(a.CompletedDate), nullInt(a.Priority), nullFloat(a.CostEstimate),
		nullString(a.Notes), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrActionNotFound)
}

func (p *Postgres) SoftDeleteAction(ctx context.Context, id int64, at time.Time) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE mitigation_actions SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrActionNotFound)
}

var actionSortColumns = map[string]string{
	"created_at": "a.created_at",
	"updated_at": "a.updated_at",
	"due_date":   "a.due_date",
	"status":     "a.status",
}

func (p *Postgres) ListActions(ctx context.Context, f ActionFilter) ([]*models.MitigationAction, error) {
	where := []string{"a.deleted_at IS NULL"}
	var args []interface{}

	if f.RiskID != 0 {
		args = append(args, f.RiskID)
		where = append(where, fmt.Sprintf("a.risk_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.AssignedTo != 0 {
		args = append(args, f.AssignedTo)
		where = append(where, fmt.Sprintf("a.assigned_to = $%d", len(args)))
	}
	if f.Overdue {
		args = append(args, f.Now)
		where = append(where, fmt.Sprintf(
			"a.status NOT IN ('completed', 'cancelled') AND a.due_date < $%d::date", len(args)))
	}
	if f.VisibleTo != 0 {
		args = append(args, f.VisibleTo)
		where = append(where, fmt.Sprintf("(r.owner_id = $%d OR a.assigned_to = $%d)",
			len(args), len(args)))
	}

	var order string
	if f.SortBy == "priority" {
		order = " ORDER BY a.priority NULLS LAST, a.due_date"
	} else {
		order = orderClause(actionSortColumns, f.SortBy, f.SortOrder)
	}

	query := `SELECT ` + actionSelectColumns() + `
		FROM mitigation_actions a
		JOIN risks r ON r.id = a.risk_id AND r.deleted_at IS NULL
		WHERE ` + strings.Join(where, " AND ") + order + limitClause(f.Page, f.PerPage)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var actions []*models.MitigationAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func actionSelectColumns() string {
	cols := strings.Split(actionColumns, ",")
	for i, c := range cols {
		cols[i] = "a." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanAction(row rowScanner) (*models.MitigationAction, error) {
	a := &models.MitigationAction{}
	var (
		completed, deletedAt sql.NullTime
		priority             sql.NullInt64
		cost                 sql.NullFloat64
		notes                sql.NullString
	)
	err := row.Scan(&a.ID, &a.RiskID, &a.Title, &a.Description, &a.Status,
		&a.AssignedTo, &a.DueDate, &completed, &priority, &cost, &notes,
		&deletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrActionNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CompletedDate = timePtr(completed)
	a.Priority = int(priority.Int64)
	if cost.Valid {
		a.CostEstimate = &cost.Float64
	}
	a.Notes = notes.String
	a.DeletedAt = timePtr(deletedAt)
	return a, nil
}

// Assessments

const assessmentColumns = `id, risk_id, assessor_id, likelihood_before, impact_before,
	risk_score_before, likelihood_after, impact_after, risk_score_after,
	assessment_notes, assessment_date, created_at, updated_at`

// CreateAssessment inserts the assessment and rewrites the parent risk's
// likelihood/impact/score in one transaction. A failure on either side
// rolls back both writes.
func (p *Postgres) CreateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO risk_assessments (risk_id, assessor_id, likelihood_before,
			impact_before, risk_score_before, likelihood_after, impact_after,
			risk_score_after, assessment_notes, assessment_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		a.RiskID, a.AssessorID, nullIntPtr(a.LikelihoodBefore), nullIntPtr(a.ImpactBefore),
		nullFloat(a.RiskScoreBefore), a.LikelihoodAfter, a.ImpactAfter, a.RiskScoreAfter,
		nullString(a.AssessmentNotes), a.AssessmentDate, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return err
	}

	if err := syncRiskInTx(ctx, tx, syncRisk); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) UpdateAssessment(ctx context.Context, a *models.RiskAssessment, syncRisk *models.Risk) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE risk_assessments SET likelihood_before = $1, impact_before = $2,
			risk_score_before = $3, likelihood_after = $4, impact_after = $5,
			risk_score_after = $6, assessment_notes = $7, assessment_date = $8,
			updated_at = $9
		WHERE id = $10`,
		nullIntPtr(a.LikelihoodBefore), nullIntPtr(a.ImpactBefore),
		nullFloat(a.RiskScoreBefore), a.LikelihoodAfter, a.ImpactAfter,
		a.RiskScoreAfter, nullString(a.AssessmentNotes), a.AssessmentDate,
		a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	if err := requireRow(result, ErrAssessmentNotFound); err != nil {
		return err
	}

	if syncRisk != nil {
		if err := syncRiskInTx(ctx, tx, syncRisk); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func syncRiskInTx(ctx context.Context, tx *sql.Tx, r *models.Risk) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE risks SET likelihood = $1, impact = $2, risk_score = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL`,
		r.Likelihood, r.Impact, r.RiskScore, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrRiskNotFound)
}

func (p *Postgres) GetAssessment(ctx context.Context, id int64) (*models.RiskAssessment, error) {
	return scanAssessment(p.db.QueryRowContext(ctx, `
		SELECT `+assessmentColumns+` FROM risk_assessments WHERE id = $1`, id))
}

func (p *Postgres) DeleteAssessment(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM risk_assessments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrAssessmentNotFound)
}

func (p *Postgres) ListAssessments(ctx context.Context, f AssessmentFilter) ([]*models.RiskAssessment, error) {
	where := []string{"1=1"}
	var args []interface{}

	if f.RiskID != 0 {
		args = append(args, f.RiskID)
		where = append(where, fmt.Sprintf("s.risk_id = $%d", len(args)))
	}
	if f.AssessorID != 0 {
		args = append(args, f.AssessorID)
		where = append(where, fmt.Sprintf("s.assessor_id = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		where = append(where, fmt.Sprintf("s.assessment_date >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		where = append(where, fmt.Sprintf("s.assessment_date <= $%d", len(args)))
	}
	if f.RiskOwnerID != 0 {
		args = append(args, f.RiskOwnerID)
		where = append(where, fmt.Sprintf("r.owner_id = $%d", len(args)))
	}

	query := `SELECT ` + assessmentSelectColumns() + `
		FROM risk_assessments s
		JOIN risks r ON r.id = s.risk_id AND r.deleted_at IS NULL
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY s.assessment_date DESC, s.id DESC` + limitClause(f.Page, f.PerPage)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var assessments []*models.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

func assessmentSelectColumns() string {
	cols := strings.Split(assessmentColumns, ",")
	for i, c := range cols {
		cols[i] = "s." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func (p *Postgres) LatestAssessment(ctx context.Context, riskID int64) (*models.RiskAssessment, error) {
	a, err := scanAssessment(p.db.QueryRowContext(ctx, `
		SELECT `+assessmentColumns+` FROM risk_assessments
		WHERE risk_id = $1
		ORDER BY assessment_date DESC, id DESC
		LIMIT 1`, riskID))
	if err == ErrAssessmentNotFound {
		return nil, nil
	}
	return a, err
}

func scanAssessment(row rowScanner) (*models.RiskAssessment, error) {
	a := &models.RiskAssessment{}
	var (
		likelihoodBefore, impactBefore sql.NullInt64
		scoreBefore                    sql.NullFloat64
		notes                          sql.NullString
	)
	err := row.Scan(&a.ID, &a.RiskID, &a.AssessorID, &likelihoodBefore, &impactBefore,
		&scoreBefore, &a.LikelihoodAfter, &a.ImpactAfter, &a.RiskScoreAfter,
		&notes, &a.AssessmentDate, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, err
	}
	a.LikelihoodBefore = intPtr(likelihoodBefore)
	a.ImpactBefore = intPtr(impactBefore)
	if scoreBefore.Valid {
		a.RiskScoreBefore = &scoreBefore.Float64
	}
	a.AssessmentNotes = notes.String
	return a, nil
}

// Audit

func (p *Postgres) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	return p.db.QueryRowContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, details, entry.CreatedAt,
	).Scan(&entry.ID)
}

func (p *Postgres) ListAudit(ctx context.Context, f AuditFilter) ([]*models.AuditLog, error) {
	where := "1=1"
	var args []interface{}
	if f.UserID != 0 {
		args = append(args, f.UserID)
		where = "user_id = $1"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, where, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.AuditLog
	for rows.Next() {
		entry := &models.AuditLog{}
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.EntityType,
			&entry.EntityID, &details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			_ = json.Unmarshal(details, &entry.Details)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Helpers

func requireRow(result sql.Result, missing error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return missing
	}
	return nil
}

func orderClause(whitelist map[string]string, sortBy, sortOrder string) string {
	col, ok := whitelist[sortBy]
	if !ok {
		col = whitelist["created_at"]
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", col, dir)
}

func limitClause(page, perPage int) string {
	if perPage <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", perPage, (page-1)*perPage)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	value := int(v.Int64)
	return &value
}
