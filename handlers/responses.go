package handlers

import (
	"time"

	"riskregister/models"
)

// Response shapes returned to API clients. Derived display fields
// (labels, levels, overdue flags) are computed here so clients never
// re-derive them.

type UserResponse struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
}

func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		FullName:   u.FullName(),
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

type RiskResponse struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	CategoryLabel     string  `json:"category_label"`
	Likelihood        int     `json:"likelihood"`
	Impact            int     `json:"impact"`
	RiskScore         float64 `json:"risk_score"`
	RiskLevel         string  `json:"risk_level"`
	IsHighRisk        bool    `json:"is_high_risk"`
	Status            string  `json:"status"`
	StatusLabel       string  `json:"status_label"`
	OwnerID           int64   `json:"owner_id"`
	Department        string  `json:"department,omitempty"`
	IdentifiedDate    string  `json:"identified_date"`
	TargetClosureDate *string `json:"target_closure_date,omitempty"`
	ActualClosureDate *string `json:"actual_closure_date,omitempty"`
	Notes             string  `json:"notes,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func NewRiskResponse(r *models.Risk) *RiskResponse {
	return &RiskResponse{
		ID:                r.ID,
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		CategoryLabel:     models.RiskCategories[r.Category],
		Likelihood:        r.Likelihood,
		Impact:            r.Impact,
		RiskScore:         r.RiskScore,
		RiskLevel:         r.RiskLevel(),
		IsHighRisk:        r.IsHighRisk(),
		Status:            r.Status,
		StatusLabel:       models.RiskStatuses[r.Status],
		OwnerID:           r.OwnerID,
		Department:        r.Department,
		IdentifiedDate:    fmtDate(r.IdentifiedDate),
		TargetClosureDate: fmtDatePtr(r.TargetClosureDate),
		ActualClosureDate: fmtDatePtr(r.ActualClosureDate),
		Notes:             r.Notes,
		CreatedAt:         fmtTime(r.CreatedAt),
		UpdatedAt:         fmtTime(r.UpdatedAt),
	}
}

func NewRiskResponses(risks []*models.Risk) []*RiskResponse {
	out := make([]*RiskResponse, 0, len(risks))
	for _, r := range risks {
		out = append(out, NewRiskResponse(r))
	}
	return out
}

// RiskDetailResponse is the single-risk view with its owner, open
// actions, and latest assessment embedded.
type RiskDetailResponse struct {
	*RiskResponse
	Owner            *UserResponse       `json:"owner,omitempty"`
	Actions          []*ActionResponse   `json:"mitigation_actions"`
	LatestAssessment *AssessmentResponse `json:"latest_assessment,omitempty"`
}

type ActionResponse struct {
	ID            int64    `json:"id"`
	RiskID        int64    `json:"risk_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	StatusLabel   string   `json:"status_label"`
	AssignedTo    int64    `json:"assigned_to"`
	DueDate       string   `json:"due_date"`
	CompletedDate *string  `json:"completed_date,omitempty"`
	Priority      int      `json:"priority,omitempty"`
	PriorityLabel string   `json:"priority_label"`
	CostEstimate  *float64 `json:"cost_estimate,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	IsOverdue     bool     `json:"is_overdue"`
	DaysUntilDue  int      `json:"days_until_due"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func NewActionResponse(a *models.MitigationAction, now time.Time) *ActionResponse {
	return &ActionResponse{
		ID:            a.ID,
		RiskID:        a.RiskID,
		Title:         a.Title,
		Description:   a.Description,
		Status:        a.Status,
		StatusLabel:   models.ActionStatuses[a.Status],
		AssignedTo:    a.AssignedTo,
		DueDate:       fmtDate(a.DueDate),
		CompletedDate: fmtDatePtr(a.CompletedDate),
		Priority:      a.Priority,
		PriorityLabel: a.PriorityLabel(),
		CostEstimate:  a.CostEstimate,
		Notes:         a.Notes,
		IsOverdue:     a.IsOverdue(now),
		DaysUntilDue:  a.DaysUntilDue(now),
		CreatedAt:     fmtTime(a.CreatedAt),
		UpdatedAt:     fmtTime(a.UpdatedAt),
	}
}

func NewActionResponses(actions []*models.MitigationAction, now time.Time) []*ActionResponse {
	out := make([]*ActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, NewActionResponse(a, now))
	}
	return out
}

type AssessmentResponse struct {
	ID                    int64    `json:"id"`
	RiskID                int64    `json:"risk_id"`
	AssessorID            int64    `json:"assessor_id"`
	LikelihoodBefore      *int     `json:"likelihood_before,omitempty"`
	ImpactBefore          *int     `json:"impact_before,omitempty"`
	RiskScoreBefore       *float64 `json:"risk_score_before,omitempty"`
	LikelihoodAfter       int      `json:"likelihood_after"`
	ImpactAfter           int      `json:"impact_after"`
	RiskScoreAfter        float64  `json:"risk_score_after"`
	RiskImprovement       *float64 `json:"risk_improvement,omitempty"`
	ImprovementPercentage *float64 `json:"improvement_percentage,omitempty"`
	AssessmentNotes       string   `json:"assessment_notes,omitempty"`
	AssessmentDate        string   `json:"assessment_date"`
	CreatedAt             string   `json:"created_at"`
	UpdatedAt             string   `json:"updated_at"`
}

func NewAssessmentResponse(a *models.RiskAssessment) *AssessmentResponse {
	return &AssessmentResponse{
		ID:                    a.ID,
		RiskID:                a.RiskID,
		AssessorID:            a.AssessorID,
		LikelihoodBefore:      a.LikelihoodBefore,
		ImpactBefore:          a.ImpactBefore,
		RiskScoreBefore:       a.RiskScoreBefore,
		LikelihoodAfter:       a.LikelihoodAfter,
		ImpactAfter:           a.ImpactAfter,
		RiskScoreAfter:        a.RiskScoreAfter,
		RiskImprovement:       a.RiskImprovement(),
		ImprovementPercentage: a.ImprovementPercentage(),
		AssessmentNotes:       a.AssessmentNotes,
		AssessmentDate:        fmtDate(a.AssessmentDate),
		CreatedAt:             fmtTime(a.CreatedAt),
		UpdatedAt:             fmtTime(a.UpdatedAt),
	}
}

func NewAssessmentResponses(assessments []*models.RiskAssessment) []*AssessmentResponse {
	out := make([]*AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		out = append(out, NewAssessmentResponse(a))
	}
	return out
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
