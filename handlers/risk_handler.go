package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"riskregister/service"
	"riskregister/store"
	"riskregister/utils"
)

type CreateRiskRequest struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Likelihood        int     `json:"likelihood"`
	Impact            int     `json:"impact"`
	Status            string  `json:"status"`
	OwnerID           int64   `json:"owner_id"`
	Department        string  `json:"department"`
	IdentifiedDate    string  `json:"identified_date"`
	TargetClosureDate *string `json:"target_closure_date"`
	Notes             string  `json:"notes"`
}

type UpdateRiskRequest struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	Category          *string `json:"category"`
	Likelihood        *int    `json:"likelihood"`
	Impact            *int    `json:"impact"`
	Status            *string `json:"status"`
	OwnerID           *int64  `json:"owner_id"`
	Department        *string `json:"department"`
	IdentifiedDate    *string `json:"identified_date"`
	TargetClosureDate *string `json:"target_closure_date"`
	ActualClosureDate *string `json:"actual_closure_date"`
	Notes             *string `json:"notes"`
}

type RiskValidator struct{}

func (v *RiskValidator) ValidateCreate(req CreateRiskRequest) error {
	if req.Title == "" || len(req.Title) > 200 {
		return fmt.Errorf("title is required and must be less than 200 characters")
	}
	if req.Description == "" {
		return fmt.Errorf("description is required")
	}
	if req.Category == "" {
		return fmt.Errorf("category is required")
	}
	if req.IdentifiedDate == "" {
		return fmt.Errorf("identified_date is required")
	}
	return nil
}

func (v *RiskValidator) ValidateUpdate(req UpdateRiskRequest) error {
	if req.Title != nil && len(*req.Title) > 200 {
		return fmt.Errorf("title must be less than 200 characters")
	}
	return nil
}

var riskValidator = &RiskValidator{}

func ListRisks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, perPage := pagination(r)
	q := r.URL.Query()
	filter := store.RiskFilter{
		Category:  q.Get("category"),
		Status:    q.Get("status"),
		RiskLevel: q.Get("risk_level"),
		OwnerID:   queryInt64(r, "owner_id"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Page:      page,
		PerPage:   perPage,
	}

	risks, err := svc.ListRisks(r.Context(), user, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewRiskResponses(risks),
	})
}

func CreateRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := riskValidator.ValidateCreate(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	identified, err := parseDate(req.IdentifiedDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	targetClosure, err := parseDatePointer(req.TargetClosureDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	risk, err := svc.CreateRisk(r.Context(), user, service.CreateRiskInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Likelihood:        req.Likelihood,
		Impact:            req.Impact,
		Status:            req.Status,
		OwnerID:           req.OwnerID,
		Department:        req.Department,
		IdentifiedDate:    identified,
		TargetClosureDate: targetClosure,
		Notes:             req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, NewRiskResponse(risk))
}

func GetRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	risk, err := svc.GetRisk(r.Context(), user, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	detail := &RiskDetailResponse{RiskResponse: NewRiskResponse(risk)}

	if owner, err := svc.GetUser(r.Context(), risk.OwnerID); err == nil {
		detail.Owner = NewUserResponse(owner)
	}

	actions, err := svc.ListActions(r.Context(), user, store.ActionFilter{RiskID: risk.ID, SortBy: "priority"})
	if err == nil {
		detail.Actions = NewActionResponses(actions, time.Now())
	} else {
		detail.Actions = []*ActionResponse{}
	}

	if latest, err := svc.LatestAssessment(r.Context(), user, risk.ID); err == nil && latest != nil {
		detail.LatestAssessment = NewAssessmentResponse(latest)
	}

	utils.RespondWithJSON(w, http.StatusOK, detail)
}

func UpdateRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := riskValidator.ValidateUpdate(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	identified, err := parseDatePointer(req.IdentifiedDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	targetClosure, err := parseDatePointer(req.TargetClosureDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	actualClosure, err := parseDatePointer(req.ActualClosureDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	risk, err := svc.UpdateRisk(r.Context(), user, id, service.UpdateRiskInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Likelihood:        req.Likelihood,
		Impact:            req.Impact,
		Status:            req.Status,
		OwnerID:           req.OwnerID,
		Department:        req.Department,
		IdentifiedDate:    identified,
		TargetClosureDate: targetClosure,
		ActualClosureDate: actualClosure,
		Notes:             req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, NewRiskResponse(risk))
}

func DeleteRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := svc.DeleteRisk(r.Context(), user, id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Risk deleted"})
}
