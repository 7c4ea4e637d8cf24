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

type CreateActionRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	AssignedTo   int64    `json:"assigned_to"`
	DueDate      string   `json:"due_date"`
	Priority     int      `json:"priority"`
	CostEstimate *float64 `json:"cost_estimate"`
	Notes        string   `json:"notes"`
}

type UpdateActionRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Status       *string  `json:"status"`
	AssignedTo   *int64   `json:"assigned_to"`
	DueDate      *string  `json:"due_date"`
	Priority     *int     `json:"priority"`
	CostEstimate *float64 `json:"cost_estimate"`
	Notes        *string  `json:"notes"`
}

type ActionValidator struct{}

func (v *ActionValidator) ValidateCreate(req CreateActionRequest) error {
	if req.Title == "" || len(req.Title) > 200 {
		return fmt.Errorf("title is required and must be less than 200 characters")
	}
	if req.Description == "" {
		return fmt.Errorf("description is required")
	}
	if req.AssignedTo == 0 {
		return fmt.Errorf("assigned_to is required")
	}
	if req.DueDate == "" {
		return fmt.Errorf("due_date is required")
	}
	return nil
}

func (v *ActionValidator) ValidateUpdate(req UpdateActionRequest) error {
	if req.Title != nil && len(*req.Title) > 200 {
		return fmt.Errorf("title must be less than 200 characters")
	}
	return nil
}

var actionValidator = &ActionValidator{}

func ListActions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, perPage := pagination(r)
	q := r.URL.Query()
	filter := store.ActionFilter{
		RiskID:     queryInt64(r, "risk_id"),
		Status:     q.Get("status"),
		AssignedTo: queryInt64(r, "assigned_to"),
		Overdue:    q.Get("overdue") == "true",
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		Page:       page,
		PerPage:    perPage,
	}

	actions, err := svc.ListActions(r.Context(), user, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewActionResponses(actions, time.Now()),
	})
}

// ListRiskActions lists the actions attached to one risk.
func ListRiskActions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	riskID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve the risk first so a missing id is a 404, not an empty list
	if _, err := svc.GetRisk(r.Context(), user, riskID); err != nil {
		respondServiceError(w, err)
		return
	}

	actions, err := svc.ListActions(r.Context(), user, store.ActionFilter{RiskID: riskID, SortBy: "priority"})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewActionResponses(actions, time.Now()),
	})
}

// CreateRiskAction creates a mitigation action under /risks/{id}.
func CreateRiskAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	riskID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := actionValidator.ValidateCreate(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	action, err := svc.CreateAction(r.Context(), user, service.CreateActionInput{
		RiskID:       riskID,
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		AssignedTo:   req.AssignedTo,
		DueDate:      dueDate,
		Priority:     req.Priority,
		CostEstimate: req.CostEstimate,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, NewActionResponse(action, time.Now()))
}

func GetAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	action, err := svc.GetAction(r.Context(), user, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, NewActionResponse(action, time.Now()))
}

func UpdateAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := actionValidator.ValidateUpdate(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dueDate, err := parseDatePointer(req.DueDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	action, err := svc.UpdateAction(r.Context(), user, id, service.UpdateActionInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		AssignedTo:   req.AssignedTo,
		DueDate:      dueDate,
		Priority:     req.Priority,
		CostEstimate: req.CostEstimate,
		Notes:        req.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, NewActionResponse(action, time.Now()))
}

func DeleteAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := svc.DeleteAction(r.Context(), user, id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Mitigation action deleted"})
}
