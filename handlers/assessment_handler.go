package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"riskregister/service"
	"riskregister/store"
	"riskregister/utils"
)

type CreateAssessmentRequest struct {
	LikelihoodBefore *int   `json:"likelihood_before"`
	ImpactBefore     *int   `json:"impact_before"`
	LikelihoodAfter  int    `json:"likelihood_after"`
	ImpactAfter      int    `json:"impact_after"`
	AssessmentNotes  string `json:"assessment_notes"`
	AssessmentDate   string `json:"assessment_date"`
}

type UpdateAssessmentRequest struct {
	LikelihoodBefore *int    `json:"likelihood_before"`
	ImpactBefore     *int    `json:"impact_before"`
	LikelihoodAfter  *int    `json:"likelihood_after"`
	ImpactAfter      *int    `json:"impact_after"`
	AssessmentNotes  *string `json:"assessment_notes"`
	AssessmentDate   *string `json:"assessment_date"`
}

type AssessmentValidator struct{}

func (v *AssessmentValidator) ValidateCreate(req CreateAssessmentRequest) error {
	if req.LikelihoodAfter == 0 {
		return fmt.Errorf("likelihood_after is required")
	}
	if req.ImpactAfter == 0 {
		return fmt.Errorf("impact_after is required")
	}
	if req.AssessmentDate == "" {
		return fmt.Errorf("assessment_date is required")
	}
	return nil
}

var assessmentValidator = &AssessmentValidator{}

func ListAssessments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, perPage := pagination(r)
	q := r.URL.Query()
	startDate, err := parseDatePointer(strPtr(q.Get("start_date")))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	endDate, err := parseDatePointer(strPtr(q.Get("end_date")))
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	filter := store.AssessmentFilter{
		RiskID:     queryInt64(r, "risk_id"),
		AssessorID: queryInt64(r, "assessor_id"),
		StartDate:  startDate,
		EndDate:    endDate,
		Page:       page,
		PerPage:    perPage,
	}

	assessments, err := svc.ListAssessments(r.Context(), user, filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewAssessmentResponses(assessments),
	})
}

// ListRiskAssessments lists a risk's assessment history, newest first.
func ListRiskAssessments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	riskID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := svc.GetRisk(r.Context(), user, riskID); err != nil {
		respondServiceError(w, err)
		return
	}

	assessments, err := svc.ListAssessments(r.Context(), user, store.AssessmentFilter{RiskID: riskID})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewAssessmentResponses(assessments),
	})
}

// CreateRiskAssessment records a new assessment under /risks/{id} and
// syncs the parent risk's score in the same transaction.
func CreateRiskAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	riskID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := assessmentValidator.ValidateCreate(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	assessmentDate, err := parseDate(req.AssessmentDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	assessment, err := svc.CreateAssessment(r.Context(), user, service.CreateAssessmentInput{
		RiskID:           riskID,
		LikelihoodBefore: req.LikelihoodBefore,
		ImpactBefore:     req.ImpactBefore,
		LikelihoodAfter:  req.LikelihoodAfter,
		ImpactAfter:      req.ImpactAfter,
		AssessmentNotes:  req.AssessmentNotes,
		AssessmentDate:   assessmentDate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, NewAssessmentResponse(assessment))
}

func GetAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment, err := svc.GetAssessment(r.Context(), user, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, NewAssessmentResponse(assessment))
}

func UpdateAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	assessmentDate, err := parseDatePointer(req.AssessmentDate)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	assessment, err := svc.UpdateAssessment(r.Context(), user, id, service.UpdateAssessmentInput{
		LikelihoodBefore: req.LikelihoodBefore,
		ImpactBefore:     req.ImpactBefore,
		LikelihoodAfter:  req.LikelihoodAfter,
		ImpactAfter:      req.ImpactAfter,
		AssessmentNotes:  req.AssessmentNotes,
		AssessmentDate:   assessmentDate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, NewAssessmentResponse(assessment))
}

func DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := svc.DeleteAssessment(r.Context(), user, id); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Risk assessment deleted"})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
