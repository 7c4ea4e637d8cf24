package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"riskregister/utils"
)

func GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	stats, err := svc.Dashboard(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func GetRiskSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summary, err := svc.RiskSummaryReport(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, summary)
}

func GetRiskMatrix(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	matrix, err := svc.RiskMatrix(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"matrix": matrix,
	})
}

func GetRisksByCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summaries, err := svc.RisksByCategory(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

func GetRisksByDepartment(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summaries, err := svc.RisksByDepartment(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

func GetOverdueActions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reports, err := svc.OverdueActions(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": reports})
}

func GetHighRiskItems(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	risks, err := svc.HighRiskItems(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data": NewRiskResponses(risks),
	})
}

// ExportRiskRegister streams the visible register as CSV, highest score
// first.
func ExportRiskRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	risks, err := svc.ExportRiskRegister(r.Context(), user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-register.csv"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"id", "title", "category", "status", "likelihood", "impact",
		"risk_score", "risk_level", "owner_id", "department", "identified_date"})
	for _, risk := range risks {
		cw.Write([]string{
			fmt.Sprintf("%d", risk.ID),
			risk.Title,
			risk.Category,
			risk.Status,
			fmt.Sprintf("%d", risk.Likelihood),
			fmt.Sprintf("%d", risk.Impact),
			fmt.Sprintf("%.1f", risk.RiskScore),
			risk.RiskLevel(),
			fmt.Sprintf("%d", risk.OwnerID),
			risk.Department,
			fmtDate(risk.IdentifiedDate),
		})
	}
}
