package handlers

import (
	"net/http"
	"strconv"

	"riskregister/store"
	"riskregister/utils"
)

// ListAuditLogs returns recent audit entries, newest first. Actors
// without manage-system see only their own entries.
func ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := svc.ListAudit(r.Context(), user, store.AuditFilter{
		UserID: queryInt64(r, "user_id"),
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}
