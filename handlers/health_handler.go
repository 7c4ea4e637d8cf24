package handlers

import (
	"net/http"

	"riskregister/utils"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if db != nil {
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	utils.RespondWithJSON(w, code, map[string]string{"status": status})
}
