package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"riskregister/middleware"
	"riskregister/models"
	"riskregister/service"
	"riskregister/store"
	"riskregister/utils"
)

// currentUser pulls the authenticated user from context, responding 401
// if the middleware did not run.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// respondServiceError maps domain errors onto status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case store.IsNotFound(err):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.As(err, &ve):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, ve.Message)
	case errors.Is(err, service.ErrConflict):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		log.Printf("Internal error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parseDate parses a required YYYY-MM-DD value.
func parseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected YYYY-MM-DD")
	}
	return t, nil
}

// parseDatePointer parses an optional YYYY-MM-DD value.
func parseDatePointer(dateStr *string) (*time.Time, error) {
	if dateStr == nil || *dateStr == "" {
		return nil, nil
	}
	t, err := parseDate(*dateStr)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// pagination reads page/per_page query params. per_page defaults to 15
// and is capped at 100.
func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

func queryInt64(r *http.Request, key string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return v
}
