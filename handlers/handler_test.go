package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskregister/config"
	"riskregister/middleware"
	"riskregister/models"
	"riskregister/policy"
	"riskregister/service"
	"riskregister/store"
	"riskregister/utils"
)

var handlerNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*store.Memory, *service.Service) {
	t.Helper()
	config.LoadConfig()
	st := store.NewMemory()
	s := service.New(st).WithClock(func() time.Time { return handlerNow })
	Init(s, nil, nil)
	return st, s
}

func newUser(t *testing.T, st *store.Memory, role, email string) *models.User {
	t.Helper()
	u := &models.User{FirstName: "Sam", LastName: "Okafor", Email: email, Role: role, CreatedAt: handlerNow}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

// authed stamps the user into the request context the way AuthMiddleware
// does in production.
func authed(u *models.User, method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUser(req.Context(), u))
}

func TestListRiskActionsOrderedByPriority(t *testing.T) {
	st, s := setup(t)
	manager := newUser(t, st, policy.RoleRiskManager, "manager@example.com")

	risk, err := s.CreateRisk(context.Background(), manager, service.CreateRiskInput{
		Title: "Supplier outage", Description: "d", Category: "operational",
		Likelihood: 2, Impact: 2, IdentifiedDate: handlerNow,
	})
	require.NoError(t, err)

	for _, priority := range []int{3, 1, 2} {
		_, err := s.CreateAction(context.Background(), manager, service.CreateActionInput{
			RiskID:      risk.ID,
			Title:       fmt.Sprintf("action p%d", priority),
			Description: "d",
			AssignedTo:  manager.ID,
			DueDate:     handlerNow.AddDate(0, 0, 30),
			Priority:    priority,
		})
		require.NoError(t, err)
	}

	req := authed(manager, "GET", "/api/v1/risks/1/mitigation-actions")
	req = mux.SetURLVars(req, map[string]string{"id": strconv.FormatInt(risk.ID, 10)})
	rec := httptest.NewRecorder()
	ListRiskActions(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []*ActionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)

	got := make([]int, 0, 3)
	for _, a := range body.Data {
		got = append(got, a.Priority)
	}
	assert.Equal(t, []int{1, 2, 3}, got, "risk-scoped listing sorts by priority")
}

func TestListRisksOwnerFilter(t *testing.T) {
	st, s := setup(t)
	manager := newUser(t, st, policy.RoleRiskManager, "manager@example.com")
	alice := newUser(t, st, policy.RoleRiskOwner, "alice@example.com")
	bob := newUser(t, st, policy.RoleRiskOwner, "bob@example.com")

	for _, owner := range []*models.User{alice, bob} {
		_, err := s.CreateRisk(context.Background(), manager, service.CreateRiskInput{
			Title: "r", Description: "d", Category: "operational",
			Likelihood: 2, Impact: 2, IdentifiedDate: handlerNow,
			OwnerID: owner.ID,
		})
		require.NoError(t, err)
	}

	req := authed(manager, "GET", "/api/v1/risks?owner_id="+strconv.FormatInt(alice.ID, 10))
	rec := httptest.NewRecorder()
	ListRisks(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []*RiskResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, alice.ID, body.Data[0].OwnerID)

	// non-managers cannot widen their scope with the filter
	req = authed(bob, "GET", "/api/v1/risks?owner_id="+strconv.FormatInt(alice.ID, 10))
	rec = httptest.NewRecorder()
	ListRisks(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, bob.ID, body.Data[0].OwnerID)
}

func TestRefreshReissuesToken(t *testing.T) {
	st, _ := setup(t)
	user := newUser(t, st, policy.RoleRiskOwner, "owner@example.com")

	req := authed(user, "POST", "/api/v1/auth/refresh")
	rec := httptest.NewRecorder()
	Refresh(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string        `json:"token"`
		User  *UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, user.ID, body.User.ID)

	claims, err := utils.ValidateJWT(body.Token)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(user.ID, 10), claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
}
