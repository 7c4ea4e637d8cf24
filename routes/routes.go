package routes

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riskregister/handlers"
	"riskregister/middleware"
	"riskregister/store"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly    = []string{"GET", "OPTIONS"}
	MethodsPostOnly   = []string{"POST", "OPTIONS"}
	MethodsPutOnly    = []string{"PUT", "OPTIONS"}
	MethodsDeleteOnly = []string{"DELETE", "OPTIONS"}
)

const (
	PathAPI    = "/api/v1"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router, st store.Store) {
	// ====================
	// PUBLIC ROUTES
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)
	r.Handle("/metrics", promhttp.Handler()).Methods(MethodsGetOnly...)

	r.HandleFunc(PathAPI+"/auth/register", handlers.Register).Methods(MethodsPostOnly...)
	r.HandleFunc(PathAPI+"/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc(PathAPI+"/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(st))

	apiRouter.HandleFunc("/auth/refresh", handlers.Refresh).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/auth/me", handlers.Me).Methods(MethodsGetOnly...)

	// ====================
	// RISKS
	// ====================
	apiRouter.HandleFunc("/risks", handlers.ListRisks).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risks", handlers.CreateRisk).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/risks/{id}", handlers.GetRisk).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risks/{id}", handlers.UpdateRisk).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/risks/{id}", handlers.DeleteRisk).Methods(MethodsDeleteOnly...)

	// Nested collections
	apiRouter.HandleFunc("/risks/{id}/mitigation-actions", handlers.ListRiskActions).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risks/{id}/mitigation-actions", handlers.CreateRiskAction).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/risks/{id}/assessments", handlers.ListRiskAssessments).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risks/{id}/assessments", handlers.CreateRiskAssessment).Methods(MethodsPostOnly...)

	// ====================
	// MITIGATION ACTIONS
	// ====================
	apiRouter.HandleFunc("/mitigation-actions", handlers.ListActions).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/mitigation-actions/{id}", handlers.GetAction).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/mitigation-actions/{id}", handlers.UpdateAction).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/mitigation-actions/{id}", handlers.DeleteAction).Methods(MethodsDeleteOnly...)

	// ====================
	// RISK ASSESSMENTS (creation goes through the parent risk)
	// ====================
	apiRouter.HandleFunc("/risk-assessments", handlers.ListAssessments).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risk-assessments/{id}", handlers.GetAssessment).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/risk-assessments/{id}", handlers.UpdateAssessment).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/risk-assessments/{id}", handlers.DeleteAssessment).Methods(MethodsDeleteOnly...)

	// ====================
	// REPORTS
	// ====================
	apiRouter.HandleFunc("/reports/dashboard", handlers.GetDashboard).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/risk-summary", handlers.GetRiskSummary).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/risk-matrix", handlers.GetRiskMatrix).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/risks-by-category", handlers.GetRisksByCategory).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/risks-by-department", handlers.GetRisksByDepartment).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/overdue-actions", handlers.GetOverdueActions).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/high-risk-items", handlers.GetHighRiskItems).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/reports/export", handlers.ExportRiskRegister).Methods(MethodsGetOnly...)

	// ====================
	// AUDIT + LIVE UPDATES
	// ====================
	apiRouter.HandleFunc("/audit-logs", handlers.ListAuditLogs).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/ws", handlers.StreamUpdates)
}
