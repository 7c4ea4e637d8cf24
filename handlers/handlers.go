// Package handlers is the HTTP layer: request decoding, structural
// validation, and translation of domain errors into status codes. All
// domain rules live in the service package.
package handlers

import (
	"database/sql"

	"riskregister/service"
	"riskregister/websocket"
)

var (
	svc *service.Service
	hub *websocket.Hub
	db  *sql.DB
)

// Init wires the package to its collaborators. Call once at startup
// before registering routes.
func Init(s *service.Service, h *websocket.Hub, sqlDB *sql.DB) {
	svc = s
	hub = h
	db = sqlDB
}
