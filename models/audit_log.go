// models/audit_log.go
package models

import (
	"time"
)

type AuditLog struct {
	ID         int64                  `json:"id"`
	UserID     int64                  `json:"user_id"`
	Action     string                 `json:"action"` // e.g. "risk_create", "action_update", "assessment_delete"
	EntityType string                 `json:"entity_type"`
	EntityID   int64                  `json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
