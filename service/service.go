// Package service implements the risk-register domain operations. Every
// operation takes the acting user explicitly; nothing in this package
// reads identity from context or other ambient state. Authorization is
// enforced here (capability + ownership), not only at the router.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"riskregister/models"
	"riskregister/policy"
	"riskregister/store"
)

var highRiskAlerts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "riskregister",
	Subsystem: "risks",
	Name:      "high_risk_alerts_total",
	Help:      "High-risk notifications emitted.",
})

// ErrForbidden is returned when the actor lacks both ownership and the
// overriding capability for an operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned by Authenticate for a bad email or
// password, deliberately without distinguishing which.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrConflict is reserved for operations rejected by concurrent state.
// Nothing returns it yet; writes are last-write-wins.
var ErrConflict = errors.New("conflicting state")

// ValidationError reports input that violates a domain constraint. The
// HTTP layer owns structural validation; these are the defensive checks
// the domain re-applies regardless (rating ranges, enum membership,
// foreign references).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Broadcaster pushes entity change events to connected clients. Nil is
// allowed and means no live updates.
type Broadcaster interface {
	BroadcastEvent(event string, payload interface{})
}

// Service wires the domain operations to a store. The clock and the
// high-risk notifier are injectable for tests.
type Service struct {
	store       store.Store
	now         func() time.Time
	notifyHigh  func(*models.Risk)
	broadcaster Broadcaster
}

func New(st store.Store) *Service {
	return &Service{
		store: st,
		now:   time.Now,
		notifyHigh: func(r *models.Risk) {
			log.Printf("HIGH RISK ALERT: risk %d %q scored %.1f", r.ID, r.Title, r.RiskScore)
		},
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithHighRiskNotifier replaces the high-risk notification sink.
func (s *Service) WithHighRiskNotifier(fn func(*models.Risk)) *Service {
	s.notifyHigh = fn
	return s
}

// WithBroadcaster attaches a live-update broadcaster.
func (s *Service) WithBroadcaster(b Broadcaster) *Service {
	s.broadcaster = b
	return s
}

// audit appends a trail entry. Audit failures are logged and swallowed;
// they never fail the mutation that triggered them.
func (s *Service) audit(ctx context.Context, actor *models.User, action, entityType string, entityID int64, details map[string]interface{}) {
	entry := &models.AuditLog{
		UserID:     actor.ID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  s.now(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		log.Printf("Failed to write audit log (%s %s/%d): %v", action, entityType, entityID, err)
	}
}

// alertHighRisk emits the high-risk notification and counts it.
func (s *Service) alertHighRisk(r *models.Risk) {
	highRiskAlerts.Inc()
	s.notifyHigh(r)
}

func (s *Service) broadcast(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(event, payload)
	}
}

// ListAudit returns recent audit entries, newest first. Actors without
// manage-system see only their own entries.
func (s *Service) ListAudit(ctx context.Context, actor *models.User, f store.AuditFilter) ([]*models.AuditLog, error) {
	if !policy.Has(actor, policy.ManageSystem) {
		f.UserID = actor.ID
	}
	return s.store.ListAudit(ctx, f)
}

// dateOnly truncates a timestamp to its calendar date in UTC. Due-date
// and completion-date comparisons are whole-day comparisons.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
