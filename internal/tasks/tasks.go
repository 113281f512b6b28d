package tasks

import (
	"encoding/json"
	"time"
)

// Task type names shared by the enqueueing services and the worker.
const (
	// TypeMealAudit persists one meal change-log row out of band.
	TypeMealAudit = "meal:audit"
	// TypeMealTemplates generates meal templates for a community's
	// calendar range.
	TypeMealTemplates = "meal:templates"
	// TypeReconciliationSweep checks unreconciled meals for cost drift.
	// Registered as a periodic task.
	TypeReconciliationSweep = "reconciliation:sweep"
)

// MealAuditPayload describes one change to a meal for the audit log.
type MealAuditPayload struct {
	MealID     uint      `json:"meal_id"`
	ResidentID uint      `json:"resident_id"` // 0 for system changes
	Change     string    `json:"change"`
	Detail     string    `json:"detail"`
	SessionID  string    `json:"session_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMealAuditTask serializes an audit payload.
func NewMealAuditTask(p MealAuditPayload) ([]byte, error) {
	return json.Marshal(p)
}

// MealTemplatesPayload asks the worker to generate meal templates for the
// community between Start and End inclusive.
type MealTemplatesPayload struct {
	CommunityID uint      `json:"community_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// NewMealTemplatesTask serializes a template-generation payload.
func NewMealTemplatesTask(p MealTemplatesPayload) ([]byte, error) {
	return json.Marshal(p)
}

// ReconciliationSweepPayload scopes a sweep run. A zero CommunityID sweeps
// every community.
type ReconciliationSweepPayload struct {
	CommunityID uint `json:"community_id"`
}

// NewReconciliationSweepTask serializes a sweep payload.
func NewReconciliationSweepTask(p ReconciliationSweepPayload) ([]byte, error) {
	return json.Marshal(p)
}
