package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
}

// Audited actions. Names are stable; dashboards and retention rules key off
// them.
const (
	EventProjectCreated      = "project.created"
	EventProjectUpdated      = "project.updated"
	EventProjectDeleted      = "project.deleted"
	EventProjectShared       = "project.shared"
	EventOwnerTransferred    = "project.owner_transferred"
	EventProjectAccessDenied = "project.access_denied"
	EventUserCreated         = "user.created"
	EventUserUpdated         = "user.updated"
	EventUserDeleted         = "user.deleted"
	EventUserLogin           = "auth.login"
	EventUserLogout          = "auth.logout"
)
