package domain

import "time"

// AccountEventType names a notification emitted after a successful account
// mutation.
type AccountEventType string

const (
	EventUserRegistered   AccountEventType = "user.registered"
	EventUserDeleted      AccountEventType = "user.deleted"
	EventUserRoleAssigned AccountEventType = "user.role_assigned"
)

// AccountEvent is handed to the notification collaborator (email delivery).
type AccountEvent struct {
	Type       AccountEventType  `json:"type"`
	UserID     string            `json:"user_id"`
	Email      string            `json:"email"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
