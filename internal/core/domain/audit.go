package domain

import "time"

// Audit actions recorded by the lifecycle and profile flows.
const (
	AuditRegistered    = "account.registered"
	AuditLogin         = "account.login"
	AuditLogout        = "account.logout"
	AuditResetRequest  = "account.reset_requested"
	AuditResetComplete = "account.reset_completed"
	AuditMFAToggled    = "profile.mfa_toggled"
	AuditPhoneUpdated  = "profile.phone_updated"
)

// AuditEvent is one entry in the account audit trail. Actor is the
// username the event concerns; events for the same actor are persisted in
// the order they were recorded.
type AuditEvent struct {
	Actor     string    `json:"actor" bson:"actor"`
	Action    string    `json:"action" bson:"action"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
