package models

import "time"

// Auth event actions
const (
	AuthActionLogin = "login"
	AuthActionDecoy = "decoy_access"
)

// Failure notes recorded with auth events
const (
	AuthNoteLocked          = "locked"
	AuthNoteRateLimited     = "rate_limited -> locked"
	AuthNoteEmailNotAllowed = "email_not_allowed"
	AuthNoteBadCredentials  = "bad_credentials"
	AuthNoteDecoyTriggered  = "decoy_triggered"
)

// AuthEvent is an append-only record of an authentication decision.
// Email is nil for events with no identity (e.g. decoy probes).
type AuthEvent struct {
	ID        string
	Email     *string
	IPAddress string
	Action    string
	OK        bool
	Note      *string
	CreatedAt time.Time
}
