package models

import (
	"time"
)

// Account is an allow-listed user record. Accounts are created and updated
// only by the startup reconciliation against the configured allow-list;
// there is no end-user registration path.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
