package models

import "time"

// User represents an account in the system. Every user can host events, so
// the notification contact fields and opt-in settings live here.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	EmailOptIn   bool
	SMSOptIn     bool
	CreatedAt    time.Time
}
