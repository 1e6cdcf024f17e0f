package models

import "time"

// Notification is one in-app inbox item for a user.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Body      string
	CreatedAt time.Time
}
