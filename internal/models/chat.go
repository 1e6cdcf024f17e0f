package models

import "time"

type ChatMessage struct {
	ID        string
	EventID   string
	UserID    string
	UserName  string // joined for display
	Body      string
	CreatedAt time.Time
}
