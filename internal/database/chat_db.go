package database

import (
	"github.com/gatherly/app/internal/models"
	"github.com/google/uuid"
)

// CreateChatMessage inserts a new chat message for an event.
func (s *Store) CreateChatMessage(eventID, userID, body string) (*models.ChatMessage, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO chat_messages(id, event_id, user_id, body) VALUES(?, ?, ?, ?)",
		id, eventID, userID, body,
	)
	if err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{}
	row := s.db.QueryRow(`
		SELECT m.id, m.event_id, m.user_id, u.name, m.body, m.created_at
		FROM chat_messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.id = ?
	`, id)
	if err := row.Scan(&msg.ID, &msg.EventID, &msg.UserID, &msg.UserName, &msg.Body, &msg.CreatedAt); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListChatMessages retrieves an event's chat, oldest first, capped at limit
// entries.
func (s *Store) ListChatMessages(eventID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	rows, err := s.db.Query(`
		SELECT m.id, m.event_id, m.user_id, u.name, m.body, m.created_at
		FROM chat_messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.event_id = ?
		ORDER BY m.created_at ASC, m.rowid ASC
		LIMIT ?
	`, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		msg := &models.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.EventID, &msg.UserID, &msg.UserName, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
