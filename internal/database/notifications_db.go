package database

import (
	"github.com/gatherly/app/internal/models"
	"github.com/google/uuid"
)

// CreateNotification inserts one in-app notification for a user.
func (s *Store) CreateNotification(userID, notifType, title, body string) (*models.Notification, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO notifications(id, user_id, type, title, body) VALUES(?, ?, ?, ?, ?)",
		id, userID, notifType, title, body,
	)
	if err != nil {
		return nil, err
	}

	n := &models.Notification{}
	row := s.db.QueryRow("SELECT id, user_id, type, title, body, created_at FROM notifications WHERE id = ?", id)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.CreatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotificationsForUser retrieves a user's inbox, newest first, capped at
// limit entries.
func (s *Store) ListNotificationsForUser(userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.db.Query(
		"SELECT id, user_id, type, title, body, created_at FROM notifications WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}
