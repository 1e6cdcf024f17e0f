package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gatherly/app/internal/models"
	"github.com/google/uuid"
)

const reservationColumns = `id, event_id, user_id, attendee_name, attendee_email, status, is_guest_created,
	notify_last_attempt_at, notify_in_app_at, notify_email_at, notify_sms_at, notify_last_error,
	created_at, updated_at`

// CreateReservation inserts a new reservation with an empty host-notify
// state and returns it with DB-populated fields.
func (s *Store) CreateReservation(r *models.Reservation) (*models.Reservation, error) {
	id := uuid.NewString()
	status := r.Status
	if status == "" {
		status = models.ReservationStatusReserved
	}
	_, err := s.db.Exec(
		"INSERT INTO reservations(id, event_id, user_id, attendee_name, attendee_email, status, is_guest_created) VALUES(?, ?, ?, ?, ?, ?, ?)",
		id, r.EventID, r.UserID, r.AttendeeName, r.AttendeeEmail, status, r.IsGuestCreated,
	)
	if err != nil {
		return nil, err
	}
	return s.GetReservationByID(id)
}

// GetReservationByID retrieves a reservation, including its host-notify state.
func (s *Store) GetReservationByID(id string) (*models.Reservation, error) {
	row := s.db.QueryRow("SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	return scanReservation(row.Scan)
}

// GetActiveReservation returns a user's reserved or checked-in reservation
// for an event, or sql.ErrNoRows.
func (s *Store) GetActiveReservation(eventID, userID string) (*models.Reservation, error) {
	row := s.db.QueryRow(
		"SELECT "+reservationColumns+" FROM reservations WHERE event_id = ? AND user_id = ? AND status IN (?, ?)",
		eventID, userID, models.ReservationStatusReserved, models.ReservationStatusCheckedIn,
	)
	return scanReservation(row.Scan)
}

// ListReservationsForEvent retrieves all reservations for an event, newest
// first.
func (s *Store) ListReservationsForEvent(eventID string) ([]*models.Reservation, error) {
	rows, err := s.db.Query(
		"SELECT "+reservationColumns+" FROM reservations WHERE event_id = ? ORDER BY created_at DESC",
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// UpdateReservationStatus moves a reservation to a new status.
func (s *Store) UpdateReservationStatus(id, status string) error {
	res, err := s.db.Exec(
		"UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// notifyChannelColumn maps a notification channel name to its sent-at
// column. Kept as an allow-list so channel names can never reach SQL text.
func notifyChannelColumn(channel string) (string, error) {
	switch channel {
	case "in_app":
		return "notify_in_app_at", nil
	case "email":
		return "notify_email_at", nil
	case "sms":
		return "notify_sms_at", nil
	}
	return "", fmt.Errorf("unknown notification channel %q", channel)
}

// MarkNotifyChannelSent stamps a channel's sent time only if it is still
// unset, and reports whether this call won the claim. An already-stamped
// channel is left untouched, which keeps the sent markers monotonic even
// under concurrent dispatches.
func (s *Store) MarkNotifyChannelSent(reservationID, channel string, at time.Time) (bool, error) {
	column, err := notifyChannelColumn(channel)
	if err != nil {
		return false, err
	}
	res, err := s.db.Exec(
		"UPDATE reservations SET "+column+" = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND "+column+" IS NULL",
		at, reservationID,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateNotifyAttempt records the outcome of one dispatch pass: the attempt
// time always, and the last-error string (empty when the pass had no
// failures, replacing any previous error).
func (s *Store) UpdateNotifyAttempt(reservationID string, at time.Time, lastError string) error {
	res, err := s.db.Exec(
		"UPDATE reservations SET notify_last_attempt_at = ?, notify_last_error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		at, lastError, reservationID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanReservation(scan func(dest ...any) error) (*models.Reservation, error) {
	r := &models.Reservation{}
	var lastAttemptAt, inAppAt, emailAt, smsAt sql.NullTime
	err := scan(
		&r.ID, &r.EventID, &r.UserID, &r.AttendeeName, &r.AttendeeEmail, &r.Status, &r.IsGuestCreated,
		&lastAttemptAt, &inAppAt, &emailAt, &smsAt, &r.HostNotify.LastError,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	r.HostNotify.LastAttemptAt = nullableTime(lastAttemptAt)
	r.HostNotify.InAppAt = nullableTime(inAppAt)
	r.HostNotify.EmailAt = nullableTime(emailAt)
	r.HostNotify.SMSAt = nullableTime(smsAt)
	return r, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
