package database

import (
	"strings"
	"time"

	"github.com/gatherly/app/internal/models"
	"github.com/google/uuid"
)

const eventColumns = "id, host_id, title, description, starts_at, location, pricing_type, fee_amount, created_at"

// CreateEvent inserts a new event and returns it with DB-populated fields.
func (s *Store) CreateEvent(event *models.Event) (*models.Event, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO events(id, host_id, title, description, starts_at, location, pricing_type, fee_amount) VALUES(?, ?, ?, ?, ?, ?, ?, ?)",
		id, event.HostID, event.Title, event.Description, event.StartsAt, event.Location, event.PricingType, event.FeeAmount,
	)
	if err != nil {
		return nil, err
	}
	return s.GetEventByID(id)
}

// GetEventByID retrieves an event by its ID.
func (s *Store) GetEventByID(id string) (*models.Event, error) {
	event := &models.Event{}
	row := s.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	err := row.Scan(
		&event.ID, &event.HostID, &event.Title, &event.Description, &event.StartsAt,
		&event.Location, &event.PricingType, &event.FeeAmount, &event.CreatedAt,
	)
	if err != nil {
		return nil, err // includes sql.ErrNoRows if not found
	}
	return event, nil
}

// EventFilter narrows ListEvents results. Zero values mean "no filter".
type EventFilter struct {
	Query   string    // title substring, case-insensitive
	Pricing string    // "free" or "paid"
	From    time.Time // lower bound on starts_at
}

// ListEvents retrieves events matching the filter, soonest first.
func (s *Store) ListEvents(filter EventFilter) ([]*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events"
	var where []string
	var args []any

	if filter.Query != "" {
		where = append(where, "title LIKE ?")
		args = append(args, "%"+filter.Query+"%")
	}
	switch filter.Pricing {
	case models.PricingPaid:
		where = append(where, "(pricing_type = 'paid' OR (pricing_type = '' AND fee_amount > 0))")
	case models.PricingFree:
		where = append(where, "(pricing_type = 'free' OR (pricing_type = '' AND fee_amount <= 0))")
	}
	if !filter.From.IsZero() {
		where = append(where, "starts_at >= ?")
		args = append(args, filter.From)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY starts_at ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		err := rows.Scan(
			&event.ID, &event.HostID, &event.Title, &event.Description, &event.StartsAt,
			&event.Location, &event.PricingType, &event.FeeAmount, &event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
