package models

import "time"

const (
	ReservationStatusReserved  = "reserved"
	ReservationStatusCheckedIn = "checked_in"
	ReservationStatusCancelled = "cancelled"
)

// ReservationStatusActive reports whether a reservation still claims a spot.
func ReservationStatusActive(status string) bool {
	return status == ReservationStatusReserved || status == ReservationStatusCheckedIn
}

type Reservation struct {
	ID             string
	EventID        string
	UserID         string // empty for guest-created reservations
	AttendeeName   string
	AttendeeEmail  string
	Status         string
	IsGuestCreated bool
	HostNotify     HostNotifyState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HostNotifyState tracks, per channel, whether the host has ever been told
// about this reservation. A channel timestamp is set exactly when that
// channel succeeded and is never cleared once set. LastError reflects only
// the most recent dispatch pass; an empty string means the last pass had no
// failures.
type HostNotifyState struct {
	LastAttemptAt *time.Time
	InAppAt       *time.Time
	EmailAt       *time.Time
	SMSAt         *time.Time
	LastError     string
}
