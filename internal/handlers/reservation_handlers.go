package handlers

import (
	"database/sql"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/models"
	"github.com/gatherly/app/internal/ratelimit"
)

// Guest reservation creation is the unauthenticated surface, so it carries a
// per-IP limit.
const (
	guestReservationLimit  = 30
	guestReservationWindow = time.Minute
)

type createReservationRequest struct {
	AttendeeName  string `json:"attendeeName"`
	AttendeeEmail string `json:"attendeeEmail"`
}

// CreateReservation reserves a spot on an event. Authenticated callers
// reserve under their own account; anonymous callers may reserve as guests
// by supplying a name and email, rate-limited per client IP.
func CreateReservation(store *database.Store, verifier *auth.Verifier, ipGuard *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := r.PathValue("id")
		event, err := store.GetEventByID(eventID)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}

		// Authenticated callers may omit the body entirely.
		var req createReservationRequest
		if err := decodeJSON(r, &req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.AttendeeName = strings.TrimSpace(req.AttendeeName)
		req.AttendeeEmail = strings.ToLower(strings.TrimSpace(req.AttendeeEmail))

		reservation := &models.Reservation{EventID: event.ID}

		identity, err := identityFromRequest(verifier, r)
		switch {
		case err == nil:
			user, err := store.GetUserByID(identity.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unknown account")
				return
			}
			if _, err := store.GetActiveReservation(event.ID, user.ID); err == nil {
				writeError(w, http.StatusConflict, "you already have an active reservation for this event")
				return
			} else if err != sql.ErrNoRows {
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
			reservation.UserID = user.ID
			reservation.AttendeeName = user.Name
			reservation.AttendeeEmail = user.Email
		case err == errNoToken:
			if !ipGuard.Allow(clientIP(r), guestReservationLimit, guestReservationWindow) {
				writeError(w, http.StatusTooManyRequests, "too many reservation attempts, slow down")
				return
			}
			if req.AttendeeName == "" || req.AttendeeEmail == "" {
				writeError(w, http.StatusBadRequest, "attendeeName and attendeeEmail are required for guest reservations")
				return
			}
			reservation.AttendeeName = req.AttendeeName
			reservation.AttendeeEmail = req.AttendeeEmail
			reservation.IsGuestCreated = true
		default:
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		created, err := store.CreateReservation(reservation)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not create reservation")
			return
		}

		writeJSON(w, http.StatusCreated, viewReservation(created))
	}
}

// ListEventReservations returns all reservations for an event. Only the
// event's host or an admin may see the attendee list.
func ListEventReservations(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(verifier, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}

		event, err := store.GetEventByID(r.PathValue("id"))
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if identity.Subject != event.HostID && !identity.IsAdmin {
			writeError(w, http.StatusForbidden, "only the event host may view reservations")
			return
		}

		reservations, err := store.ListReservationsForEvent(event.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list reservations")
			return
		}

		views := make([]reservationView, 0, len(reservations))
		for _, reservation := range reservations {
			views = append(views, viewReservation(reservation))
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": views})
	}
}

// CancelReservation marks a reservation cancelled. Allowed for the
// reservation's owner, the event's host, or an admin.
func CancelReservation(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(verifier, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}

		id := r.PathValue("id")
		if !validReservationID(id) {
			writeError(w, http.StatusBadRequest, "invalid reservation id")
			return
		}

		reservation, err := store.GetReservationByID(id)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		event, err := store.GetEventByID(reservation.EventID)
		if err != nil {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}

		allowed := identity.IsAdmin ||
			(reservation.UserID != "" && identity.Subject == reservation.UserID) ||
			identity.Subject == event.HostID
		if !allowed {
			writeError(w, http.StatusForbidden, "not your reservation")
			return
		}
		if !models.ReservationStatusActive(reservation.Status) {
			writeError(w, http.StatusConflict, "reservation is not active")
			return
		}

		if err := store.UpdateReservationStatus(id, models.ReservationStatusCancelled); err != nil {
			writeError(w, http.StatusInternalServerError, "could not cancel reservation")
			return
		}

		reservation, err = store.GetReservationByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, viewReservation(reservation))
	}
}
