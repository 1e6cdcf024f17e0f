package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/models"
	"github.com/gatherly/app/internal/notify"
	"github.com/gatherly/app/internal/ratelimit"
)

// Gate rate limits: the per-IP guard bounds one client across reservations,
// the per-reservation guard bounds all clients hammering one reservation.
const (
	notifyIPLimit           = 30
	notifyIPWindow          = time.Minute
	notifyReservationLimit  = 5
	notifyReservationWindow = time.Minute
)

// NotifyGate wraps the notification dispatcher with identity, authorization,
// rate and cooldown checks. It is the only way a client can trigger host
// notification.
type NotifyGate struct {
	Store            *database.Store
	Verifier         *auth.Verifier
	Dispatcher       *notify.Dispatcher
	IPGuard          *ratelimit.Limiter
	ReservationGuard *ratelimit.Limiter
	Cooldown         time.Duration
	Clock            func() time.Time
}

type notifyResponse struct {
	Success          bool                  `json:"success"`
	Skipped          bool                  `json:"skipped,omitempty"`
	Reason           string                `json:"reason,omitempty"`
	RemainingSeconds int                   `json:"remainingSeconds,omitempty"`
	InApp            *notify.ChannelResult `json:"inApp,omitempty"`
	Email            *notify.ChannelResult `json:"email,omitempty"`
	SMS              *notify.ChannelResult `json:"sms,omitempty"`
	Error            string                `json:"error,omitempty"`
}

// Handler serves POST /api/reservations/{id}/notify-host.
//
// Client contract: the reservation the caller just created must never look
// failed because notification plumbing errored, so anything unexpected past
// the precondition checks degrades to a 200 {success:false, error} body
// rather than a 5xx.
func (g *NotifyGate) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("notify gate: panic: %v", rec)
				writeJSON(w, http.StatusOK, notifyResponse{Success: false, Error: "internal notification failure"})
			}
		}()

		id := r.PathValue("id")
		if !validReservationID(id) {
			writeError(w, http.StatusBadRequest, "invalid reservation id")
			return
		}

		// Both guards are charged even when the first one denies, so a
		// hammering client keeps burning its own counters.
		ipOK := g.IPGuard.Allow(clientIP(r), notifyIPLimit, notifyIPWindow)
		reservationOK := g.ReservationGuard.Allow(id, notifyReservationLimit, notifyReservationWindow)
		if !ipOK || !reservationOK {
			writeError(w, http.StatusTooManyRequests, "too many notification requests")
			return
		}

		identity, err := identityFromRequest(g.Verifier, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}

		reservation, err := g.Store.GetReservationByID(id)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		if err != nil {
			writeJSON(w, http.StatusOK, notifyResponse{Success: false, Error: "could not load reservation"})
			return
		}
		event, err := g.Store.GetEventByID(reservation.EventID)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeJSON(w, http.StatusOK, notifyResponse{Success: false, Error: "could not load event"})
			return
		}

		if !models.ReservationStatusActive(reservation.Status) {
			writeError(w, http.StatusConflict, "reservation is not active")
			return
		}

		allowed := identity.IsAdmin ||
			(reservation.UserID != "" && identity.Subject == reservation.UserID) ||
			identity.Subject == event.HostID
		if !allowed {
			writeError(w, http.StatusForbidden, "not allowed to notify for this reservation")
			return
		}

		// A host reserving their own event must not be notified about it.
		if reservation.UserID != "" && reservation.UserID == event.HostID {
			writeJSON(w, http.StatusOK, notifyResponse{
				Success: true,
				Skipped: true,
				Reason:  notify.ReasonSelfRSVP,
			})
			return
		}

		now := g.now()
		if remaining, cooling := g.cooldownRemaining(reservation.HostNotify, now); cooling {
			writeJSON(w, http.StatusOK, notifyResponse{
				Success:          true,
				Skipped:          true,
				Reason:           notify.ReasonCooldown,
				RemainingSeconds: remaining,
			})
			return
		}

		result := g.Dispatcher.Dispatch(r.Context(), notify.Input{
			ReservationID: reservation.ID,
			EventID:       event.ID,
			HostID:        event.HostID,
			AttendeeName:  reservation.AttendeeName,
			AttendeeEmail: reservation.AttendeeEmail,
			EventTitle:    event.Title,
			PricingType:   event.Pricing(),
			IsGuest:       reservation.IsGuestCreated,
		})

		writeJSON(w, http.StatusOK, notifyResponse{
			Success: true,
			InApp:   &result.InApp,
			Email:   &result.Email,
			SMS:     &result.SMS,
		})
	}
}

// cooldownRemaining reports whether the reservation is inside its cooldown
// window and, if so, how many whole seconds remain (rounded up).
//
// The window only applies when the previous pass is "complete": an attempt
// exists, it recorded no error, and at least one of the in-app or email
// stamps is set. A pass with any failure bypasses the cooldown so the next
// request can retry the failed channels immediately.
// TODO: decide whether a set smsAt alone should also count as complete;
// today SMS is treated as best effort and not consulted here.
func (g *NotifyGate) cooldownRemaining(state models.HostNotifyState, now time.Time) (int, bool) {
	if state.LastAttemptAt == nil || state.LastError != "" {
		return 0, false
	}
	if state.InAppAt == nil && state.EmailAt == nil {
		return 0, false
	}
	elapsed := now.Sub(*state.LastAttemptAt)
	if elapsed >= g.Cooldown {
		return 0, false
	}
	remaining := g.Cooldown - elapsed
	seconds := int((remaining + time.Second - 1) / time.Second)
	return seconds, true
}

func (g *NotifyGate) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}
