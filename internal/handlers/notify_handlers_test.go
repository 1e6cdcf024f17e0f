package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/models"
	"github.com/gatherly/app/internal/notify"
	"github.com/gatherly/app/internal/ratelimit"
)

// newTestGate wires a gate against the real store with no email/SMS
// providers configured, so in-app is the only channel that can deliver.
func newTestGate(store *database.Store, verifier *auth.Verifier) *NotifyGate {
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Store:     store,
		Hosts:     store,
		InApp:     store,
		EmailFrom: "Gatherly <notifications@example.com>",
	})
	return &NotifyGate{
		Store:            store,
		Verifier:         verifier,
		Dispatcher:       dispatcher,
		IPGuard:          ratelimit.New(),
		ReservationGuard: ratelimit.New(),
		Cooldown:         15 * time.Second,
	}
}

type notifyTestResponse struct {
	Success          bool                  `json:"success"`
	Skipped          bool                  `json:"skipped"`
	Reason           string                `json:"reason"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	InApp            *notify.ChannelResult `json:"inApp"`
	Email            *notify.ChannelResult `json:"email"`
	SMS              *notify.ChannelResult `json:"sms"`
	Error            string                `json:"error"`
}

func TestNotifyGateInvalidID(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)

	for _, id := range []string{"", "bad id!", "x/../y"} {
		rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/x/notify-host", "", id, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want %d", id, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestNotifyGateRequiresToken(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)

	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/abc/notify-host", "", "abc", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestNotifyGateReservationNotFound(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	user := createTestUser(t, store, "Caller", "caller@example.com")
	token := tokenFor(t, verifier, user)

	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/missing/notify-host", token, "missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestNotifyGateInactiveReservation(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)
	if err := store.UpdateReservationStatus(reservation.ID, models.ReservationStatusCancelled); err != nil {
		t.Fatalf("UpdateReservationStatus() error = %v", err)
	}

	token := tokenFor(t, verifier, attendee)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestNotifyGateForbidden(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	stranger := createTestUser(t, store, "Stranger", "stranger@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)

	token := tokenFor(t, verifier, stranger)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestNotifyGateHostMayTrigger(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)

	token := tokenFor(t, verifier, host)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestNotifyGateReservationRateLimit(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)
	token := tokenFor(t, verifier, attendee)

	for i := 0; i < notifyReservationLimit; i++ {
		rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d: %s", i+1, rec.Code, http.StatusOK, rec.Body.String())
		}
	}
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestNotifyGateSelfRSVP(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, host)

	token := tokenFor(t, verifier, host)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp notifyTestResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || !resp.Skipped || resp.Reason != notify.ReasonSelfRSVP {
		t.Errorf("response = %+v, want success skipped self_rsvp", resp)
	}

	// Dispatch never ran, so the notify state must be untouched.
	got, err := store.GetReservationByID(reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID() error = %v", err)
	}
	if got.HostNotify.LastAttemptAt != nil || got.HostNotify.InAppAt != nil {
		t.Errorf("HostNotify = %+v, want untouched", got.HostNotify)
	}
}

func TestNotifyGateDispatchRuns(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)

	token := tokenFor(t, verifier, attendee)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp notifyTestResponse
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Fatalf("success = false, body %s", rec.Body.String())
	}
	if resp.InApp == nil || !resp.InApp.Success {
		t.Errorf("inApp = %+v, want success", resp.InApp)
	}
	if resp.Email == nil || !resp.Email.Skipped || resp.Email.Reason != notify.ReasonProviderNotConfigured {
		t.Errorf("email = %+v, want skipped provider_not_configured", resp.Email)
	}
	if resp.SMS == nil || !resp.SMS.Skipped || resp.SMS.Reason != notify.ReasonProviderNotConfigured {
		t.Errorf("sms = %+v, want skipped provider_not_configured", resp.SMS)
	}

	notifications, err := store.ListNotificationsForUser(host.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationsForUser() error = %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("host notifications = %d, want 1", len(notifications))
	}
}

func TestNotifyGateCooldownArithmetic(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)

	// Previous pass: attempt recorded, no error, in-app delivered.
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if _, err := store.MarkNotifyChannelSent(reservation.ID, notify.ChannelInApp, t0); err != nil {
		t.Fatalf("MarkNotifyChannelSent() error = %v", err)
	}
	if err := store.UpdateNotifyAttempt(reservation.ID, t0, ""); err != nil {
		t.Fatalf("UpdateNotifyAttempt() error = %v", err)
	}
	gate.Clock = func() time.Time { return t0.Add(10 * time.Second) }

	token := tokenFor(t, verifier, attendee)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp notifyTestResponse
	decodeBody(t, rec, &resp)
	if !resp.Success || !resp.Skipped || resp.Reason != notify.ReasonCooldown {
		t.Fatalf("response = %+v, want skipped cooldown", resp)
	}
	if resp.RemainingSeconds != 5 {
		t.Errorf("remainingSeconds = %d, want 5", resp.RemainingSeconds)
	}
}

func TestNotifyGateFailureBypassesCooldown(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	gate := newTestGate(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	reservation := createTestReservation(t, store, event, attendee)

	// Previous pass failed, so a request one second later must re-dispatch.
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.UpdateNotifyAttempt(reservation.ID, t0, "email:timeout"); err != nil {
		t.Fatalf("UpdateNotifyAttempt() error = %v", err)
	}
	gate.Clock = func() time.Time { return t0.Add(time.Second) }

	token := tokenFor(t, verifier, attendee)
	rec := doRequest(t, gate.Handler(), http.MethodPost, "/api/reservations/"+reservation.ID+"/notify-host", token, reservation.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp notifyTestResponse
	decodeBody(t, rec, &resp)
	if resp.Skipped || resp.Reason == notify.ReasonCooldown {
		t.Fatalf("response = %+v, want dispatch to run", resp)
	}
	if resp.InApp == nil || !resp.InApp.Success {
		t.Errorf("inApp = %+v, want success", resp.InApp)
	}

	// The clean pass clears the stored error.
	got, err := store.GetReservationByID(reservation.ID)
	if err != nil {
		t.Fatalf("GetReservationByID() error = %v", err)
	}
	if got.HostNotify.LastError != "" {
		t.Errorf("LastError = %q, want cleared", got.HostNotify.LastError)
	}
}
