package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/models"
)

func setupTestStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close test store: %v", err)
		}
	})
	return store
}

func testVerifier() *auth.Verifier {
	return auth.NewVerifier("test-secret", nil, "")
}

func createTestUser(t *testing.T, store *database.Store, name, email string) *models.User {
	t.Helper()
	user, err := store.CreateUser(name, email, "+14165551234", "password123")
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", email, err)
	}
	return user
}

func createTestEvent(t *testing.T, store *database.Store, host *models.User, title string) *models.Event {
	t.Helper()
	event, err := store.CreateEvent(&models.Event{
		HostID:   host.ID,
		Title:    title,
		StartsAt: time.Now().Add(24 * time.Hour).UTC().Round(time.Second),
		Location: "Test Location",
	})
	if err != nil {
		t.Fatalf("Failed to create test event %s: %v", title, err)
	}
	return event
}

func createTestReservation(t *testing.T, store *database.Store, event *models.Event, user *models.User) *models.Reservation {
	t.Helper()
	r := &models.Reservation{
		EventID:       event.ID,
		AttendeeName:  "Guest Attendee",
		AttendeeEmail: "guest@example.com",
	}
	if user != nil {
		r.UserID = user.ID
		r.AttendeeName = user.Name
		r.AttendeeEmail = user.Email
	} else {
		r.IsGuestCreated = true
	}
	created, err := store.CreateReservation(r)
	if err != nil {
		t.Fatalf("Failed to create test reservation: %v", err)
	}
	return created
}

func tokenFor(t *testing.T, verifier *auth.Verifier, user *models.User) string {
	t.Helper()
	token, err := verifier.Sign(user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

// doRequest builds a JSON request, optionally with a bearer token and a
// mux-style path value, and runs it through the handler.
func doRequest(t *testing.T, handler http.HandlerFunc, method, target, token, pathID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.1:50000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rec.Body.String(), err)
	}
}
