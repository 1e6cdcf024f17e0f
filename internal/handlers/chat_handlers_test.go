package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gatherly/app/internal/ratelimit"
)

func TestPostChatMessageRequiresReservation(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	handler := PostChatMessage(store, verifier, ratelimit.NewBounded(200))
	host := createTestUser(t, store, "Host", "host@example.com")
	outsider := createTestUser(t, store, "Outsider", "outsider@example.com")
	event := createTestEvent(t, store, host, "Picnic")

	body := map[string]string{"body": "hello"}
	rec := doRequest(t, handler, http.MethodPost, "/api/events/"+event.ID+"/chat", tokenFor(t, verifier, outsider), event.ID, body)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestPostChatMessagePingsHost(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	handler := PostChatMessage(store, verifier, ratelimit.NewBounded(200))
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	createTestReservation(t, store, event, attendee)

	body := map[string]string{"body": "what should I bring?"}
	rec := doRequest(t, handler, http.MethodPost, "/api/events/"+event.ID+"/chat", tokenFor(t, verifier, attendee), event.ID, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var view chatMessageView
	decodeBody(t, rec, &view)
	if view.UserName != attendee.Name || view.Body != "what should I bring?" {
		t.Errorf("message = %+v", view)
	}

	notifications, err := store.ListNotificationsForUser(host.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationsForUser() error = %v", err)
	}
	if len(notifications) != 1 || notifications[0].Type != "chat_message" {
		t.Fatalf("host notifications = %+v, want one chat_message ping", notifications)
	}
	if !strings.Contains(notifications[0].Body, attendee.Name) {
		t.Errorf("ping body = %q, want it to name the sender", notifications[0].Body)
	}
}

func TestPostChatMessageHostNotPinged(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	handler := PostChatMessage(store, verifier, ratelimit.NewBounded(200))
	host := createTestUser(t, store, "Host", "host@example.com")
	event := createTestEvent(t, store, host, "Picnic")

	body := map[string]string{"body": "welcome everyone"}
	rec := doRequest(t, handler, http.MethodPost, "/api/events/"+event.ID+"/chat", tokenFor(t, verifier, host), event.ID, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	notifications, err := store.ListNotificationsForUser(host.ID, 10)
	if err != nil {
		t.Fatalf("ListNotificationsForUser() error = %v", err)
	}
	if len(notifications) != 0 {
		t.Errorf("host notifications = %d, want 0 for own message", len(notifications))
	}
}

func TestPostChatMessageRateLimited(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	handler := PostChatMessage(store, verifier, ratelimit.NewBounded(200))
	host := createTestUser(t, store, "Host", "host@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	token := tokenFor(t, verifier, host)

	body := map[string]string{"body": "spam"}
	for i := 0; i < chatPostLimit; i++ {
		rec := doRequest(t, handler, http.MethodPost, "/api/events/"+event.ID+"/chat", token, event.ID, body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("message %d: status = %d, want %d", i+1, rec.Code, http.StatusCreated)
		}
	}
	rec := doRequest(t, handler, http.MethodPost, "/api/events/"+event.ID+"/chat", token, event.ID, body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestListChatMessages(t *testing.T) {
	store := setupTestStore(t)
	verifier := testVerifier()
	post := PostChatMessage(store, verifier, ratelimit.NewBounded(200))
	list := ListChatMessages(store, verifier)
	host := createTestUser(t, store, "Host", "host@example.com")
	attendee := createTestUser(t, store, "Attendee", "attendee@example.com")
	event := createTestEvent(t, store, host, "Picnic")
	createTestReservation(t, store, event, attendee)

	for _, msg := range []string{"first", "second"} {
		rec := doRequest(t, post, http.MethodPost, "/api/events/"+event.ID+"/chat", tokenFor(t, verifier, host), event.ID, map[string]string{"body": msg})
		if rec.Code != http.StatusCreated {
			t.Fatalf("post %q: status = %d", msg, rec.Code)
		}
	}

	rec := doRequest(t, list, http.MethodGet, "/api/events/"+event.ID+"/chat", tokenFor(t, verifier, attendee), event.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Messages []chatMessageView `json:"messages"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Messages) != 2 || resp.Messages[0].Body != "first" {
		t.Errorf("messages = %+v, want [first second] in order", resp.Messages)
	}
}
