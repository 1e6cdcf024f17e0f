package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/ratelimit"
)

// Chat posting is limited per event so one busy thread cannot flood the
// host's inbox with pings.
const (
	chatPostLimit  = 10
	chatPostWindow = 5 * time.Minute
	maxChatBodyLen = 2000
	chatMessageCap = 200
)

type postChatRequest struct {
	Body string `json:"body"`
}

// PostChatMessage appends a message to an event's chat. Posting requires an
// active reservation on the event or being its host. A message from an
// attendee leaves an in-app notification for the host.
func PostChatMessage(store *database.Store, verifier *auth.Verifier, eventGuard *ratelimit.Limiter) http.HandlerFunc {
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

		isHost := identity.Subject == event.HostID
		if !isHost {
			if _, err := store.GetActiveReservation(event.ID, identity.Subject); err == sql.ErrNoRows {
				writeError(w, http.StatusForbidden, "an active reservation is required to chat")
				return
			} else if err != nil {
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
		}

		if !eventGuard.Allow(event.ID, chatPostLimit, chatPostWindow) {
			writeError(w, http.StatusTooManyRequests, "this event's chat is receiving too many messages")
			return
		}

		var req postChatRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.Body = strings.TrimSpace(req.Body)
		if req.Body == "" {
			writeError(w, http.StatusBadRequest, "message body is required")
			return
		}
		if len(req.Body) > maxChatBodyLen {
			writeError(w, http.StatusBadRequest, "message body too long")
			return
		}

		msg, err := store.CreateChatMessage(event.ID, identity.Subject, req.Body)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not post message")
			return
		}

		// The host ping is best effort; the message itself already landed.
		if !isHost {
			title := fmt.Sprintf("New message in %s", event.Title)
			body := fmt.Sprintf("%s: %s", msg.UserName, snippet(msg.Body))
			if _, err := store.CreateNotification(event.HostID, "chat_message", title, body); err != nil {
				log.Printf("handlers: chat host ping for event %s: %v", event.ID, err)
			}
		}

		writeJSON(w, http.StatusCreated, viewChatMessage(msg))
	}
}

// ListChatMessages returns an event's chat history, oldest first. Reading is
// gated the same way as posting.
func ListChatMessages(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
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
			if _, err := store.GetActiveReservation(event.ID, identity.Subject); err == sql.ErrNoRows {
				writeError(w, http.StatusForbidden, "an active reservation is required to read chat")
				return
			} else if err != nil {
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
		}

		messages, err := store.ListChatMessages(event.ID, chatMessageCap)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list messages")
			return
		}

		views := make([]chatMessageView, 0, len(messages))
		for _, msg := range messages {
			views = append(views, viewChatMessage(msg))
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": views})
	}
}

func snippet(body string) string {
	const max = 120
	if len(body) <= max {
		return body
	}
	return body[:max] + "…"
}
