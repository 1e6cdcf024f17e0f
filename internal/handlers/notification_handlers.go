package handlers

import (
	"net/http"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
)

// ListNotifications returns the caller's in-app inbox, newest first.
func ListNotifications(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(verifier, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}

		notifications, err := store.ListNotificationsForUser(identity.Subject, 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list notifications")
			return
		}

		views := make([]notificationView, 0, len(notifications))
		for _, n := range notifications {
			views = append(views, viewNotification(n))
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": views})
	}
}

// Health reports liveness and store reachability.
func Health(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
