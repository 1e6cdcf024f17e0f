package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/models"
)

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartsAt    string `json:"startsAt"` // RFC3339
	Location    string `json:"location"`
	PricingType string `json:"pricingType"`
	FeeAmount   int64  `json:"feeAmount"`
}

// CreateEvent creates an event hosted by the authenticated caller.
func CreateEvent(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(verifier, r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}

		var req createEventRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "startsAt must be RFC3339")
			return
		}
		switch req.PricingType {
		case "", models.PricingFree, models.PricingPaid:
		default:
			writeError(w, http.StatusBadRequest, "pricingType must be free or paid")
			return
		}
		if req.FeeAmount < 0 {
			writeError(w, http.StatusBadRequest, "feeAmount must not be negative")
			return
		}

		event, err := store.CreateEvent(&models.Event{
			HostID:      identity.Subject,
			Title:       req.Title,
			Description: req.Description,
			StartsAt:    startsAt.UTC(),
			Location:    strings.TrimSpace(req.Location),
			PricingType: req.PricingType,
			FeeAmount:   req.FeeAmount,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not create event")
			return
		}

		writeJSON(w, http.StatusCreated, viewEvent(event))
	}
}

// ListEvents returns events matching optional q, pricing and from filters,
// soonest first.
func ListEvents(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter database.EventFilter
		query := r.URL.Query()

		filter.Query = strings.TrimSpace(query.Get("q"))
		switch pricing := query.Get("pricing"); pricing {
		case "", models.PricingFree, models.PricingPaid:
			filter.Pricing = pricing
		default:
			writeError(w, http.StatusBadRequest, "pricing must be free or paid")
			return
		}
		if from := query.Get("from"); from != "" {
			parsed, err := time.Parse(time.RFC3339, from)
			if err != nil {
				writeError(w, http.StatusBadRequest, "from must be RFC3339")
				return
			}
			filter.From = parsed.UTC()
		}

		events, err := store.ListEvents(filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not list events")
			return
		}

		views := make([]eventView, 0, len(events))
		for _, event := range events {
			views = append(views, viewEvent(event))
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": views})
	}
}

// EventDetail returns one event by id.
func EventDetail(store *database.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := store.GetEventByID(r.PathValue("id"))
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusOK, viewEvent(event))
	}
}
