package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/gatherly/app/internal/models"
)

func TestCreateAndGetEvent(t *testing.T) {
	store := setupTestStore(t)
	host := createTestUser(t, store, "Host", "host@example.com")

	startsAt := time.Now().Add(48 * time.Hour).UTC().Round(time.Second)
	created, err := store.CreateEvent(&models.Event{
		HostID:      host.ID,
		Title:       "Vinyl Listening Party",
		Description: "Bring a record.",
		StartsAt:    startsAt,
		Location:    "The Loft",
		PricingType: models.PricingPaid,
		FeeAmount:   1500,
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateEvent() returned empty ID")
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero")
	}

	got, err := store.GetEventByID(created.ID)
	if err != nil {
		t.Fatalf("GetEventByID() error = %v", err)
	}
	if got.Title != "Vinyl Listening Party" || got.HostID != host.ID {
		t.Errorf("event got = %+v", got)
	}
	if !got.StartsAt.Equal(startsAt) {
		t.Errorf("StartsAt = %v, want %v", got.StartsAt, startsAt)
	}
	if got.Pricing() != models.PricingPaid {
		t.Errorf("Pricing() = %q, want %q", got.Pricing(), models.PricingPaid)
	}
}

func TestGetEventNotFound(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.GetEventByID("missing"); err != sql.ErrNoRows {
		t.Errorf("GetEventByID() missing error = %v, want sql.ErrNoRows", err)
	}
}

func TestListEventsFilters(t *testing.T) {
	store := setupTestStore(t)
	host := createTestUser(t, store, "Host", "host@example.com")

	base := time.Now().UTC().Round(time.Second)
	mustCreate := func(title, pricingType string, fee int64, startsAt time.Time) {
		t.Helper()
		_, err := store.CreateEvent(&models.Event{
			HostID:      host.ID,
			Title:       title,
			StartsAt:    startsAt,
			PricingType: pricingType,
			FeeAmount:   fee,
		})
		if err != nil {
			t.Fatalf("CreateEvent(%s) error = %v", title, err)
		}
	}

	mustCreate("Morning Yoga", models.PricingFree, 0, base.Add(24*time.Hour))
	mustCreate("Wine Tasting", models.PricingPaid, 2500, base.Add(48*time.Hour))
	mustCreate("Jazz Evening", "", 1000, base.Add(72*time.Hour)) // pricing inferred from fee
	mustCreate("Old Meetup", models.PricingFree, 0, base.Add(-24*time.Hour))

	t.Run("no filter returns everything soonest first", func(t *testing.T) {
		events, err := store.ListEvents(EventFilter{})
		if err != nil {
			t.Fatalf("ListEvents() error = %v", err)
		}
		if len(events) != 4 {
			t.Fatalf("count = %d, want 4", len(events))
		}
		if events[0].Title != "Old Meetup" {
			t.Errorf("first event = %q, want Old Meetup", events[0].Title)
		}
	})

	t.Run("title substring", func(t *testing.T) {
		events, err := store.ListEvents(EventFilter{Query: "Tasting"})
		if err != nil {
			t.Fatalf("ListEvents() error = %v", err)
		}
		if len(events) != 1 || events[0].Title != "Wine Tasting" {
			t.Errorf("query filter got %d events", len(events))
		}
	})

	t.Run("paid includes inferred pricing", func(t *testing.T) {
		events, err := store.ListEvents(EventFilter{Pricing: models.PricingPaid})
		if err != nil {
			t.Fatalf("ListEvents() error = %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("paid count = %d, want 2", len(events))
		}
	})

	t.Run("from excludes past events", func(t *testing.T) {
		events, err := store.ListEvents(EventFilter{From: base})
		if err != nil {
			t.Fatalf("ListEvents() error = %v", err)
		}
		if len(events) != 3 {
			t.Errorf("from count = %d, want 3", len(events))
		}
	})
}
