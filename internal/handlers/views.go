package handlers

import (
	"time"

	"github.com/gatherly/app/internal/models"
)

// JSON views keep wire shapes separate from the storage structs.

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func viewUser(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

type eventView struct {
	ID          string    `json:"id"`
	HostID      string    `json:"hostId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	Location    string    `json:"location,omitempty"`
	PricingType string    `json:"pricingType"`
	FeeAmount   int64     `json:"feeAmount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func viewEvent(e *models.Event) eventView {
	return eventView{
		ID:          e.ID,
		HostID:      e.HostID,
		Title:       e.Title,
		Description: e.Description,
		StartsAt:    e.StartsAt,
		Location:    e.Location,
		PricingType: e.Pricing(),
		FeeAmount:   e.FeeAmount,
		CreatedAt:   e.CreatedAt,
	}
}

type reservationView struct {
	ID             string    `json:"id"`
	EventID        string    `json:"eventId"`
	UserID         string    `json:"userId,omitempty"`
	AttendeeName   string    `json:"attendeeName"`
	AttendeeEmail  string    `json:"attendeeEmail"`
	Status         string    `json:"status"`
	IsGuestCreated bool      `json:"isGuestCreated"`
	CreatedAt      time.Time `json:"createdAt"`
}

func viewReservation(r *models.Reservation) reservationView {
	return reservationView{
		ID:             r.ID,
		EventID:        r.EventID,
		UserID:         r.UserID,
		AttendeeName:   r.AttendeeName,
		AttendeeEmail:  r.AttendeeEmail,
		Status:         r.Status,
		IsGuestCreated: r.IsGuestCreated,
		CreatedAt:      r.CreatedAt,
	}
}

type chatMessageView struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewChatMessage(m *models.ChatMessage) chatMessageView {
	return chatMessageView{
		ID:        m.ID,
		EventID:   m.EventID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

type notificationView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewNotification(n *models.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
	}
}
