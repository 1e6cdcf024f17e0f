package models

import "time"

const (
	PricingFree = "free"
	PricingPaid = "paid"
)

type Event struct {
	ID          string
	HostID      string
	Title       string
	Description string
	StartsAt    time.Time
	Location    string
	PricingType string // "free", "paid", or empty when never classified
	FeeAmount   int64  // cents
	CreatedAt   time.Time
}

// Pricing returns the event's pricing classification, inferring it from the
// fee amount when the stored value is missing or unrecognized.
func (e *Event) Pricing() string {
	switch e.PricingType {
	case PricingFree, PricingPaid:
		return e.PricingType
	}
	if e.FeeAmount > 0 {
		return PricingPaid
	}
	return PricingFree
}
