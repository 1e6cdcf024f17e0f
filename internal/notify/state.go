package notify

import (
	"strings"
	"time"

	"github.com/gatherly/app/internal/models"
)

// Notification channels. Each fires at most once per reservation,
// independently of the others.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Skip and failure reasons surfaced in channel results and stored errors.
const (
	ReasonAlreadySent           = "already_sent"
	ReasonHostNotFound          = "host_not_found"
	ReasonNoHostEmail           = "no_host_email"
	ReasonEmailOptOut           = "email_opt_out"
	ReasonNoHostPhone           = "no_host_phone"
	ReasonSMSOptOut             = "sms_opt_out"
	ReasonInvalidPhoneFormat    = "invalid_phone_format"
	ReasonProviderNotConfigured = "provider_not_configured"
	ReasonSelfRSVP              = "self_rsvp"
	ReasonCooldown              = "cooldown"
)

// Stored error strings and logged provider errors are truncated to this
// length to bound row size and avoid leaking provider internals.
const maxErrorLen = 80

// ChannelResult describes one channel's outcome within a single dispatch
// pass. Skipped channels are not failures.
type ChannelResult struct {
	Attempted bool   `json:"attempted"`
	Success   bool   `json:"success"`
	Skipped   bool   `json:"skipped,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Result aggregates the three channel outcomes of one dispatch pass together
// with the merged host-notify state that was persisted.
type Result struct {
	InApp      ChannelResult          `json:"inApp"`
	Email      ChannelResult          `json:"email"`
	SMS        ChannelResult          `json:"sms"`
	HostNotify models.HostNotifyState `json:"-"`
}

// ChannelDone reports whether a channel has ever succeeded for this state.
func ChannelDone(state models.HostNotifyState, channel string) bool {
	switch channel {
	case ChannelInApp:
		return state.InAppAt != nil
	case ChannelEmail:
		return state.EmailAt != nil
	case ChannelSMS:
		return state.SMSAt != nil
	}
	return false
}

// StampChannel records a channel success at the given time. An existing
// stamp is never overwritten: delivered markers are monotonic.
func StampChannel(state *models.HostNotifyState, channel string, at time.Time) {
	stamp := func(field **time.Time) {
		if *field == nil {
			value := at
			*field = &value
		}
	}
	switch channel {
	case ChannelInApp:
		stamp(&state.InAppAt)
	case ChannelEmail:
		stamp(&state.EmailAt)
	case ChannelSMS:
		stamp(&state.SMSAt)
	}
}

// failureList collects "<channel>:<reason>" entries during one dispatch pass
// and flattens them into the stored last-error string.
type failureList struct {
	entries []string
}

func (f *failureList) record(channel, reason string) {
	f.entries = append(f.entries, channel+":"+truncate(reason, maxErrorLen))
}

func (f *failureList) String() string {
	return strings.Join(f.entries, "; ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
