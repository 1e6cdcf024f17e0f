package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gatherly/app/internal/models"
)

// ReservationStore is the slice of persistence the dispatcher needs: the
// current host-notify state, a conditional per-channel sent stamp, and the
// per-pass attempt record.
type ReservationStore interface {
	GetReservationByID(id string) (*models.Reservation, error)
	MarkNotifyChannelSent(reservationID, channel string, at time.Time) (bool, error)
	UpdateNotifyAttempt(reservationID string, at time.Time, lastError string) error
}

// HostDirectory resolves host profiles.
type HostDirectory interface {
	GetUserByID(id string) (*models.User, error)
}

// InAppSink records an in-app notification for a user.
type InAppSink interface {
	CreateNotification(userID, notifType, title, body string) (*models.Notification, error)
}

// Input carries the reservation context for one dispatch.
type Input struct {
	ReservationID string
	EventID       string
	HostID        string
	AttendeeName  string
	AttendeeEmail string
	EventTitle    string
	PricingType   string
	IsGuest       bool
}

// DispatcherConfig wires a Dispatcher's collaborators. Email and SMS may be
// nil when the corresponding provider is not configured.
type DispatcherConfig struct {
	Store        ReservationStore
	Hosts        HostDirectory
	InApp        InAppSink
	Email        EmailSender
	SMS          SMSSender
	EmailFrom    string
	EmailReplyTo string
	Pacer        *ChannelPacer
	Clock        func() time.Time
}

// Dispatcher notifies a host about a reservation over in-app, email, and SMS
// channels, each at most once per reservation. Channels fail independently:
// a missing phone number never blocks email, and vice versa. The channels
// are attempted sequentially because provider sends are not idempotent and
// sequential execution bounds the worst-case side effects of a crash.
type Dispatcher struct {
	store        ReservationStore
	hosts        HostDirectory
	inApp        InAppSink
	email        EmailSender
	sms          SMSSender
	emailFrom    string
	emailReplyTo string
	pacer        *ChannelPacer
	clock        func() time.Time
	locks        keyedMutex
}

// NewDispatcher constructs a Dispatcher from its collaborators.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		store:        cfg.Store,
		hosts:        cfg.Hosts,
		inApp:        cfg.InApp,
		email:        cfg.Email,
		sms:          cfg.SMS,
		emailFrom:    cfg.EmailFrom,
		emailReplyTo: cfg.EmailReplyTo,
		pacer:        cfg.Pacer,
		clock:        clock,
	}
}

// Dispatch runs one notification pass for a reservation and persists the
// merged host-notify state. It never returns an error and never panics
// outward: a notification failure must not be conflated with a reservation
// failure, so everything degrades to per-channel reasons and a stored
// last-error string.
func (d *Dispatcher) Dispatch(ctx context.Context, in Input) (res Result) {
	unlock := d.locks.lock(in.ReservationID)
	defer unlock()

	now := d.clock().UTC()
	var failures failureList

	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: dispatch panic for reservation %s: %v", in.ReservationID, r)
			failures.record("dispatch", fmt.Sprint(r))
			res.HostNotify.LastError = failures.String()
			d.persistAttempt(in.ReservationID, now, res.HostNotify.LastError)
		}
	}()

	reservation, err := d.store.GetReservationByID(in.ReservationID)
	if err != nil {
		failures.record("dispatch", err.Error())
		res.HostNotify.LastError = failures.String()
		d.persistAttempt(in.ReservationID, now, res.HostNotify.LastError)
		return res
	}
	state := reservation.HostNotify

	host, err := d.hosts.GetUserByID(in.HostID)
	if err != nil {
		state.LastAttemptAt = &now
		state.LastError = ReasonHostNotFound
		res.HostNotify = state
		d.persistAttempt(in.ReservationID, now, ReasonHostNotFound)
		return res
	}

	res.InApp = d.sendInApp(&state, host, in, now, &failures)
	res.Email = d.sendEmail(ctx, &state, host, in, now, &failures)
	res.SMS = d.sendSMS(ctx, &state, host, in, now, &failures)

	state.LastAttemptAt = &now
	state.LastError = failures.String()
	res.HostNotify = state
	d.persistAttempt(in.ReservationID, now, state.LastError)
	return res
}

func (d *Dispatcher) sendInApp(state *models.HostNotifyState, host *models.User, in Input, now time.Time, failures *failureList) ChannelResult {
	if ChannelDone(*state, ChannelInApp) {
		return ChannelResult{Skipped: true, Reason: ReasonAlreadySent}
	}

	title, body := inAppContent(in)
	if _, err := d.inApp.CreateNotification(host.ID, "reservation", title, body); err != nil {
		reason := truncate(err.Error(), maxErrorLen)
		failures.record(ChannelInApp, reason)
		return ChannelResult{Attempted: true, Reason: reason}
	}

	d.markSent(state, in.ReservationID, ChannelInApp, now)
	return ChannelResult{Attempted: true, Success: true}
}

func (d *Dispatcher) sendEmail(ctx context.Context, state *models.HostNotifyState, host *models.User, in Input, now time.Time, failures *failureList) ChannelResult {
	if ChannelDone(*state, ChannelEmail) {
		return ChannelResult{Skipped: true, Reason: ReasonAlreadySent}
	}
	if strings.TrimSpace(host.Email) == "" {
		return ChannelResult{Skipped: true, Reason: ReasonNoHostEmail}
	}
	if !host.EmailOptIn {
		return ChannelResult{Skipped: true, Reason: ReasonEmailOptOut}
	}
	if d.email == nil {
		return ChannelResult{Skipped: true, Reason: ReasonProviderNotConfigured}
	}

	if err := d.pacer.Wait(ctx, ChannelEmail); err != nil {
		reason := truncate(err.Error(), maxErrorLen)
		failures.record(ChannelEmail, reason)
		return ChannelResult{Attempted: true, Reason: reason}
	}

	subject, body := emailContent(in, host)
	msg := EmailMessage{
		From:    d.emailFrom,
		ReplyTo: d.emailReplyTo,
		To:      host.Email,
		Subject: subject,
		HTML:    body,
	}
	if _, err := d.email.Send(ctx, msg); err != nil {
		reason := truncate(err.Error(), maxErrorLen)
		log.Printf("notify: email send failed for reservation %s: %s", in.ReservationID, reason)
		failures.record(ChannelEmail, reason)
		return ChannelResult{Attempted: true, Reason: reason}
	}

	d.markSent(state, in.ReservationID, ChannelEmail, now)
	return ChannelResult{Attempted: true, Success: true}
}

func (d *Dispatcher) sendSMS(ctx context.Context, state *models.HostNotifyState, host *models.User, in Input, now time.Time, failures *failureList) ChannelResult {
	if ChannelDone(*state, ChannelSMS) {
		return ChannelResult{Skipped: true, Reason: ReasonAlreadySent}
	}
	phone := NormalizePhone(host.Phone)
	if phone == "" {
		return ChannelResult{Skipped: true, Reason: ReasonNoHostPhone}
	}
	if !host.SMSOptIn {
		return ChannelResult{Skipped: true, Reason: ReasonSMSOptOut}
	}
	if !ValidE164(phone) {
		return ChannelResult{Skipped: true, Reason: ReasonInvalidPhoneFormat}
	}
	if d.sms == nil {
		return ChannelResult{Skipped: true, Reason: ReasonProviderNotConfigured}
	}

	if err := d.pacer.Wait(ctx, ChannelSMS); err != nil {
		reason := truncate(err.Error(), maxErrorLen)
		failures.record(ChannelSMS, reason)
		return ChannelResult{Attempted: true, Reason: reason}
	}

	log.Printf("notify: sending sms to %s for reservation %s", MaskPhone(phone), in.ReservationID)
	if _, err := d.sms.Send(ctx, SMSMessage{To: phone, Body: smsContent(in)}); err != nil {
		reason := truncate(err.Error(), maxErrorLen)
		log.Printf("notify: sms send failed for reservation %s: %s", in.ReservationID, reason)
		failures.record(ChannelSMS, reason)
		return ChannelResult{Attempted: true, Reason: reason}
	}

	d.markSent(state, in.ReservationID, ChannelSMS, now)
	return ChannelResult{Attempted: true, Success: true}
}

// markSent stamps the channel in memory and claims it in the store. Losing
// the store claim means a concurrent dispatch already stamped the channel;
// the send still happened, so the in-memory result stays a success. Stamp
// persistence failing is logged, not surfaced: durability here is best
// effort by contract.
func (d *Dispatcher) markSent(state *models.HostNotifyState, reservationID, channel string, at time.Time) {
	StampChannel(state, channel, at)
	if _, err := d.store.MarkNotifyChannelSent(reservationID, channel, at); err != nil {
		log.Printf("notify: persist %s stamp failed for reservation %s: %v", channel, reservationID, err)
	}
}

// persistAttempt writes the per-pass attempt record. A failure here is
// swallowed after logging; the in-memory result is still returned to the
// caller.
func (d *Dispatcher) persistAttempt(reservationID string, at time.Time, lastError string) {
	defer func() {
		_ = recover()
	}()
	if err := d.store.UpdateNotifyAttempt(reservationID, at, lastError); err != nil {
		log.Printf("notify: persist attempt failed for reservation %s: %v", reservationID, err)
	}
}
