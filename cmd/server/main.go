package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/config"
	"github.com/gatherly/app/internal/database"
	"github.com/gatherly/app/internal/handlers"
	"github.com/gatherly/app/internal/notify"
	"github.com/gatherly/app/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	store, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer store.Close()

	verifier := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AdminEmails, cfg.LegacyAdminEmail)

	// Providers are optional; a missing key leaves the channel unconfigured
	// and the dispatcher skips it with provider_not_configured.
	var emailSender notify.EmailSender
	if cfg.EmailAPIKey != "" {
		emailSender = notify.NewHTTPEmailSender(cfg.EmailAPIKey, cfg.EmailAPIURL, cfg.ProviderTimeout)
	}
	var smsSender notify.SMSSender
	if cfg.SMSAccountSID != "" && cfg.SMSAuthToken != "" && cfg.SMSFrom != "" {
		smsSender = notify.NewHTTPSMSSender(cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSAPIURL, cfg.SMSFrom, cfg.ProviderTimeout)
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Store:        store,
		Hosts:        store,
		InApp:        store,
		Email:        emailSender,
		SMS:          smsSender,
		EmailFrom:    cfg.EmailFrom,
		EmailReplyTo: cfg.EmailReplyTo,
		Pacer:        notify.NewChannelPacer(10),
	})

	ipGuard := ratelimit.New()
	reservationGuard := ratelimit.New()
	eventGuard := ratelimit.NewBounded(200)
	go pruneLoop(ipGuard, reservationGuard)

	gate := &handlers.NotifyGate{
		Store:            store,
		Verifier:         verifier,
		Dispatcher:       dispatcher,
		IPGuard:          ipGuard,
		ReservationGuard: reservationGuard,
		Cooldown:         cfg.NotifyCooldown,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", handlers.Register(store, verifier))
	mux.HandleFunc("POST /api/login", handlers.Login(store, verifier))

	mux.HandleFunc("POST /api/events", handlers.CreateEvent(store, verifier))
	mux.HandleFunc("GET /api/events", handlers.ListEvents(store))
	mux.HandleFunc("GET /api/events/{id}", handlers.EventDetail(store))

	mux.HandleFunc("POST /api/events/{id}/reservations", handlers.CreateReservation(store, verifier, ipGuard))
	mux.HandleFunc("GET /api/events/{id}/reservations", handlers.ListEventReservations(store, verifier))
	mux.HandleFunc("POST /api/reservations/{id}/cancel", handlers.CancelReservation(store, verifier))
	mux.HandleFunc("POST /api/reservations/{id}/notify-host", gate.Handler())

	mux.HandleFunc("GET /api/events/{id}/chat", handlers.ListChatMessages(store, verifier))
	mux.HandleFunc("POST /api/events/{id}/chat", handlers.PostChatMessage(store, verifier, eventGuard))

	mux.HandleFunc("GET /api/notifications", handlers.ListNotifications(store, verifier))
	mux.HandleFunc("GET /api/health", handlers.Health(store))

	addr := ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}

// pruneLoop drops expired rate-limit entries so long-lived processes do not
// accumulate one counter per client ever seen.
func pruneLoop(limiters ...*ratelimit.Limiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		for _, l := range limiters {
			l.Prune()
		}
	}
}
