// Package api exposes the HTTP surface of the conversation engine: a JSON
// message endpoint, session diagnostics, and an inbound Twilio WhatsApp
// webhook adapter.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/convodesk/convodesk/internal/flow"
	"github.com/convodesk/convodesk/internal/notify"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string

	// TwilioAuthToken enables signature validation on the Twilio webhook.
	// Empty disables the webhook route entirely.
	TwilioAuthToken string

	// PublicURL is the externally visible base URL, needed to reconstruct
	// the signed URL Twilio used.
	PublicURL string

	// Notifier delivers webhook replies as separate outbound messages.
	// When nil the webhook answers with inline TwiML instead.
	Notifier notify.Sender
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTwilioWebhook enables the Twilio inbound webhook with the given auth
// token and public base URL.
func WithTwilioWebhook(authToken, publicURL string) Option {
	return func(o *Opts) {
		o.TwilioAuthToken = authToken
		o.PublicURL = publicURL
	}
}

// WithNotifier sets the outbound sender for webhook replies.
func WithNotifier(sender notify.Sender) Option {
	return func(o *Opts) { o.Notifier = sender }
}

// Server wires the conversation engine to HTTP handlers.
type Server struct {
	engine   *flow.Engine
	notifier notify.Sender
	opts     Opts
}

// NewServer creates the API server around a conversation engine.
func NewServer(engine *flow.Engine, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{engine: engine, notifier: cfg.Notifier, opts: cfg}
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/messages", s.messageHandler)
	mux.HandleFunc("/api/v1/sessions", s.sessionHandler)
	mux.HandleFunc("/api/v1/sessions/reset", s.resetHandler)
	mux.HandleFunc("/health", s.healthHandler)
	if s.opts.TwilioAuthToken != "" {
		mux.HandleFunc("/webhooks/twilio", s.twilioWebhookHandler)
	}
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API server listening", "addr", s.opts.Addr, "twilioWebhook", s.opts.TwilioAuthToken != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
