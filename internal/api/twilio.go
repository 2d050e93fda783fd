package api

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	twilioclient "github.com/twilio/twilio-go/client"
)

// twimlResponse is the minimal TwiML reply Twilio expects from an inbound
// message webhook.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// twilioWebhookHandler handles POST /webhooks/twilio: an inbound WhatsApp
// message forwarded by Twilio. The sender's number is the session id and the
// receiving number identifies the tenant, so one deployment can serve many
// tenants from one webhook.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if !s.validTwilioSignature(r) {
		slog.Warn("Server.twilioWebhookHandler: signature validation failed", "remote", r.RemoteAddr)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	from := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	to := strings.TrimPrefix(r.PostFormValue("To"), "whatsapp:")
	body := r.PostFormValue("Body")
	if from == "" || to == "" || body == "" {
		slog.Warn("Server.twilioWebhookHandler: missing required fields", "from_set", from != "", "to_set", to != "", "body_set", body != "")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	response, state, err := s.engine.ProcessMessage(r.Context(), from, to, body)
	if err != nil {
		slog.Error("Server.twilioWebhookHandler: engine failed", "error", err, "from", from)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	slog.Info("Server.twilioWebhookHandler: inbound message processed",
		"from", from, "tenant", to, "step", state.CurrentStep)

	// With an outbound sender the reply goes out as its own message and the
	// TwiML body stays empty.
	reply := twimlResponse{Message: response}
	if s.notifier != nil {
		if err := s.notifier.SendMessage(r.Context(), from, response); err != nil {
			slog.Error("Server.twilioWebhookHandler: outbound send failed, falling back to TwiML", "error", err, "to", from)
		} else {
			reply.Message = ""
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	if err := xml.NewEncoder(w).Encode(reply); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to write TwiML", "error", err)
	}
}

// validTwilioSignature checks X-Twilio-Signature against the configured auth
// token using the URL Twilio signed.
func (s *Server) validTwilioSignature(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	url := strings.TrimRight(s.opts.PublicURL, "/") + r.URL.RequestURI()
	validator := twilioclient.NewRequestValidator(s.opts.TwilioAuthToken)
	return validator.Validate(url, params, signature)
}
