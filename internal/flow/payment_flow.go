package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/convodesk/convodesk/internal/i18n"
	"github.com/convodesk/convodesk/internal/models"
	"github.com/convodesk/convodesk/internal/payment"
	"github.com/convodesk/convodesk/internal/session"
)

// historyPageSize is how many issued links one history page shows.
const historyPageSize = 5

// historyMoreRegex matches a request for the next history page.
var historyMoreRegex = regexp.MustCompile(`(?i)^\s*(more|más|mas|siguiente|next)\b`)

// PaymentFlow orchestrates the nested payment sub-flow. While the stage is
// active it owns message processing entirely; the main conversation step is
// untouched and resumes wherever it was once the sub-flow finishes.
type PaymentFlow struct {
	gateway payment.Gateway
	now     func() time.Time
}

// NewPaymentFlow creates the orchestrator around a payment gateway.
func NewPaymentFlow(gateway payment.Gateway, now func() time.Time) *PaymentFlow {
	return &PaymentFlow{gateway: gateway, now: now}
}

// stageHandler processes one message for a specific payment stage.
type stageHandler func(f *PaymentFlow, ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string

// stageHandlers is the declarative stage table: every active stage maps to
// exactly one handler, so each message is interpreted by one stage only.
var stageHandlers = map[models.PaymentStage]stageHandler{
	models.StageAwaitingProduct:             (*PaymentFlow).handleAwaitingProduct,
	models.StageAwaitingName:                (*PaymentFlow).handleAwaitingName,
	models.StageAwaitingEmail:               (*PaymentFlow).handleAwaitingEmail,
	models.StageAwaitingConfirmation:        (*PaymentFlow).handleAwaitingConfirmation,
	models.StageAwaitingNewLinkConfirmation: (*PaymentFlow).handleAwaitingNewLinkConfirmation,
	models.StageHistory:                     (*PaymentFlow).handleHistory,
}

// Handle routes a message to the current stage's handler.
func (f *PaymentFlow) Handle(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	handler, ok := stageHandlers[state.PaymentContext.Stage]
	if !ok {
		// Stored stage we no longer understand; abandon the sub-flow.
		slog.Warn("PaymentFlow.Handle: unknown payment stage, resetting", "stage", state.PaymentContext.Stage, "sessionID", state.SessionID)
		update.Payment = &session.PaymentUpdate{Reset: true}
		return i18n.Render(lang, "stateRecovery", nil)
	}
	return handler(f, ctx, state, lang, message, update)
}

// Start enters the payment sub-flow. A session that already completed a
// payment link is offered the existing link first instead of silently
// minting a new one.
func (f *PaymentFlow) Start(ctx context.Context, state *models.ConversationState, lang string, update *session.StateUpdate) string {
	pc := state.PaymentContext
	if pc.Stage == models.StageCompleted && pc.LinkToken != "" {
		f.setStage(state, models.StageAwaitingNewLinkConfirmation, update)
		return i18n.Render(lang, "paymentNewLinkPrompt", map[string]string{
			"product": pc.ProductName,
			"amount":  formatAmount(pc.AmountCents, pc.Currency),
			"url":     pc.LinkURL,
		})
	}
	return f.offerProducts(ctx, state, lang, update)
}

// StartHistory enters the read-only payment history sub-mode at the first
// page. It never mutates link state, only the viewing cursor.
func (f *PaymentFlow) StartHistory(ctx context.Context, state *models.ConversationState, lang string, update *session.StateUpdate) string {
	links, err := f.gateway.ListIssuedLinks(ctx, state.TenantID, state.SessionID, 0, historyPageSize)
	if err != nil {
		slog.Error("PaymentFlow.StartHistory: gateway list failed", "error", err, "sessionID", state.SessionID)
		return i18n.Render(lang, "paymentRetryLater", nil)
	}
	if len(links) == 0 {
		return i18n.Render(lang, "paymentHistoryEmpty", nil)
	}

	offset := 0
	pageSize := historyPageSize
	f.setStage(state, models.StageHistory, update)
	update.Payment.HistoryOffset = &offset
	update.Payment.HistoryPageSize = &pageSize
	update.Payment.TouchViewedAt = true
	return f.renderHistoryPage(lang, links)
}

// offerProducts lists the tenant's purchasable catalog and moves to product
// selection.
func (f *PaymentFlow) offerProducts(ctx context.Context, state *models.ConversationState, lang string, update *session.StateUpdate) string {
	products, err := f.gateway.ListActiveProducts(ctx, state.TenantID)
	if err != nil {
		slog.Error("PaymentFlow.offerProducts: gateway catalog failed", "error", err, "tenantID", state.TenantID)
		return i18n.Render(lang, "paymentRetryLater", nil)
	}
	if len(products) == 0 {
		return i18n.Render(lang, "paymentNoProducts", nil)
	}

	f.setStage(state, models.StageAwaitingProduct, update)
	return i18n.Render(lang, "paymentSelectProduct", map[string]string{
		"products": formatProductList(products),
	})
}

func (f *PaymentFlow) handleAwaitingProduct(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	products, err := f.gateway.ListActiveProducts(ctx, state.TenantID)
	if err != nil {
		slog.Error("PaymentFlow.handleAwaitingProduct: gateway catalog failed", "error", err, "tenantID", state.TenantID)
		return i18n.Render(lang, "paymentRetryLater", nil)
	}
	if len(products) == 0 {
		update.Payment = &session.PaymentUpdate{Reset: true}
		return i18n.Render(lang, "paymentNoProducts", nil)
	}

	product, ok := matchProduct(products, message)
	if !ok {
		return i18n.Render(lang, "paymentProductRetry", map[string]string{
			"products": formatProductList(products),
		})
	}

	// The product snapshot freezes the price at selection time.
	f.setStage(state, models.StageAwaitingName, update)
	update.Payment.ProductID = &product.ID
	update.Payment.ProductName = &product.Name
	update.Payment.AmountCents = &product.AmountCents
	update.Payment.Currency = &product.Currency
	return i18n.Render(lang, "paymentAskName", map[string]string{
		"product": product.Name,
		"amount":  formatAmount(product.AmountCents, product.Currency),
	})
}

func (f *PaymentFlow) handleAwaitingName(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	name, err := models.ValidateName(message)
	if err != nil {
		attempts := state.AttemptCount.Name + 1
		update.AttemptName = &attempts
		return i18n.RenderRetry(lang, "paymentNameRetry", attempts, nil)
	}

	confirmed := true
	f.setStage(state, models.StageAwaitingEmail, update)
	update.Payment.CustomerName = &name
	update.Payment.NameConfirmed = &confirmed
	return i18n.Render(lang, "paymentAskEmail", map[string]string{"name": name})
}

func (f *PaymentFlow) handleAwaitingEmail(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	email, err := models.ValidateEmail(message)
	if err != nil {
		attempts := state.AttemptCount.Email + 1
		update.AttemptEmail = &attempts
		return i18n.RenderRetry(lang, "paymentEmailRetry", attempts, nil)
	}

	confirmed := true
	f.setStage(state, models.StageAwaitingConfirmation, update)
	update.Payment.CustomerEmail = &email
	update.Payment.EmailConfirmed = &confirmed
	return i18n.Render(lang, "paymentSummary", map[string]string{
		"product": state.PaymentContext.ProductName,
		"amount":  formatAmount(state.PaymentContext.AmountCents, state.PaymentContext.Currency),
		"name":    state.PaymentContext.CustomerName,
		"email":   email,
	})
}

func (f *PaymentFlow) handleAwaitingConfirmation(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	pc := state.PaymentContext
	switch DetectConfirmation(lang, message) {
	case VerdictAffirmative:
		return f.issueLink(ctx, state, lang, update)

	case VerdictNegative:
		// Back to product selection; the collected customer data is kept
		// so a re-run only asks for what changes.
		return f.offerProducts(ctx, state, lang, update)

	default:
		return i18n.Render(lang, "yesNoRetry", nil) + "\n\n" + i18n.Render(lang, "paymentSummary", map[string]string{
			"product": pc.ProductName,
			"amount":  formatAmount(pc.AmountCents, pc.Currency),
			"name":    pc.CustomerName,
			"email":   pc.CustomerEmail,
		})
	}
}

// issueLink calls the gateway's ensure endpoint. On gateway failure the
// stage stays at awaiting_confirmation so a later "yes" simply retries.
func (f *PaymentFlow) issueLink(ctx context.Context, state *models.ConversationState, lang string, update *session.StateUpdate) string {
	pc := state.PaymentContext
	link, err := f.gateway.EnsurePaymentLink(ctx, payment.EnsureLinkParams{
		TenantID:      state.TenantID,
		SessionID:     state.SessionID,
		ProductID:     pc.ProductID,
		CustomerName:  pc.CustomerName,
		CustomerEmail: pc.CustomerEmail,
		AmountCents:   pc.AmountCents,
		Currency:      pc.Currency,
	})
	if err != nil {
		slog.Error("PaymentFlow.issueLink: gateway ensure failed", "error", err, "sessionID", state.SessionID, "productID", pc.ProductID)
		return i18n.Render(lang, "paymentRetryLater", nil)
	}

	url := link.URL
	if url == "" {
		base, err := f.gateway.ResolveTenantBaseURL(ctx, state.TenantID)
		if err != nil {
			slog.Warn("PaymentFlow.issueLink: tenant base URL lookup failed, using route", "error", err, "tenantID", state.TenantID)
			url = link.Route
		} else {
			url = strings.TrimRight(base, "/") + link.Route
		}
	}

	confirmed := true
	f.setStage(state, models.StageCompleted, update)
	update.Payment.LinkToken = &link.Token
	update.Payment.LinkURL = &url
	update.Payment.LinkRoute = &link.Route
	update.Payment.Confirmed = &confirmed
	update.Payment.TouchGeneratedAt = true

	key := "paymentLinkReady"
	if link.Existing {
		key = "paymentLinkExisting"
	}
	slog.Info("PaymentFlow.issueLink: payment link issued",
		"sessionID", state.SessionID, "productID", pc.ProductID, "existing", link.Existing)
	return i18n.Render(lang, key, map[string]string{
		"product": pc.ProductName,
		"amount":  formatAmount(pc.AmountCents, pc.Currency),
		"url":     url,
	})
}

func (f *PaymentFlow) handleAwaitingNewLinkConfirmation(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	switch DetectConfirmation(lang, message) {
	case VerdictAffirmative:
		// Check the catalog before wiping anything so a gateway failure
		// leaves the existing link intact.
		products, err := f.gateway.ListActiveProducts(ctx, state.TenantID)
		if err != nil {
			slog.Error("PaymentFlow.handleAwaitingNewLinkConfirmation: gateway catalog failed", "error", err, "tenantID", state.TenantID)
			return i18n.Render(lang, "paymentRetryLater", nil)
		}
		if len(products) == 0 {
			f.setStage(state, models.StageCompleted, update)
			return i18n.Render(lang, "paymentNoProducts", nil)
		}
		update.Payment = &session.PaymentUpdate{Reset: true}
		f.setStage(state, models.StageAwaitingProduct, update)
		return i18n.Render(lang, "paymentSelectProduct", map[string]string{
			"products": formatProductList(products),
		})

	case VerdictNegative:
		f.setStage(state, models.StageCompleted, update)
		return i18n.Render(lang, "paymentKeepExisting", map[string]string{
			"url": state.PaymentContext.LinkURL,
		})

	default:
		return i18n.Render(lang, "yesNoRetry", nil)
	}
}

func (f *PaymentFlow) handleHistory(ctx context.Context, state *models.ConversationState, lang, message string, update *session.StateUpdate) string {
	pc := state.PaymentContext
	if !historyMoreRegex.MatchString(message) {
		// Anything else leaves the sub-mode. History is read-only: only
		// the viewing cursor is cleared, and a completed link keeps its
		// completed stage so a later payment request still routes through
		// the new-link confirmation.
		f.setStage(state, f.historyExitStage(state), update)
		zero := 0
		update.Payment.HistoryOffset = &zero
		update.Payment.HistoryPageSize = &zero
		return i18n.Render(lang, "stateRecovery", nil)
	}

	pageSize := pc.HistoryPageSize
	if pageSize <= 0 {
		pageSize = historyPageSize
	}
	offset := pc.HistoryOffset + pageSize
	links, err := f.gateway.ListIssuedLinks(ctx, state.TenantID, state.SessionID, offset, pageSize)
	if err != nil {
		slog.Error("PaymentFlow.handleHistory: gateway list failed", "error", err, "sessionID", state.SessionID)
		return i18n.Render(lang, "paymentRetryLater", nil)
	}
	if len(links) == 0 {
		// Cursor stays put so "more" after the last page is harmless.
		return i18n.Render(lang, "paymentHistoryEmpty", nil)
	}

	update.Payment = &session.PaymentUpdate{
		HistoryOffset: &offset,
		TouchViewedAt: true,
	}
	return f.renderHistoryPage(lang, links)
}

// historyExitStage is the stage the sub-flow returns to when the read-only
// history mode ends: completed while an issued link exists, idle otherwise.
func (f *PaymentFlow) historyExitStage(state *models.ConversationState) models.PaymentStage {
	if state.PaymentContext.LinkToken != "" {
		return models.StageCompleted
	}
	return models.StageIdle
}

func (f *PaymentFlow) renderHistoryPage(lang string, links []payment.IssuedLink) string {
	body := i18n.Render(lang, "paymentHistoryHeader", map[string]string{
		"links": formatIssuedLinks(links),
	})
	if len(links) == historyPageSize {
		body += "\n" + i18n.Render(lang, "paymentHistoryMore", nil)
	}
	return body
}

// setStage stages a payment stage change on the pending update and records
// it in the transition log with the sub-flow as the source.
func (f *PaymentFlow) setStage(state *models.ConversationState, stage models.PaymentStage, update *session.StateUpdate) {
	if update.Payment == nil {
		update.Payment = &session.PaymentUpdate{}
	}
	update.Payment.Stage = &stage
	update.AppendTransitions = append(update.AppendTransitions, models.TransitionRecord{
		From:      models.ConversationStep(state.PaymentContext.Stage),
		To:        models.ConversationStep(stage),
		Intent:    models.IntentRequestPaymentLink,
		Reason:    models.ReasonTransition,
		Timestamp: f.now(),
		Source:    "payment",
	})
}

// matchProduct resolves user input against the catalog by 1-based list
// number, exact product code, or case-insensitive substring of the name.
func matchProduct(products []models.Product, input string) (models.Product, bool) {
	trimmed := strings.TrimSpace(input)
	if index, err := strconv.Atoi(trimmed); err == nil {
		if index >= 1 && index <= len(products) {
			return products[index-1], true
		}
		return models.Product{}, false
	}

	lowered := strings.ToLower(trimmed)
	for _, p := range products {
		if strings.EqualFold(p.ProductCode, trimmed) {
			return p, true
		}
		if strings.Contains(strings.ToLower(p.Name), lowered) {
			return p, true
		}
	}
	return models.Product{}, false
}

// formatProductList renders a numbered catalog for a message body.
func formatProductList(products []models.Product) string {
	lines := make([]string, len(products))
	for i, p := range products {
		lines[i] = fmt.Sprintf("%d. %s - %s", i+1, p.Name, formatAmount(p.AmountCents, p.Currency))
	}
	return strings.Join(lines, "\n")
}

// formatIssuedLinks renders a history page, newest first.
func formatIssuedLinks(links []payment.IssuedLink) string {
	lines := make([]string, len(links))
	for i, link := range links {
		lines[i] = fmt.Sprintf("%d. %s - %s - %s\n   %s",
			i+1, link.CreatedAt.Format("Jan 2, 2006"), link.ProductName,
			formatAmount(link.AmountCents, link.Currency), link.URL)
	}
	return strings.Join(lines, "\n")
}

// formatAmount renders cents as a human amount, e.g. 9900 USD -> "$99.00".
func formatAmount(cents int64, currency string) string {
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	switch strings.ToUpper(currency) {
	case "USD", "MXN":
		return "$" + amount
	case "EUR":
		return "€" + amount
	default:
		return amount + " " + strings.ToUpper(currency)
	}
}
