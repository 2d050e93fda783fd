package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/convodesk/convodesk/internal/models"
)

// KeywordClassifier is a deterministic, step-aware classifier built from
// fixed keyword and regex sets for English and Spanish. It serves as the
// fallback when the LLM classifier is unavailable or errors, and as the
// classifier of record in tests.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var (
	greetingRegex   = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening)|hola|buenos dias|buenos días|buenas( tardes| noches)?)\b`)
	paymentRegex    = regexp.MustCompile(`(?i)(payment link|pay link|link de pago|link para pagar|quiero pagar|pagar|checkout|enlace de pago)`)
	historyRegex    = regexp.MustCompile(`(?i)(payment history|my payments|historial de pagos|mis pagos)`)
	scheduleRegex   = regexp.MustCompile(`(?i)(appointment|schedule|book|reservation|agendar|cita|reservar|visita)`)
	pricingRegex    = regexp.MustCompile(`(?i)(price|pricing|cost|how much|precio|costo|cuanto cuesta|cuánto cuesta|tarifa)`)
	specsRegex      = regexp.MustCompile(`(?i)(feature|spec|technical|integration|funciones|especificacion|especificación|técnic)`)
	companyRegex    = regexp.MustCompile(`(?i)(who are you|about (the )?company|your company|quienes son|quiénes son|la empresa|sobre ustedes)`)
	declineRegex    = regexp.MustCompile(`(?i)^\s*(no|skip|rather not|prefer not|no thanks|omitir|prefiero no|paso)\b`)
	nextWeekRegex   = regexp.MustCompile(`(?i)(next week|following week|otra semana|siguiente semana|proxima semana|próxima semana)`)
	dateRegex       = regexp.MustCompile(`(?i)(\d{1,2}[/-]\d{1,2}|monday|tuesday|wednesday|thursday|friday|lunes|martes|miercoles|miércoles|jueves|viernes)`)
	numberRegex     = regexp.MustCompile(`^\s*\d{1,2}\s*$`)
	phoneRegex      = regexp.MustCompile(`[\d\s()+-]{7,}`)
	emailRegex      = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	// \b is ASCII-only in Go and never fires after the í in "sí"; the
	// explicit terminator group handles accented endings.
	affirmRegex     = regexp.MustCompile(`(?i)^\s*(yes|yep|yeah|sure|confirm|ok|okay|si|sí|claro|confirmo|dale|de acuerdo)(\s|[.,!?]|$)`)
	harmfulRegex    = regexp.MustCompile(`(?i)(kill|weapon|bomb|hack|steal|drugs|matar|arma|bomba|robar|drogas)`)
	offTopicRegex   = regexp.MustCompile(`(?i)(weather|sports|football|movie|recipe|clima|deportes|futbol|fútbol|pelicula|película|receta)`)
)

// Classify applies the keyword rules. Global guard-rail and payment patterns
// win first; the current step then narrows what free text most likely means.
func (c *KeywordClassifier) Classify(ctx context.Context, message string, state *models.ConversationState) (Classification, error) {
	result := Classification{Intent: models.IntentUnknown, Confidence: 0.6, Sentiment: "neutral"}

	switch {
	case harmfulRegex.MatchString(message):
		result.Intent = models.IntentHarmfulContent
	case historyRegex.MatchString(message):
		result.Intent = models.IntentViewPaymentHistory
	case paymentRegex.MatchString(message):
		result.Intent = models.IntentRequestPaymentLink
	default:
		result.Intent = c.classifyForStep(message, state)
	}

	slog.Debug("KeywordClassifier.Classify: classified message", "intent", result.Intent, "step", stepOf(state))
	return result, nil
}

func stepOf(state *models.ConversationState) models.ConversationStep {
	if state == nil {
		return models.StepGreeting
	}
	return state.CurrentStep
}

func (c *KeywordClassifier) classifyForStep(message string, state *models.ConversationState) models.Intent {
	switch stepOf(state) {
	case models.StepCollectingName:
		if strings.Contains(message, "?") {
			return models.IntentAskQuestion
		}
		return models.IntentProvideName
	case models.StepCollectingEmail:
		if emailRegex.MatchString(message) {
			return models.IntentProvideEmail
		}
		if strings.Contains(message, "?") {
			return models.IntentAskQuestion
		}
		return models.IntentProvideEmail
	case models.StepCollectingPhone:
		if declineRegex.MatchString(message) {
			return models.IntentDeclinePhone
		}
		if phoneRegex.MatchString(message) {
			return models.IntentProvidePhone
		}
		if strings.Contains(message, "?") {
			return models.IntentAskQuestion
		}
		return models.IntentProvidePhone
	case models.StepShowingSlots:
		if numberRegex.MatchString(message) {
			return models.IntentSelectTimeSlot
		}
		if nextWeekRegex.MatchString(message) {
			return models.IntentRequestNextWeek
		}
		if dateRegex.MatchString(message) {
			return models.IntentRequestSpecificDate
		}
	case models.StepConfirming:
		if affirmRegex.MatchString(message) {
			return models.IntentConfirmAppointment
		}
		if numberRegex.MatchString(message) {
			return models.IntentSelectTimeSlot
		}
	}

	return c.classifyGlobal(message)
}

func (c *KeywordClassifier) classifyGlobal(message string) models.Intent {
	switch {
	case greetingRegex.MatchString(message):
		return models.IntentGreeting
	case scheduleRegex.MatchString(message):
		return models.IntentScheduleAppointment
	case pricingRegex.MatchString(message):
		return models.IntentPricingQuestion
	case specsRegex.MatchString(message):
		return models.IntentTechnicalSpecs
	case companyRegex.MatchString(message):
		return models.IntentCompanyInfo
	case offTopicRegex.MatchString(message):
		return models.IntentOffTopic
	case strings.Contains(message, "?"):
		return models.IntentAskQuestion
	default:
		return models.IntentUnknown
	}
}
