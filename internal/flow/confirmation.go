package flow

import (
	"regexp"

	"github.com/convodesk/convodesk/internal/i18n"
)

// Verdict is the outcome of classifying a confirmation reply.
type Verdict int

const (
	// VerdictOther means the reply was neither a clear yes nor a clear no.
	VerdictOther Verdict = iota
	VerdictAffirmative
	VerdictNegative
)

// confirmMatchers holds the fixed affirmative/negative regex sets per
// language. Every confirmation point in both state machines classifies
// replies through this single helper. The terminator group stands in for
// \b, which is ASCII-only in Go and never fires after accented letters
// like the í in "sí".
var confirmMatchers = map[string]struct {
	yes *regexp.Regexp
	no  *regexp.Regexp
}{
	i18n.LangEnglish: {
		yes: regexp.MustCompile(`(?i)^\s*(yes|yep|yeah|yup|sure|ok|okay|confirm|confirmed|correct|go ahead|sounds good|do it)(\s|[.,!?]|$)`),
		no:  regexp.MustCompile(`(?i)^\s*(no|nope|nah|cancel|wait|not|wrong|incorrect|change)(\s|[.,!?]|$)`),
	},
	i18n.LangSpanish: {
		yes: regexp.MustCompile(`(?i)^\s*(si|sí|claro|dale|confirmo|confirmar|correcto|de acuerdo|adelante|está bien|esta bien|ok)(\s|[.,!?]|$)`),
		no:  regexp.MustCompile(`(?i)^\s*(no|nel|cancelar|espera|cambiar|incorrecto|mal)(\s|[.,!?]|$)`),
	},
}

// DetectConfirmation classifies a reply as affirmative, negative, or other
// using the language's fixed regex set. Unknown languages use English.
func DetectConfirmation(lang, text string) Verdict {
	m, ok := confirmMatchers[lang]
	if !ok {
		m = confirmMatchers[i18n.LangEnglish]
	}
	switch {
	case m.yes.MatchString(text):
		return VerdictAffirmative
	case m.no.MatchString(text):
		return VerdictNegative
	default:
		return VerdictOther
	}
}
