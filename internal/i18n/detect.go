package i18n

import (
	"context"
	"log/slog"
	"strings"
)

// ambiguousLengthThreshold is the message length above which an ambiguous
// message is worth an LLM round trip. Short messages fall back to the
// session's previously known language.
const ambiguousLengthThreshold = 40

// LLMDetector is the slower fallback used only for longer, ambiguous
// messages. It returns "en" or "es".
type LLMDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// LanguageDetector detects the message locale heuristic-first, with an
// optional LLM fallback.
type LanguageDetector struct {
	llm LLMDetector
}

// NewLanguageDetector creates a detector. llm may be nil, in which case
// ambiguous messages resolve to the prior language.
func NewLanguageDetector(llm LLMDetector) *LanguageDetector {
	return &LanguageDetector{llm: llm}
}

var spanishKeywords = []string{
	"hola", "gracias", "buenos", "buenas", "necesito", "quiero", "cita",
	"pago", "ayuda", "cuando", "cuanto", "donde", "como", "precio",
	"por favor", "correo", "nombre", "semana", "manana", "tarde",
	"si", "claro", "listo", "perfecto", "omitir",
}

var englishKeywords = []string{
	"hello", "hi", "hey", "thanks", "thank", "please", "appointment",
	"schedule", "book", "payment", "link", "price", "when", "where",
	"how", "yes", "sure", "okay", "email", "name", "week", "skip",
}

// Detect returns "en" or "es" for the message. Diacritics and a fixed
// Spanish keyword list decide first; the LLM is consulted only for longer
// ambiguous messages. Detection failures default to the session's previously
// known language, or English.
func (d *LanguageDetector) Detect(ctx context.Context, text, prior string) string {
	lowered := strings.ToLower(text)

	if strings.ContainsAny(lowered, "áéíóúñü¿¡") {
		return LangSpanish
	}

	esHits := countKeywordHits(lowered, spanishKeywords)
	enHits := countKeywordHits(lowered, englishKeywords)
	if esHits > enHits {
		return LangSpanish
	}
	if enHits > esHits {
		return LangEnglish
	}

	if d.llm != nil && len(text) > ambiguousLengthThreshold {
		lang, err := d.llm.DetectLanguage(ctx, text)
		if err != nil {
			slog.Warn("LanguageDetector.Detect: LLM detection failed, using prior language", "error", err, "prior", prior)
		} else if lang == LangEnglish || lang == LangSpanish {
			return lang
		}
	}

	if prior == LangSpanish || prior == LangEnglish {
		return prior
	}
	return LangEnglish
}

func countKeywordHits(lowered string, keywords []string) int {
	hits := 0
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	for _, word := range words {
		for _, kw := range keywords {
			if word == kw {
				hits++
				break
			}
		}
	}
	// Multi-word keywords never match on split words; check them directly.
	for _, kw := range keywords {
		if strings.Contains(kw, " ") && strings.Contains(lowered, kw) {
			hits++
		}
	}
	return hits
}
