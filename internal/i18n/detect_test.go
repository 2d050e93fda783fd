package i18n

import (
	"context"
	"errors"
	"testing"
)

type stubLLM struct {
	lang string
	err  error
	call int
}

func (s *stubLLM) DetectLanguage(ctx context.Context, text string) (string, error) {
	s.call++
	return s.lang, s.err
}

func TestDetectHeuristics(t *testing.T) {
	d := NewLanguageDetector(nil)
	ctx := context.Background()

	tests := []struct {
		text  string
		prior string
		want  string
	}{
		{"hola", "", LangSpanish},
		{"necesito una cita por favor", "", LangSpanish},
		{"¿cuánto cuesta?", "", LangSpanish},
		{"hello, I want to book an appointment", "", LangEnglish},
		{"thanks!", "", LangEnglish},
		// Diacritics alone decide Spanish.
		{"mañana", "", LangSpanish},
		// Ambiguous input falls back to the prior language.
		{"12345", LangSpanish, LangSpanish},
		{"12345", LangEnglish, LangEnglish},
		// No prior defaults to English.
		{"12345", "", LangEnglish},
	}

	for _, tt := range tests {
		if got := d.Detect(ctx, tt.text, tt.prior); got != tt.want {
			t.Errorf("Detect(%q, prior=%q) = %s, want %s", tt.text, tt.prior, got, tt.want)
		}
	}
}

func TestDetectConsultsLLMOnlyForLongAmbiguousText(t *testing.T) {
	llm := &stubLLM{lang: LangSpanish}
	d := NewLanguageDetector(llm)
	ctx := context.Background()

	// Short ambiguous text skips the LLM.
	if got := d.Detect(ctx, "????", LangEnglish); got != LangEnglish {
		t.Errorf("short ambiguous text should use the prior, got %s", got)
	}
	if llm.call != 0 {
		t.Errorf("LLM consulted for short text %d times", llm.call)
	}

	long := "zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz"
	if got := d.Detect(ctx, long, LangEnglish); got != LangSpanish {
		t.Errorf("long ambiguous text should use the LLM verdict, got %s", got)
	}
	if llm.call != 1 {
		t.Errorf("expected 1 LLM call, got %d", llm.call)
	}
}

func TestDetectLLMFailureFallsBackToPrior(t *testing.T) {
	llm := &stubLLM{err: errors.New("model unavailable")}
	d := NewLanguageDetector(llm)

	long := "zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz zzzz"
	if got := d.Detect(context.Background(), long, LangSpanish); got != LangSpanish {
		t.Errorf("LLM failure should fall back to the prior, got %s", got)
	}
}
