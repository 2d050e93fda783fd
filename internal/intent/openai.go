package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/convodesk/convodesk/internal/models"
)

const classifierSystemPrompt = `You classify chat messages for an appointment and payments assistant.
Reply with a single JSON object: {"intent": "...", "confidence": 0.0-1.0, "entities": {...}, "sentiment": "positive|neutral|negative"}.
The intent must be one of: GREETING, PRICING_QUESTION, TECHNICAL_SPECS, COMPANY_INFO, SCHEDULE_APPOINTMENT, CONFIRM_APPOINTMENT, SELECT_TIME_SLOT, REQUEST_NEXT_WEEK, REQUEST_SPECIFIC_DATE, PROVIDE_NAME, PROVIDE_EMAIL, PROVIDE_PHONE, DECLINE_PHONE, ASK_QUESTION, VIEW_PAYMENT_HISTORY, REQUEST_PAYMENT_LINK, OFF_TOPIC, HARMFUL_CONTENT, UNKNOWN.`

// OpenAIClassifier classifies messages with a chat-completion call, falling
// back to the keyword classifier on any API or parsing failure so message
// processing never stalls on the model.
type OpenAIClassifier struct {
	client   openai.Client
	model    openai.ChatModel
	fallback *KeywordClassifier
}

// NewOpenAIClassifier initializes a classifier with the given API key.
func NewOpenAIClassifier(apiKey string) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	return &OpenAIClassifier{
		client:   openai.NewClient(option.WithAPIKey(apiKey)),
		model:    openai.ChatModelGPT4oMini,
		fallback: NewKeywordClassifier(),
	}, nil
}

// Classify asks the model for an intent verdict. The current step and a
// short history tail are included so the model can disambiguate free text.
func (c *OpenAIClassifier) Classify(ctx context.Context, message string, state *models.ConversationState) (Classification, error) {
	userPrompt := fmt.Sprintf("Current step: %s\nMessage: %s", stepOf(state), message)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		slog.Warn("OpenAIClassifier.Classify: API call failed, using keyword fallback", "error", err)
		return c.fallback.Classify(ctx, message, state)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAIClassifier.Classify: no choices returned, using keyword fallback")
		return c.fallback.Classify(ctx, message, state)
	}

	var result Classification
	content := extractJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		slog.Warn("OpenAIClassifier.Classify: could not parse model output, using keyword fallback", "error", err)
		return c.fallback.Classify(ctx, message, state)
	}
	if !models.IsValidIntent(result.Intent) {
		slog.Warn("OpenAIClassifier.Classify: model returned intent outside taxonomy", "intent", result.Intent)
		result.Intent = models.IntentUnknown
	}

	slog.Debug("OpenAIClassifier.Classify: classified message", "intent", result.Intent, "confidence", result.Confidence)
	return result, nil
}

// DetectLanguage asks the model whether the text is English or Spanish. It
// implements the i18n LLM fallback for longer, ambiguous messages.
func (c *OpenAIClassifier) DetectLanguage(ctx context.Context, text string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(`Answer with exactly "en" or "es": the language of the user's message.`),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("language detection call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("language detection returned no choices")
	}
	lang := strings.TrimSpace(strings.ToLower(resp.Choices[0].Message.Content))
	if lang != "en" && lang != "es" {
		return "", fmt.Errorf("language detection returned unexpected value %q", lang)
	}
	return lang, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its JSON output.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
