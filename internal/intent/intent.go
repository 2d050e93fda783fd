// Package intent defines the message intent classifier collaborator and its
// implementations. The engine treats classification as an external concern:
// it receives a typed intent plus confidence and never re-derives intents
// from raw text outside the payment sub-flow.
package intent

import (
	"context"

	"github.com/convodesk/convodesk/internal/models"
)

// Classification is the classifier's verdict for a single message.
type Classification struct {
	Intent     models.Intent     `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
	Sentiment  string            `json:"sentiment,omitempty"`
}

// Classifier assigns an intent to a free-text message given the session's
// current conversation state.
type Classifier interface {
	Classify(ctx context.Context, message string, state *models.ConversationState) (Classification, error)
}
