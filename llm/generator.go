package llm

import (
	"context"

	"github.com/cotin/chatcotin/models"
)

// CharsPerToken is the approximation used to convert character budgets into
// model token budgets. Budgets in this package are expressed in characters;
// divide by this constant for a rough token estimate.
const CharsPerToken = 4

// Params carries the sampling knobs forwarded to the generation backend.
type Params struct {
	Temperature   float64
	TopP          float64
	TopK          int
	NumCtx        int
	RepeatPenalty float64
}

// DefaultParams returns the sampling defaults tuned for factual,
// document-grounded answers.
func DefaultParams() Params {
	return Params{
		Temperature:   0.1,
		TopP:          0.9,
		TopK:          40,
		NumCtx:        4096,
		RepeatPenalty: 1.2,
	}
}

// Generator abstracts a chat-completion backend. Implementations translate
// transport failures into *GenerationError so the invoker can decide whether
// to retry.
type Generator interface {
	Generate(ctx context.Context, msgs []models.Message, params Params) (string, error)
}
