package conversation

import (
	"fmt"
	"strings"

	"github.com/cotin/chatcotin/models"
)

// DefaultMaxTurns bounds how many prior turns are rendered in full.
const DefaultMaxTurns = 6

// HistoryBuilder renders prior conversation turns into the textual block
// embedded in the generation prompt. Turns are consumed read-only; storage
// belongs to the caller.
type HistoryBuilder struct {
	maxTurns int
}

// NewHistoryBuilder builds a history renderer. A non-positive cap falls
// back to DefaultMaxTurns.
func NewHistoryBuilder(maxTurns int) *HistoryBuilder {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &HistoryBuilder{maxTurns: maxTurns}
}

// Build renders the turns oldest-first. When the sequence exceeds the cap,
// the older turns collapse into a single count line and only the most
// recent maxTurns-1 turns are kept verbatim.
func (b *HistoryBuilder) Build(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	verbatim := turns
	if len(turns) > b.maxTurns {
		collapsed := len(turns) - (b.maxTurns - 1)
		fmt.Fprintf(&sb, "Resumo das interações anteriores: %d trocas.\n", collapsed)
		verbatim = turns[collapsed:]
	}
	for _, turn := range verbatim {
		fmt.Fprintf(&sb, "Usuário: %s\n", turn.Question)
		fmt.Fprintf(&sb, "Assistente: %s\n", turn.Answer)
	}
	return strings.TrimRight(sb.String(), "\n")
}
