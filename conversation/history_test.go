package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotin/chatcotin/models"
)

func makeTurns(n int) []models.ConversationTurn {
	turns := make([]models.ConversationTurn, n)
	for i := range turns {
		turns[i] = models.ConversationTurn{
			Question: fmt.Sprintf("pergunta %d", i+1),
			Answer:   fmt.Sprintf("resposta %d", i+1),
		}
	}
	return turns
}

func TestBuild_Empty(t *testing.T) {
	b := NewHistoryBuilder(6)
	assert.Equal(t, "", b.Build(nil))
}

func TestBuild_UnderCap_AllVerbatim(t *testing.T) {
	b := NewHistoryBuilder(6)
	out := b.Build(makeTurns(4))

	assert.NotContains(t, out, "Resumo das interações anteriores")
	for i := 1; i <= 4; i++ {
		assert.Contains(t, out, fmt.Sprintf("Usuário: pergunta %d", i))
		assert.Contains(t, out, fmt.Sprintf("Assistente: resposta %d", i))
	}
}

func TestBuild_OverCap_CollapsesOlderTurns(t *testing.T) {
	b := NewHistoryBuilder(6)
	out := b.Build(makeTurns(9))

	// 9 turns with a cap of 6: the oldest 4 collapse, the last 5 stay.
	require.True(t, strings.HasPrefix(out, "Resumo das interações anteriores: 4 trocas."))
	for i := 1; i <= 4; i++ {
		assert.NotContains(t, out, fmt.Sprintf("Usuário: pergunta %d\n", i))
	}
	for i := 5; i <= 9; i++ {
		assert.Contains(t, out, fmt.Sprintf("Usuário: pergunta %d", i))
		assert.Contains(t, out, fmt.Sprintf("Assistente: resposta %d", i))
	}
	assert.Equal(t, 5, strings.Count(out, "Usuário:"))
}

func TestBuild_ExactlyAtCap(t *testing.T) {
	b := NewHistoryBuilder(6)
	out := b.Build(makeTurns(6))

	assert.NotContains(t, out, "Resumo das interações anteriores")
	assert.Equal(t, 6, strings.Count(out, "Usuário:"))
}

func TestBuild_PreservesOrder(t *testing.T) {
	b := NewHistoryBuilder(3)
	out := b.Build(makeTurns(2))

	first := strings.Index(out, "pergunta 1")
	second := strings.Index(out, "pergunta 2")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
}
