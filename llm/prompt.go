package llm

import (
	"fmt"
	"strings"

	"github.com/cotin/chatcotin/models"
)

// systemPrompt fixes the assistant identity and answering rules. Answers
// stay grounded in the ingested documents and are always in Portuguese.
const systemPrompt = "Você é o ChatCOTIN, um assistente especializado em dados abertos e " +
	"transparência pública sobre compras governamentais. " +
	"Responda sempre em português, de forma clara, objetiva e cite a fonte/documento quando possível. " +
	"Utilize apenas informações dos documentos fornecidos na base de conhecimento para responder. " +
	"Se não encontrar a resposta nos documentos, informe que não há informação disponível. " +
	"Responda em formato markdown."

// BuildMessages renders a prompt context into the role-tagged messages sent
// to a Generator. The history block, when present, precedes the retrieved
// context inside the user turn.
func BuildMessages(pc models.PromptContext) []models.Message {
	var sb strings.Builder
	if pc.History != "" {
		sb.WriteString("Histórico da conversa (últimas interações):\n")
		sb.WriteString(pc.History)
		sb.WriteString("\n\n")
	}
	if pc.Context != "" {
		sb.WriteString("Contexto:\n")
		sb.WriteString(pc.Context)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Pergunta do usuário: %s\nResposta:", pc.Question)

	return []models.Message{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleHuman, Content: sb.String()},
	}
}
