package retrieval

import (
	"strings"

	"github.com/cotin/chatcotin/models"
)

// BuildContext joins the selected chunk texts with a blank line, preserving
// rank order. No truncation happens here; the character budget differs per
// generation backend and is owned by the invoker.
func BuildContext(chunks []models.Chunk) string {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	return strings.Join(texts, "\n\n")
}
