package models

// ChatRequest is the body of POST /api/v1/chat. Turns are the stored
// conversation supplied by the persistence collaborator; the core does not
// load them itself.
type ChatRequest struct {
	Message string             `json:"message" binding:"required"`
	Turns   []ConversationTurn `json:"turns,omitempty"`

	// Optional per-request generation parameter overrides.
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	NumCtx        *int     `json:"num_ctx,omitempty"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`
}
