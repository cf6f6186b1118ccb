package models

// SourceRef points an answer back at the passages it was grounded on.
type SourceRef struct {
	Filename string  `json:"filename"`
	DocType  DocType `json:"doc_type"`
	ChunkID  string  `json:"chunk_id"`
}

// ChatResponse is the body returned by POST /api/v1/chat. Answer is always
// populated; when the generation backend was unavailable it carries the
// user-facing degradation message and Degraded is set.
type ChatResponse struct {
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources,omitempty"`
	Degraded bool        `json:"degraded,omitempty"`
}

// CollectionResponse describes the currently promoted index collection.
type CollectionResponse struct {
	Collection string `json:"collection"`
	Chunks     int    `json:"chunks"`
}
