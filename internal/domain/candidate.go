package domain

import "encoding/json"

// CandidateTask is one task proposed by an extractor. Nothing about it is
// trusted: each field is kept as raw JSON so that a missing id, a numeric id,
// an unknown priority or a dependencies value that is not a list all survive
// decoding and can be repaired by the graph sanitizer.
type CandidateTask struct {
	ID           json.RawMessage `json:"id,omitempty"`
	Description  json.RawMessage `json:"description,omitempty"`
	Priority     json.RawMessage `json:"priority,omitempty"`
	Dependencies json.RawMessage `json:"dependencies,omitempty"`
}
