package gemini

import (
	"fmt"

	"github.com/phrazzld/minutes-api/internal/extraction"
)

// Errors specific to the Gemini adapter. Each wraps an extraction error so
// callers never need to import this package to classify failures.
var (
	// ErrNoCandidates is returned when the model answers without any candidate.
	ErrNoCandidates = fmt.Errorf("%w: no candidates in response", extraction.ErrInvalidResponse)

	// ErrEmptyContent is returned when the first candidate carries no text.
	ErrEmptyContent = fmt.Errorf("%w: empty content in response", extraction.ErrInvalidResponse)
)
