package extraction

import (
	"errors"
	"fmt"
)

// Common errors returned by extractors.
var (
	// ErrExtractionFailed is returned when task extraction fails for any
	// reason. The more specific errors below wrap it.
	ErrExtractionFailed = errors.New("failed to extract tasks from transcript")

	// ErrInvalidResponse is returned when the model response cannot be parsed
	// as a task list.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrExtractionFailed)

	// ErrContentBlocked is returned when the model refuses the transcript
	// because of its safety filters.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", ErrExtractionFailed)

	// ErrEmptyTranscript is returned when asked to extract from blank text.
	ErrEmptyTranscript = errors.New("transcript text cannot be empty")

	// ErrInvalidConfig is returned when an extractor is misconfigured.
	ErrInvalidConfig = errors.New("invalid extractor configuration")
)
