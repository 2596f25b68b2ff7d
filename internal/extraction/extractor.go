package extraction

import (
	"context"

	"github.com/phrazzld/minutes-api/internal/domain"
)

// Extractor proposes tasks and dependencies for a meeting transcript.
// Implementations must not retry internally and must honour ctx
// cancellation where the underlying client does.
type Extractor interface {
	// ExtractTasks returns the raw task proposals for transcript.
	// Errors wrap ErrExtractionFailed when the model was unreachable or its
	// answer could not be read as a task list.
	ExtractTasks(ctx context.Context, transcript string) ([]domain.CandidateTask, error)
}
