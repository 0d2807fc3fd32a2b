package conversation

import (
	"context"

	"github.com/geoscribe/report-backend/internal/entity"
)

// ThreadConnector covers the thread-level assistant channel operations.
type ThreadConnector interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID string, role entity.MessageRole, text string) error
}

// RunExecutor executes a generation run on a thread and returns the
// parsed dual-channel reply.
type RunExecutor interface {
	RunAndParse(ctx context.Context, threadID, assistantID string) (map[string]any, string, error)
}

// DraftMerger folds extracted data into the section draft store.
type DraftMerger interface {
	MergeSectionData(ctx context.Context, documentID string, data map[string]any) error
}
