package document

import "context"

// RenderNotifier decouples state changes from PDF rendering: producers
// only announce that a document's approved content changed.
type RenderNotifier interface {
	NotifyRender(ctx context.Context, documentID string) error
}
