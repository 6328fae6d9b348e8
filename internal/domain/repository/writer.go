package repository

import (
	"context"
	"time"

	"docify/internal/domain/entity"
)

// DocumentWriter appends a formatted entry to the remote document. The
// insertion offset is read inside WriteEntry, immediately before the batched
// update, never reused across calls.
type DocumentWriter interface {
	WriteEntry(ctx context.Context, docID string, doc *entity.StructuredDocument, metrics *entity.GenerationMetrics, ts time.Time) error
	DocURL(docID string) string
	Ready() bool
}
