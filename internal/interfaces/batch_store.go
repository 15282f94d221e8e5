package interfaces

import (
	"context"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
)

// BatchStore persists finalized documents. SaveDocument must store the
// document and all of its lines atomically.
type BatchStore interface {
	SaveDocument(ctx context.Context, doc models.Document) error
	// DocumentIDByKey returns the id of the document committed under
	// idempotencyKey, or storage.ErrDocumentNotFound.
	DocumentIDByKey(ctx context.Context, idempotencyKey string) (string, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
	GetLinesByAccount(ctx context.Context, accountRef string) ([]models.LedgerLine, error)
	GetLedgerLines(ctx context.Context) ([]models.LedgerLine, error)
}
