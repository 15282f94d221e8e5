package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/double-entry-balancer/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
)

// MemoryBatchStore is an in-memory implementation of interfaces.BatchStore.
// It is safe for concurrent use.
type MemoryBatchStore struct {
	mu        sync.Mutex
	documents map[string]models.Document // by document id
	byKey     map[string]string          // idempotency key -> document id
	lines     []models.LedgerLine        // all committed lines in commit order
}

func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{
		documents: make(map[string]models.Document),
		byKey:     make(map[string]string),
	}
}

// SaveDocument stores the document and its lines in one step.
func (m *MemoryBatchStore) SaveDocument(ctx context.Context, doc models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[doc.ID]; exists {
		return storage.ErrDuplicateDocument
	}
	if doc.IdempotencyKey != "" {
		if _, exists := m.byKey[doc.IdempotencyKey]; exists {
			return storage.ErrDuplicateDocument
		}
		m.byKey[doc.IdempotencyKey] = doc.ID
	}

	lines := make([]models.LedgerLine, len(doc.Lines))
	copy(lines, doc.Lines)
	doc.Lines = lines

	m.documents[doc.ID] = doc
	m.lines = append(m.lines, lines...)
	return nil
}

func (m *MemoryBatchStore) DocumentIDByKey(ctx context.Context, idempotencyKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byKey[idempotencyKey]
	if !ok {
		return "", storage.ErrDocumentNotFound
	}
	return id, nil
}

func (m *MemoryBatchStore) GetDocument(ctx context.Context, id string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[id]
	if !ok {
		return models.Document{}, storage.ErrDocumentNotFound
	}
	lines := make([]models.LedgerLine, len(doc.Lines))
	copy(lines, doc.Lines)
	doc.Lines = lines
	return doc, nil
}

// GetLinesByAccount returns lines posting to accountRef on either side.
func (m *MemoryBatchStore) GetLinesByAccount(ctx context.Context, accountRef string) ([]models.LedgerLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.LedgerLine
	for _, l := range m.lines {
		if l.DebitAccount == accountRef || l.CreditAccount == accountRef {
			result = append(result, l)
		}
	}
	return result, nil
}

// GetLedgerLines returns a copy of every committed line.
func (m *MemoryBatchStore) GetLedgerLines(ctx context.Context) ([]models.LedgerLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.LedgerLine, len(m.lines))
	copy(copied, m.lines)
	return copied, nil
}

var _ interfaces.BatchStore = (*MemoryBatchStore)(nil)
