package interfaces

import (
	"context"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
)

// AccountDirectory looks up chart-of-accounts entries. References are opaque
// to the balancer and only forwarded.
type AccountDirectory interface {
	Search(ctx context.Context, query string, limit int) ([]models.Account, error)
	Lookup(ctx context.Context, ref string) (models.Account, error)
}
