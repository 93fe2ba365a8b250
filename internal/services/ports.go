package services

import (
	"context"

	"fintrack/internal/core"
)

// TransactionStore is the durable record store contract: filtered, sorted,
// paginated and owner-scoped reads and writes over a single flat collection.
type TransactionStore interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, userID, id string) (core.Transaction, error)
	Update(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, f core.Filter, p core.Page) ([]core.Transaction, int, error)
}

// LedgerReader is the aggregation engine's read-only view of the store.
type LedgerReader interface {
	Matching(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error)
}
