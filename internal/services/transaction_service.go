package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// TransactionService orchestrates ledger writes: validation, policy
// defaults, the store call and the optional lifecycle event. Event
// publishing is non-blocking and never fails the request.
type TransactionService struct {
	store           TransactionStore
	amqpClient      *amqp.Client
	defaultCurrency string
}

func NewTransactionService(store TransactionStore, amqpClient *amqp.Client, defaultCurrency string) *TransactionService {
	return &TransactionService{
		store:           store,
		amqpClient:      amqpClient,
		defaultCurrency: defaultCurrency,
	}
}

// Create validates the transaction, applies currency and date defaults,
// assigns its id and persists it. This is also the explicit confirmation
// step for extraction drafts, carrying the receipt back-link if set.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.NewString()
	if tx.Currency == "" {
		tx.Currency = s.defaultCurrency
	}
	if tx.Date.IsZero() {
		tx.Date = core.Today()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishEvent(ctx, "created", created.ID, created.UserID)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Transaction{}, core.ErrMissingUser
	}
	return s.store.Get(ctx, userID, id)
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Transaction{}, core.ErrMissingUser
	}
	if err := upd.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return s.store.Update(ctx, userID, id, upd)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrMissingUser
	}
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.publishEvent(ctx, "deleted", id, userID)
	return nil
}

func (s *TransactionService) List(ctx context.Context, userID string, f core.Filter, p core.Page) ([]core.Transaction, int, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, core.ErrMissingUser
	}
	return s.store.List(ctx, userID, f, p.Normalize())
}

func (s *TransactionService) publishEvent(ctx context.Context, action, id, userID string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionEvent(ctx, action, id, userID); err != nil {
		// The write already succeeded; the event is best-effort.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "id", id, "error", err)
	}
}

// Close closes the AMQP connection if one was configured.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp client: %w", err)
		}
	}
	return nil
}
