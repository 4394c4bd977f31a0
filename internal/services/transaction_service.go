package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/amqp"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
// The export message is best effort: a dead broker never fails the request,
// the worker catches up from the pending-export queue.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create validates and saves a transaction, assigning an ID when absent.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Source == "" {
		t.Source = "manual"
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishExport(ctx, t.ID, "created")
	return t, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s", ledger.ErrInvalidQuery, start.ISO(), end.ISO())
	}
	return s.storage.ListTransactions(ctx, start, end)
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publishExport(ctx, t.ID, "updated")
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publishExport(ctx, id, "deleted")
	return nil
}

func (s *TransactionService) publishExport(ctx context.Context, id, action string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return
	}
	if err := s.amqpClient.PublishTransactionExport(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"transaction_id", id, "action", action, "error", err)
	}
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
