package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/amqp"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

// MirrorWorker drains the pending-export queue into a LedgerMirror. Rows are
// only marked exported after the mirror confirms the append, so a crash
// between the two steps re-exports rather than loses.
type MirrorWorker struct {
	storage   *storage.SQLiteRepository
	mirror    LedgerMirror
	batchSize int
}

func NewMirrorWorker(storage *storage.SQLiteRepository, mirror LedgerMirror, batchSize int) *MirrorWorker {
	if batchSize < 1 {
		batchSize = 25
	}
	return &MirrorWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// ProcessPending exports every pending row, one batch at a time, until the
// queue is empty or the context is cancelled.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := w.storage.ListPendingExport(ctx, w.batchSize)
		if err != nil {
			return fmt.Errorf("list pending export: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		if err := w.exportBatch(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
	}

	if total > 0 {
		slog.InfoContext(ctx, "Pending export sweep completed", "exported", total)
	}
	return nil
}

func (w *MirrorWorker) exportBatch(ctx context.Context, batch []core.Transaction) error {
	rangeRef, err := w.mirror.Append(ctx, batch)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	ids := make([]string, len(batch))
	for i, t := range batch {
		ids[i] = t.ID
	}
	if err := w.storage.MarkExported(ctx, ids); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Exported batch to mirror",
		"count", len(batch), "range", rangeRef)
	return nil
}

// HandleExportMessage reacts to a broker notification. Created and updated
// rows are already queued in storage, so the handler just runs a sweep;
// deletes have nothing to mirror in an append-only ledger.
func (w *MirrorWorker) HandleExportMessage(msg *amqp.TransactionExportMessage) error {
	ctx := context.Background()

	switch msg.Action {
	case "created", "updated":
		return w.ProcessPending(ctx)
	case "deleted":
		slog.InfoContext(ctx, "Ignoring delete notification, mirror is append-only",
			"transaction_id", msg.TransactionID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown export action",
			"action", msg.Action, "transaction_id", msg.TransactionID)
		return nil
	}
}
