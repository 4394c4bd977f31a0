package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportRecord is one row of the import audit log.
type ImportRecord struct {
	ImportID     string    `json:"import_id"`
	ImportType   string    `json:"import_type"`
	AccountID    string    `json:"account_id"`
	Filename     string    `json:"filename"`
	RowsTotal    int       `json:"rows_total"`
	RowsInserted int       `json:"rows_inserted"`
	RowsSkipped  int       `json:"rows_skipped"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *SQLiteRepository) CreateImportRecord(ctx context.Context, rec ImportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO import_history (import_id, import_type, account_id, filename,
			rows_total, rows_inserted, rows_skipped, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ImportID, rec.ImportType, rec.AccountID, rec.Filename,
		rec.RowsTotal, rec.RowsInserted, rec.RowsSkipped, rec.Status, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("insert import record: %w", err)
	}
	return nil
}

// ListImportRecords returns the newest entries first.
func (r *SQLiteRepository) ListImportRecords(ctx context.Context, limit int) ([]ImportRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT import_id, import_type, account_id, filename, rows_total,
			rows_inserted, rows_skipped, status, error_message, created_at
		FROM import_history
		ORDER BY created_at DESC, import_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import records: %w", err)
	}
	defer rows.Close()

	var out []ImportRecord
	for rows.Next() {
		var (
			rec       ImportRecord
			createdAt string
		)
		err := rows.Scan(&rec.ImportID, &rec.ImportType, &rec.AccountID,
			&rec.Filename, &rec.RowsTotal, &rec.RowsInserted, &rec.RowsSkipped,
			&rec.Status, &rec.ErrorMessage, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan import record: %w", err)
		}
		rec.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import records: %w", err)
	}
	return out, nil
}
