package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, account_id, transaction_date, post_date, description,
	category, type, memo, source, amount_cents`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.TransactionDate.ISO(), nullableDate(t.PostDate),
		t.Description, t.Category, t.Type, t.Memo, t.Source, t.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"account_id", t.AccountID,
		"amount_cents", t.Amount.Cents,
		"date", t.TransactionDate.ISO())
	return nil
}

// CreateTransactions inserts a batch inside a single database transaction.
// Rows whose ID already exists are skipped, not overwritten.
func (r *SQLiteRepository) CreateTransactions(ctx context.Context, ts []core.Transaction) (inserted int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range ts {
		res, err := stmt.ExecContext(ctx,
			t.ID, t.AccountID, t.TransactionDate.ISO(), nullableDate(t.PostDate),
			t.Description, t.Category, t.Type, t.Memo, t.Source, t.Amount.Cents)
		if err != nil {
			return 0, fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch insert: %w", err)
	}
	return inserted, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, transaction_date = ?, post_date = ?, description = ?,
			category = ?, type = ?, memo = ?, source = ?, amount_cents = ?,
			exported = 0, updated_at = datetime('now')
		WHERE id = ?`,
		t.AccountID, t.TransactionDate.ISO(), nullableDate(t.PostDate),
		t.Description, t.Category, t.Type, t.Memo, t.Source, t.Amount.Cents, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, "transaction "+t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, "transaction "+id)
}

// ListTransactions returns transactions ordered by date then id. Zero bounds
// are open: a zero start means "from the beginning", a zero end "to the end".
func (r *SQLiteRepository) ListTransactions(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var (
		conds []string
		args  []any
	)
	if !start.IsZero() {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, start.ISO())
	}
	if !end.IsZero() {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, end.ISO())
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY transaction_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListPendingExport returns up to limit transactions not yet mirrored to the
// external ledger, oldest first.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE exported = 0
		ORDER BY transaction_date, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark exported: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE transactions SET exported = 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare mark exported: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("mark transaction %s exported: %w", id, err)
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		date     string
		postDate sql.NullString
		cents    int64
	)
	err := row.Scan(&t.ID, &t.AccountID, &date, &postDate, &t.Description,
		&t.Category, &t.Type, &t.Memo, &t.Source, &cents)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.TransactionDate, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s has bad date %q", t.ID, date)
	}
	if postDate.Valid {
		if t.PostDate, err = core.ParseDate(postDate.String); err != nil {
			return core.Transaction{}, fmt.Errorf("transaction %s has bad post date %q", t.ID, postDate.String)
		}
	}
	t.Amount = core.Money{Cents: cents}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func nullableDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.ISO()
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
