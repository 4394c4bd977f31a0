package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

const recurringColumns = `id, name, description, amount_cents, frequency, start_date,
	end_date, due_day, category, payee, account_id, reminder_days, auto_pay, active, notes`

const paymentRecordColumns = `id, payment_id, due_date, amount_due_cents, status,
	paid_date, amount_paid_cents, transaction_id, notes`

func (r *SQLiteRepository) CreateRecurringPayment(ctx context.Context, p core.RecurringPayment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_payments (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Amount.Cents, string(p.Frequency),
		p.StartDate.ISO(), nullableDate(p.EndDate), p.DueDay, p.Category,
		p.Payee, p.AccountID, p.ReminderDays, p.AutoPay, p.Active, p.Notes)
	if err != nil {
		return fmt.Errorf("insert recurring payment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetRecurringPayment(ctx context.Context, id string) (core.RecurringPayment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_payments WHERE id = ?`, id)
	p, err := scanRecurringPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringPayment{}, fmt.Errorf("recurring payment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("get recurring payment: %w", err)
	}
	return p, nil
}

// ListRecurringPayments returns payments ordered by name. With activeOnly set,
// deactivated payments are omitted.
func (r *SQLiteRepository) ListRecurringPayments(ctx context.Context, activeOnly bool) ([]core.RecurringPayment, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_payments`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring payments: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringPayment
	for rows.Next() {
		p, err := scanRecurringPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring payments: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateRecurringPayment(ctx context.Context, p core.RecurringPayment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_payments
		SET name = ?, description = ?, amount_cents = ?, frequency = ?,
			start_date = ?, end_date = ?, due_day = ?, category = ?, payee = ?,
			account_id = ?, reminder_days = ?, auto_pay = ?, active = ?, notes = ?,
			updated_at = datetime('now')
		WHERE id = ?`,
		p.Name, p.Description, p.Amount.Cents, string(p.Frequency),
		p.StartDate.ISO(), nullableDate(p.EndDate), p.DueDay, p.Category,
		p.Payee, p.AccountID, p.ReminderDays, p.AutoPay, p.Active, p.Notes, p.ID)
	if err != nil {
		return fmt.Errorf("update recurring payment: %w", err)
	}
	return requireRow(res, "recurring payment "+p.ID)
}

// DeleteRecurringPayment removes the payment and, via the foreign key cascade,
// all of its payment records.
func (r *SQLiteRepository) DeleteRecurringPayment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	return requireRow(res, "recurring payment "+id)
}

func (r *SQLiteRepository) CreatePaymentRecord(ctx context.Context, rec core.PaymentRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_records (`+paymentRecordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PaymentID, rec.DueDate.ISO(), rec.AmountDue.Cents,
		string(rec.Status), nullableDate(rec.PaidDate), rec.AmountPaid.Cents,
		rec.TransactionID, rec.Notes)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPaymentRecord(ctx context.Context, id string) (core.PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentRecordColumns+` FROM payment_records WHERE id = ?`, id)
	rec, err := scanPaymentRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentRecord{}, fmt.Errorf("payment record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("get payment record: %w", err)
	}
	return rec, nil
}

// PaymentRecordFilter narrows ListPaymentRecords. Zero values mean "any".
type PaymentRecordFilter struct {
	PaymentID string
	Status    core.PaymentStatus
	Start     core.Date
	End       core.Date
}

func (r *SQLiteRepository) ListPaymentRecords(ctx context.Context, f PaymentRecordFilter) ([]core.PaymentRecord, error) {
	query := `SELECT ` + paymentRecordColumns + ` FROM payment_records WHERE 1=1`
	var args []any
	if f.PaymentID != "" {
		query += ` AND payment_id = ?`
		args = append(args, f.PaymentID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.Start.IsZero() {
		query += ` AND due_date >= ?`
		args = append(args, f.Start.ISO())
	}
	if !f.End.IsZero() {
		query += ` AND due_date <= ?`
		args = append(args, f.End.ISO())
	}
	query += ` ORDER BY due_date, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	defer rows.Close()

	return collectPaymentRecords(rows)
}

// HasPaymentRecord reports whether an occurrence for the payment on the given
// due date already exists. Generation uses it to stay idempotent.
func (r *SQLiteRepository) HasPaymentRecord(ctx context.Context, paymentID string, dueDate core.Date) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payment_records WHERE payment_id = ? AND due_date = ?`,
		paymentID, dueDate.ISO()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check payment record: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpdatePaymentRecord(ctx context.Context, rec core.PaymentRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_records
		SET status = ?, paid_date = ?, amount_paid_cents = ?, transaction_id = ?,
			notes = ?, updated_at = datetime('now')
		WHERE id = ?`,
		string(rec.Status), nullableDate(rec.PaidDate), rec.AmountPaid.Cents,
		rec.TransactionID, rec.Notes, rec.ID)
	if err != nil {
		return fmt.Errorf("update payment record: %w", err)
	}
	return requireRow(res, "payment record "+rec.ID)
}

// MarkOverdue flips every pending record whose due date is before asOf to
// overdue, returning how many rows changed.
func (r *SQLiteRepository) MarkOverdue(ctx context.Context, asOf core.Date) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_records
		SET status = ?, updated_at = datetime('now')
		WHERE status = ? AND due_date < ?`,
		string(core.StatusOverdue), string(core.StatusPending), asOf.ISO())
	if err != nil {
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func scanRecurringPayment(row rowScanner) (core.RecurringPayment, error) {
	var (
		p         core.RecurringPayment
		cents     int64
		frequency string
		startDate string
		endDate   sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &cents, &frequency,
		&startDate, &endDate, &p.DueDay, &p.Category, &p.Payee, &p.AccountID,
		&p.ReminderDays, &p.AutoPay, &p.Active, &p.Notes)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	p.Amount = core.Money{Cents: cents}
	p.Frequency = core.Frequency(frequency)
	if p.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.RecurringPayment{}, fmt.Errorf("recurring payment %s has bad start date %q", p.ID, startDate)
	}
	if endDate.Valid {
		if p.EndDate, err = core.ParseDate(endDate.String); err != nil {
			return core.RecurringPayment{}, fmt.Errorf("recurring payment %s has bad end date %q", p.ID, endDate.String)
		}
	}
	return p, nil
}

func scanPaymentRecord(row rowScanner) (core.PaymentRecord, error) {
	var (
		rec       core.PaymentRecord
		dueCents  int64
		paidCents int64
		status    string
		dueDate   string
		paidDate  sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.PaymentID, &dueDate, &dueCents, &status,
		&paidDate, &paidCents, &rec.TransactionID, &rec.Notes)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	rec.AmountDue = core.Money{Cents: dueCents}
	rec.AmountPaid = core.Money{Cents: paidCents}
	rec.Status = core.PaymentStatus(status)
	if rec.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.PaymentRecord{}, fmt.Errorf("payment record %s has bad due date %q", rec.ID, dueDate)
	}
	if paidDate.Valid {
		if rec.PaidDate, err = core.ParseDate(paidDate.String); err != nil {
			return core.PaymentRecord{}, fmt.Errorf("payment record %s has bad paid date %q", rec.ID, paidDate.String)
		}
	}
	return rec, nil
}

func collectPaymentRecords(rows *sql.Rows) ([]core.PaymentRecord, error) {
	var out []core.PaymentRecord
	for rows.Next() {
		rec, err := scanPaymentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment records: %w", err)
	}
	return out, nil
}
