package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

// ErrInvalidTransition is returned when a payment record cannot move to the
// requested status from its current one.
var ErrInvalidTransition = errors.New("invalid status transition")

// weeksPerMonth converts a weekly amount into a monthly estimate.
const weeksPerMonth = 4.33

// RecurringService manages scheduled bills and their materialized occurrences.
type RecurringService struct {
	storage *storage.SQLiteRepository
}

func NewRecurringService(storage *storage.SQLiteRepository) *RecurringService {
	return &RecurringService{storage: storage}
}

func (s *RecurringService) Create(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}
	if err := s.storage.CreateRecurringPayment(ctx, p); err != nil {
		return core.RecurringPayment{}, fmt.Errorf("save recurring payment: %w", err)
	}
	return p, nil
}

func (s *RecurringService) Get(ctx context.Context, id string) (core.RecurringPayment, error) {
	return s.storage.GetRecurringPayment(ctx, id)
}

func (s *RecurringService) List(ctx context.Context, activeOnly bool) ([]core.RecurringPayment, error) {
	return s.storage.ListRecurringPayments(ctx, activeOnly)
}

func (s *RecurringService) Update(ctx context.Context, p core.RecurringPayment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateRecurringPayment(ctx, p)
}

func (s *RecurringService) Delete(ctx context.Context, id string) error {
	return s.storage.DeleteRecurringPayment(ctx, id)
}

// GenerateRecords materializes pending occurrences for every active payment up
// to monthsAhead months past asOf. Existing due dates are left alone, so the
// operation is idempotent and safe to run on a timer.
func (s *RecurringService) GenerateRecords(ctx context.Context, asOf core.Date, monthsAhead int) (int, error) {
	payments, err := s.storage.ListRecurringPayments(ctx, true)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}

	horizon := monthsLater(asOf, monthsAhead)

	created := 0
	for _, p := range payments {
		scheduler, err := GetScheduler(p.Frequency)
		if err != nil {
			slog.WarnContext(ctx, "Skipping payment with unknown frequency",
				"payment_id", p.ID, "frequency", string(p.Frequency))
			continue
		}

		for due := scheduler.First(p); !due.After(horizon); due = scheduler.Next(due, p) {
			if !p.EndDate.IsZero() && due.After(p.EndDate) {
				break
			}
			exists, err := s.storage.HasPaymentRecord(ctx, p.ID, due)
			if err != nil {
				return created, fmt.Errorf("check record for %s: %w", p.ID, err)
			}
			if exists {
				continue
			}
			rec := core.PaymentRecord{
				ID:        uuid.NewString(),
				PaymentID: p.ID,
				DueDate:   due,
				AmountDue: p.Amount,
				Status:    core.StatusPending,
			}
			if err := s.storage.CreatePaymentRecord(ctx, rec); err != nil {
				return created, fmt.Errorf("create record for %s: %w", p.ID, err)
			}
			created++
		}
	}

	if created > 0 {
		slog.InfoContext(ctx, "Generated payment records",
			"created", created, "horizon", horizon.ISO())
	}
	return created, nil
}

// MarkPaid moves a pending or overdue record to paid. A zero amountPaid
// defaults to the amount due.
func (s *RecurringService) MarkPaid(ctx context.Context, recordID string, paidDate core.Date, amountPaid core.Money, transactionID string) (core.PaymentRecord, error) {
	rec, err := s.storage.GetPaymentRecord(ctx, recordID)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	if rec.Status != core.StatusPending && rec.Status != core.StatusOverdue {
		return core.PaymentRecord{}, fmt.Errorf("%w: %s record cannot be paid", ErrInvalidTransition, rec.Status)
	}
	if err := paidDate.Validate(); err != nil {
		return core.PaymentRecord{}, err
	}

	rec.Status = core.StatusPaid
	rec.PaidDate = paidDate
	rec.AmountPaid = amountPaid
	if amountPaid.IsZero() {
		rec.AmountPaid = rec.AmountDue
	}
	rec.TransactionID = transactionID

	if err := s.storage.UpdatePaymentRecord(ctx, rec); err != nil {
		return core.PaymentRecord{}, err
	}
	return rec, nil
}

// Skip moves a pending or overdue record to skipped.
func (s *RecurringService) Skip(ctx context.Context, recordID string) (core.PaymentRecord, error) {
	rec, err := s.storage.GetPaymentRecord(ctx, recordID)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	if rec.Status != core.StatusPending && rec.Status != core.StatusOverdue {
		return core.PaymentRecord{}, fmt.Errorf("%w: %s record cannot be skipped", ErrInvalidTransition, rec.Status)
	}

	rec.Status = core.StatusSkipped
	if err := s.storage.UpdatePaymentRecord(ctx, rec); err != nil {
		return core.PaymentRecord{}, err
	}
	return rec, nil
}

// MarkOverdue flips pending records due before asOf to overdue.
func (s *RecurringService) MarkOverdue(ctx context.Context, asOf core.Date) (int, error) {
	return s.storage.MarkOverdue(ctx, asOf)
}

// Upcoming returns pending records due within the window [asOf, asOf+days].
func (s *RecurringService) Upcoming(ctx context.Context, asOf core.Date, days int) ([]core.PaymentRecord, error) {
	return s.storage.ListPaymentRecords(ctx, storage.PaymentRecordFilter{
		Status: core.StatusPending,
		Start:  asOf,
		End:    asOf.AddDays(days),
	})
}

// Overdue returns all records currently in the overdue state.
func (s *RecurringService) Overdue(ctx context.Context) ([]core.PaymentRecord, error) {
	return s.storage.ListPaymentRecords(ctx, storage.PaymentRecordFilter{
		Status: core.StatusOverdue,
	})
}

// Records lists occurrences, optionally narrowed by payment and due window.
func (s *RecurringService) Records(ctx context.Context, f storage.PaymentRecordFilter) ([]core.PaymentRecord, error) {
	return s.storage.ListPaymentRecords(ctx, f)
}

// PaymentSummary is the obligations overview: how many schedules exist and
// what they cost per month once every frequency is normalized.
type PaymentSummary struct {
	TotalCount       int                    `json:"total_count"`
	ActiveCount      int                    `json:"active_count"`
	EstimatedMonthly core.Money             `json:"estimated_monthly"`
	ByFrequency      map[core.Frequency]int `json:"by_frequency"`
}

// Summary normalizes every active schedule to a monthly cost estimate.
// Weekly amounts use the 4.33 weeks-per-month factor.
func (s *RecurringService) Summary(ctx context.Context) (PaymentSummary, error) {
	payments, err := s.storage.ListRecurringPayments(ctx, false)
	if err != nil {
		return PaymentSummary{}, fmt.Errorf("list payments: %w", err)
	}

	summary := PaymentSummary{ByFrequency: make(map[core.Frequency]int)}
	var monthlyCents int64
	for _, p := range payments {
		summary.TotalCount++
		if !p.Active {
			continue
		}
		summary.ActiveCount++
		summary.ByFrequency[p.Frequency]++
		monthlyCents += monthlyEquivalentCents(p)
	}
	summary.EstimatedMonthly = core.Money{Cents: monthlyCents}
	return summary, nil
}

func monthsLater(d core.Date, months int) core.Date {
	year, month := d.Year(), d.Month()+months
	for month > 12 {
		month -= 12
		year++
	}
	return monthlyDueDate(year, month, d.Day())
}

func monthlyEquivalentCents(p core.RecurringPayment) int64 {
	switch p.Frequency {
	case core.Weekly:
		return int64(math.Round(float64(p.Amount.Cents) * weeksPerMonth))
	case core.Monthly:
		return p.Amount.Cents
	case core.Quarterly:
		return int64(math.Round(float64(p.Amount.Cents) / 3))
	case core.Yearly:
		return int64(math.Round(float64(p.Amount.Cents) / 12))
	default:
		return 0
	}
}
