package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusOverdue PaymentStatus = "overdue"
	StatusSkipped PaymentStatus = "skipped"
)

type (
	Frequency     string
	PaymentStatus string

	// Date is a calendar date. Time-of-day is always UTC midnight and carries
	// no semantics.
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Negative = outflow, positive = inflow.
	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is an immutable ledger entry. TransactionDate and PostDate
	// are two independent calendar dates.
	Transaction struct {
		ID              string
		AccountID       string
		TransactionDate Date
		PostDate        Date
		Description     string
		Category        string
		Type            string
		Memo            string
		Source          string
		Amount          Money
	}

	// RecurringPayment is a scheduled bill. Occurrences are materialized as
	// PaymentRecords.
	RecurringPayment struct {
		ID           string
		Name         string
		Description  string
		Amount       Money
		Frequency    Frequency
		StartDate    Date
		EndDate      Date // zero = open ended
		DueDay       int  // 0 = derive from StartDate
		Category     string
		Payee        string
		AccountID    string
		ReminderDays int
		AutoPay      bool
		Active       bool
		Notes        string
	}

	// PaymentRecord is one generated occurrence of a RecurringPayment.
	// Status transitions: pending -> paid | overdue | skipped.
	PaymentRecord struct {
		ID            string
		PaymentID     string
		DueDate       Date
		AmountDue     Money
		Status        PaymentStatus
		PaidDate      Date // zero until paid
		AmountPaid    Money
		TransactionID string
		Notes         string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyAccount     = errors.New("empty account id")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDueDay    = errors.New("invalid due day")
	ErrInvalidDateRange = errors.New("end date before start date")
	ErrInvalidReminder  = errors.New("reminder days cannot be negative")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// DateOf truncates a time to its calendar date in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), int(t.UTC().Month()), t.UTC().Day())
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole-day distance from d to other. Negative when
// other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time) / (24 * time.Hour))
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// ISO renders the date as YYYY-MM-DD. Zero dates render as an empty string.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string, "" when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ISO())
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string; "" yields the zero Date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// IsNegative reports whether the amount is an outflow.
func (m Money) IsNegative() bool { return m.Cents < 0 }

// IsPositive reports whether the amount is an inflow.
func (m Money) IsPositive() bool { return m.Cents > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty transaction id")
	}
	if err := t.TransactionDate.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (p RecurringPayment) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch p.Frequency {
	case Weekly, Monthly, Quarterly, Yearly:
	default:
		return ErrInvalidFrequency
	}
	if err := p.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrInvalidDateRange
	}
	if p.DueDay != 0 {
		if p.Frequency == Weekly {
			// 1 (Monday) through 7 (Sunday)
			if p.DueDay < 1 || p.DueDay > 7 {
				return ErrInvalidDueDay
			}
		} else if p.DueDay < 1 || p.DueDay > 31 {
			return ErrInvalidDueDay
		}
	}
	if p.ReminderDays < 0 {
		return ErrInvalidReminder
	}
	return nil
}

// ValidStatus reports whether s is one of the known payment statuses.
func ValidStatus(s PaymentStatus) bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusSkipped:
		return true
	}
	return false
}
