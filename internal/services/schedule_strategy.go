// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring payment scheduling.
// Each frequency has its own scheduler that encapsulates how due dates advance.
package services

import (
	"fmt"
	"time"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

// DueDateScheduler is the strategy interface for advancing a recurring
// payment's due date. Implementations must return a date strictly after the
// one they were given.
type DueDateScheduler interface {
	// First returns the earliest due date on or after the payment's start date.
	First(p core.RecurringPayment) core.Date
	// Next returns the due date following current.
	Next(current core.Date, p core.RecurringPayment) core.Date
}

// WeeklyScheduler schedules payments every 7 days. A DueDay of 1 (Monday)
// through 7 (Sunday) pins the weekday; 0 keeps the start date's weekday.
type WeeklyScheduler struct{}

func (WeeklyScheduler) First(p core.RecurringPayment) core.Date {
	if p.DueDay == 0 {
		return p.StartDate
	}
	target := time.Weekday(p.DueDay % 7) // 7 (Sunday) wraps to time.Sunday
	d := p.StartDate
	for d.Weekday() != target {
		d = d.AddDays(1)
	}
	return d
}

func (WeeklyScheduler) Next(current core.Date, _ core.RecurringPayment) core.Date {
	return current.AddDays(7)
}

// MonthlyScheduler schedules payments once per month on DueDay, clamped to the
// month's last day. A DueDay of 0 uses the start date's day of month.
type MonthlyScheduler struct{}

func (MonthlyScheduler) First(p core.RecurringPayment) core.Date {
	day := dueDayOf(p)
	d := monthlyDueDate(p.StartDate.Year(), p.StartDate.Month(), day)
	if d.Before(p.StartDate) {
		return nextMonthDue(d, day, 1)
	}
	return d
}

func (MonthlyScheduler) Next(current core.Date, p core.RecurringPayment) core.Date {
	return nextMonthDue(current, dueDayOf(p), 1)
}

// QuarterlyScheduler advances three months at a time, same clamping as monthly.
type QuarterlyScheduler struct{}

func (QuarterlyScheduler) First(p core.RecurringPayment) core.Date {
	return MonthlyScheduler{}.First(p)
}

func (QuarterlyScheduler) Next(current core.Date, p core.RecurringPayment) core.Date {
	return nextMonthDue(current, dueDayOf(p), 3)
}

// YearlyScheduler schedules on the start date's month and day each year.
// February 29 falls back to February 28 in non-leap years.
type YearlyScheduler struct{}

func (YearlyScheduler) First(p core.RecurringPayment) core.Date {
	return p.StartDate
}

func (YearlyScheduler) Next(current core.Date, p core.RecurringPayment) core.Date {
	return monthlyDueDate(current.Year()+1, p.StartDate.Month(), p.StartDate.Day())
}

func dueDayOf(p core.RecurringPayment) int {
	if p.DueDay != 0 {
		return p.DueDay
	}
	return p.StartDate.Day()
}

// monthlyDueDate builds a due date, clamping day to the month's length.
func monthlyDueDate(year, month, day int) core.Date {
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(year, month, day)
}

func nextMonthDue(current core.Date, day, monthsAhead int) core.Date {
	year, month := current.Year(), current.Month()+monthsAhead
	for month > 12 {
		month -= 12
		year++
	}
	return monthlyDueDate(year, month, day)
}

// schedulers maps frequencies to their scheduling strategies. The registry
// enables O(1) lookup and extension for new frequency types.
var schedulers = map[core.Frequency]DueDateScheduler{
	core.Weekly:    WeeklyScheduler{},
	core.Monthly:   MonthlyScheduler{},
	core.Quarterly: QuarterlyScheduler{},
	core.Yearly:    YearlyScheduler{},
}

// GetScheduler returns the scheduler for a frequency.
func GetScheduler(frequency core.Frequency) (DueDateScheduler, error) {
	s, ok := schedulers[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}

// RegisterScheduler registers a custom scheduler for a frequency type.
func RegisterScheduler(frequency core.Frequency, s DueDateScheduler) {
	schedulers[frequency] = s
}
