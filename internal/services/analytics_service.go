package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

// AnalyticsService loads a period's working set once and runs the ledger
// engine over it. The engine is pure, so independent computations run
// concurrently.
type AnalyticsService struct {
	storage       *storage.SQLiteRepository
	roles         ledger.AccountRoles
	rules         ledger.SignRules
	toleranceDays int
}

func NewAnalyticsService(storage *storage.SQLiteRepository, roles ledger.AccountRoles, rules ledger.SignRules, toleranceDays int) *AnalyticsService {
	return &AnalyticsService{
		storage:       storage,
		roles:         roles,
		rules:         rules,
		toleranceDays: toleranceDays,
	}
}

// Dashboard is the period overview: the metric bundle, the category split,
// the daily outflow series, and the change against the preceding period of
// equal length.
type Dashboard struct {
	Summary          ledger.PeriodSummary  `json:"summary"`
	PreviousOutflow  core.Money            `json:"previous_outflow"`
	OutflowChangePct float64               `json:"outflow_change_pct"`
	Categories       []ledger.BreakdownRow `json:"categories"`
	Daily            []ledger.DailyPoint   `json:"daily"`
}

func (s *AnalyticsService) Dashboard(ctx context.Context, period ledger.Period) (Dashboard, error) {
	if err := period.Validate(); err != nil {
		return Dashboard{}, err
	}

	records, err := s.load(ctx, period.Start, period.End)
	if err != nil {
		return Dashboard{}, err
	}

	// Preceding period of the same length, for the change figure.
	length := period.Start.DaysUntil(period.End)
	prevPeriod := ledger.Period{
		Start: period.Start.AddDays(-length - 1),
		End:   period.Start.AddDays(-1),
	}
	prevRecords, err := s.load(ctx, prevPeriod.Start, prevPeriod.End)
	if err != nil {
		return Dashboard{}, err
	}

	var d Dashboard
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Summary, err = ledger.Summarize(records, period, s.roles)
		return err
	})
	g.Go(func() error {
		prev, err := ledger.Summarize(prevRecords, prevPeriod, s.roles)
		if err != nil {
			return err
		}
		d.PreviousOutflow = prev.TotalOutflow
		return nil
	})
	g.Go(func() error {
		d.Categories = ledger.BreakdownByCategory(records)
		return nil
	})
	g.Go(func() error {
		d.Daily = ledger.DailyOutflowSeries(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.OutflowChangePct = ledger.MonthOverMonthChange(d.Summary.TotalOutflow, d.PreviousOutflow)
	return d, nil
}

// CategoryReport splits the period's outflow along both grouping axes.
type CategoryReport struct {
	ByCategory []ledger.BreakdownRow `json:"by_category"`
	ByAccount  []ledger.BreakdownRow `json:"by_account"`
}

func (s *AnalyticsService) Categories(ctx context.Context, period ledger.Period) (CategoryReport, error) {
	if err := period.Validate(); err != nil {
		return CategoryReport{}, err
	}
	records, err := s.load(ctx, period.Start, period.End)
	if err != nil {
		return CategoryReport{}, err
	}

	var r CategoryReport
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.ByCategory = ledger.BreakdownByCategory(records)
		return nil
	})
	g.Go(func() error {
		r.ByAccount = ledger.BreakdownByAccount(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return CategoryReport{}, err
	}
	return r, nil
}

// TrendPoint is one month of the outflow trend with its change against the
// previous month.
type TrendPoint struct {
	Month     string     `json:"month"`
	Outflow   core.Money `json:"outflow"`
	ChangePct float64    `json:"change_pct"`
}

// Trends returns per-month outflow over the period, oldest month first, each
// month carrying its change against the one before it.
func (s *AnalyticsService) Trends(ctx context.Context, period ledger.Period) ([]TrendPoint, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	records, err := s.load(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	months := ledger.BreakdownByMonth(records)
	// Breakdown orders by amount; the trend wants chronology.
	byMonth := make(map[string]ledger.BreakdownRow, len(months))
	var labels []string
	for _, row := range months {
		byMonth[row.Label] = row
		labels = append(labels, row.Label)
	}
	sort.Strings(labels)

	points := make([]TrendPoint, 0, len(labels))
	var prev core.Money
	for i, label := range labels {
		row := byMonth[label]
		p := TrendPoint{Month: label, Outflow: row.Amount}
		if i > 0 {
			p.ChangePct = ledger.MonthOverMonthChange(row.Amount, prev)
		}
		prev = row.Amount
		points = append(points, p)
	}
	return points, nil
}

// CorrelatedPair is one matched outflow/inflow pair, likely a reimbursement.
type CorrelatedPair struct {
	OutflowID   string     `json:"outflow_id"`
	InflowID    string     `json:"inflow_id"`
	Amount      core.Money `json:"amount"`
	OutflowDate core.Date  `json:"outflow_date"`
	InflowDate  core.Date  `json:"inflow_date"`
	DayDelta    int        `json:"day_delta"`
}

// Correlated pairs period outflows with equal-amount inflows inside the
// configured day tolerance.
func (s *AnalyticsService) Correlated(ctx context.Context, period ledger.Period) ([]CorrelatedPair, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	records, err := s.load(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	var outflows, inflows []ledger.Record
	for _, rec := range records {
		if !rec.AmountValid {
			continue
		}
		if rec.Amount.IsNegative() {
			outflows = append(outflows, rec)
		} else if rec.Amount.IsPositive() {
			inflows = append(inflows, rec)
		}
	}

	matches, err := ledger.Correlate(outflows, inflows, s.toleranceDays)
	if err != nil {
		return nil, err
	}

	pairs := make([]CorrelatedPair, 0, len(matches))
	for _, m := range matches {
		pairs = append(pairs, CorrelatedPair{
			OutflowID:   m.Outflow.ID,
			InflowID:    m.Inflow.ID,
			Amount:      m.Outflow.Amount.Abs(),
			OutflowDate: m.Outflow.Date,
			InflowDate:  m.Inflow.Date,
			DayDelta:    m.DayDelta,
		})
	}
	return pairs, nil
}

// AnomalyReport bundles data-quality diagnostics with duplicate detection.
// Per-record defects live inside the report; they are never an error.
type AnomalyReport struct {
	Quality        ledger.QualityReport    `json:"quality"`
	DuplicateIDs   []ledger.IDGroup        `json:"duplicate_ids"`
	NearDuplicates []ledger.DuplicateGroup `json:"near_duplicates"`
}

func (s *AnalyticsService) Anomalies(ctx context.Context, period ledger.Period) (AnomalyReport, error) {
	if err := period.Validate(); err != nil {
		return AnomalyReport{}, err
	}
	// Quality diagnostics need records outside the period too, to report them
	// as out-of-period; load the full set.
	records, err := s.load(ctx, core.Date{}, core.Date{})
	if err != nil {
		return AnomalyReport{}, err
	}

	var r AnomalyReport
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.Quality, err = ledger.Diagnose(records, period, s.rules)
		return err
	})
	g.Go(func() error {
		r.DuplicateIDs = ledger.DetectDuplicateIDs(records)
		return nil
	})
	g.Go(func() error {
		r.NearDuplicates = ledger.DetectNearDuplicates(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return AnomalyReport{}, err
	}
	return r, nil
}

func (s *AnalyticsService) load(ctx context.Context, start, end core.Date) ([]ledger.Record, error) {
	txs, err := s.storage.ListTransactions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return ledger.FromTransactions(txs), nil
}
