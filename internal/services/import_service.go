package services

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

// Import types, matching the two statement layouts we accept.
const (
	ImportTypeCreditCard = "credit_card"
	ImportTypeBank       = "bank"
)

// ErrBadImport marks an import request that cannot be processed at all:
// unknown layout or a file missing required columns.
var ErrBadImport = errors.New("bad import request")

// ImportResult reports what one CSV run did. Quarantined rows are counted and
// described, never fatal: one bad row must not sink a 5000-row statement.
type ImportResult struct {
	ImportID     string   `json:"import_id"`
	RowsTotal    int      `json:"rows_total"`
	RowsInserted int      `json:"rows_inserted"`
	RowsSkipped  int      `json:"rows_skipped"`
	Quarantined  []string `json:"quarantined,omitempty"`
}

// ImportService ingests CSV statements into the transactions table.
type ImportService struct {
	storage *storage.SQLiteRepository
	// flipSign marks accounts whose statements record outflows as positive
	// numbers (typical for credit cards); their amounts are negated on import.
	flipSign func(accountID string) bool
}

func NewImportService(storage *storage.SQLiteRepository, flipSign func(string) bool) *ImportService {
	if flipSign == nil {
		flipSign = func(string) bool { return false }
	}
	return &ImportService{storage: storage, flipSign: flipSign}
}

// ImportCSV parses r as a statement of the given type for accountID. Rows
// that fail to parse are quarantined; surviving rows are inserted in one batch
// with duplicate rows (same content hash) skipped. Every run is recorded in
// import history.
func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader, importType, accountID, filename string) (ImportResult, error) {
	result := ImportResult{ImportID: uuid.NewString()}

	layout, err := layoutFor(importType)
	if err != nil {
		return result, err
	}
	if strings.TrimSpace(accountID) == "" {
		return result, core.ErrEmptyAccount
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		s.recordRun(ctx, result, importType, accountID, filename, "failed", "read header: "+err.Error())
		return result, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := layout.mapColumns(header)
	if err != nil {
		s.recordRun(ctx, result, importType, accountID, filename, "failed", err.Error())
		return result, err
	}

	flip := s.flipSign(accountID)
	var batch []core.Transaction
	seen := make(map[string]int)
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowsTotal++
			result.RowsSkipped++
			result.Quarantined = append(result.Quarantined, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		result.RowsTotal++
		t, err := layout.parseRow(row, cols, accountID, flip)
		if err == nil {
			key := contentKey(t)
			seen[key]++
			t.ID = contentID(key, seen[key])
			err = t.Validate()
		}
		if err != nil {
			result.RowsSkipped++
			result.Quarantined = append(result.Quarantined, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		batch = append(batch, t)
	}

	inserted, err := s.storage.CreateTransactions(ctx, batch)
	if err != nil {
		s.recordRun(ctx, result, importType, accountID, filename, "failed", err.Error())
		return result, fmt.Errorf("insert batch: %w", err)
	}
	result.RowsInserted = inserted
	// Parsed fine but already present from an earlier run.
	result.RowsSkipped += len(batch) - inserted

	s.recordRun(ctx, result, importType, accountID, filename, "completed", "")

	slog.InfoContext(ctx, "Import completed",
		"import_id", result.ImportID,
		"type", importType,
		"account_id", accountID,
		"rows_total", result.RowsTotal,
		"rows_inserted", result.RowsInserted,
		"rows_skipped", result.RowsSkipped)
	return result, nil
}

// History returns recent import runs, newest first.
func (s *ImportService) History(ctx context.Context, limit int) ([]storage.ImportRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.storage.ListImportRecords(ctx, limit)
}

func (s *ImportService) recordRun(ctx context.Context, result ImportResult, importType, accountID, filename, status, errMsg string) {
	rec := storage.ImportRecord{
		ImportID:     result.ImportID,
		ImportType:   importType,
		AccountID:    accountID,
		Filename:     filename,
		RowsTotal:    result.RowsTotal,
		RowsInserted: result.RowsInserted,
		RowsSkipped:  result.RowsSkipped,
		Status:       status,
		ErrorMessage: errMsg,
	}
	if err := s.storage.CreateImportRecord(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "Failed to record import run",
			"import_id", result.ImportID, "error", err)
	}
}

// csvLayout describes one statement format: which headers are required and how
// a row becomes a transaction.
type csvLayout struct {
	name     string
	required []string
	parseRow func(row []string, cols map[string]int, accountID string, flip bool) (core.Transaction, error)
}

func layoutFor(importType string) (csvLayout, error) {
	switch importType {
	case ImportTypeCreditCard:
		return creditCardLayout, nil
	case ImportTypeBank:
		return bankLayout, nil
	default:
		return csvLayout{}, fmt.Errorf("%w: unknown import type %q (want %s or %s)", ErrBadImport, importType, ImportTypeCreditCard, ImportTypeBank)
	}
}

// Credit-card statements: Transaction Date, Post Date, Description, Category,
// Type, Amount, Memo.
var creditCardLayout = csvLayout{
	name:     ImportTypeCreditCard,
	required: []string{"transaction date", "description", "amount"},
	parseRow: func(row []string, cols map[string]int, accountID string, flip bool) (core.Transaction, error) {
		date, err := parseStatementDate(field(row, cols, "transaction date"))
		if err != nil {
			return core.Transaction{}, err
		}
		postDate, _ := parseStatementDate(field(row, cols, "post date"))

		amount, err := parseStatementAmount(field(row, cols, "amount"), flip)
		if err != nil {
			return core.Transaction{}, err
		}

		t := core.Transaction{
			AccountID:       accountID,
			TransactionDate: date,
			PostDate:        postDate,
			Description:     strings.TrimSpace(field(row, cols, "description")),
			Category:        strings.TrimSpace(field(row, cols, "category")),
			Type:            strings.TrimSpace(field(row, cols, "type")),
			Memo:            strings.TrimSpace(field(row, cols, "memo")),
			Source:          ImportTypeCreditCard,
			Amount:          amount,
		}
		return t, nil
	},
}

// Bank statements: Details, Posting Date, Description, Amount, Type, Balance,
// Check or Slip #.
var bankLayout = csvLayout{
	name:     ImportTypeBank,
	required: []string{"posting date", "description", "amount"},
	parseRow: func(row []string, cols map[string]int, accountID string, flip bool) (core.Transaction, error) {
		date, err := parseStatementDate(field(row, cols, "posting date"))
		if err != nil {
			return core.Transaction{}, err
		}

		amount, err := parseStatementAmount(field(row, cols, "amount"), flip)
		if err != nil {
			return core.Transaction{}, err
		}

		t := core.Transaction{
			AccountID:       accountID,
			TransactionDate: date,
			Description:     strings.TrimSpace(field(row, cols, "description")),
			Type:            strings.TrimSpace(field(row, cols, "type")),
			Memo:            strings.TrimSpace(field(row, cols, "details")),
			Source:          ImportTypeBank,
			Amount:          amount,
		}
		return t, nil
	},
}

func (l csvLayout) mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, want := range l.required {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("%w: %s csv missing required column %q", ErrBadImport, l.name, want)
		}
	}
	return cols, nil
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseStatementDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	// Statements use MM/DD/YYYY; exports sometimes come back as ISO.
	for _, layout := range []string{"01/02/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

func parseStatementAmount(s string, flip bool) (core.Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	// Accounting notation: (12.34) means -12.34.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	cents, err := core.ParseSignedCents(s)
	if err != nil {
		return core.Money{}, err
	}
	if flip {
		cents = -cents
	}
	return core.Money{Cents: cents}, nil
}

func contentKey(t core.Transaction) string {
	return strings.Join([]string{
		t.AccountID,
		t.TransactionDate.ISO(),
		t.Description,
		fmt.Sprintf("%d", t.Amount.Cents),
		t.Type,
		t.Memo,
	}, "|")
}

// contentID derives a stable ID from the row's content so re-importing the
// same statement cannot duplicate rows. The occurrence index keeps two
// genuinely identical rows in one file distinct.
func contentID(key string, occurrence int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", key, occurrence)))
	return hex.EncodeToString(h[:16])
}
