package services

import (
	"context"
	"strings"
	"testing"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
)

const creditCardCSV = `Transaction Date,Post Date,Description,Category,Type,Amount,Memo
01/15/2024,01/17/2024,STARBUCKS #123,Food & Drink,Sale,-4.50,
01/16/2024,01/18/2024,PAYROLL REFUND,Fees,Return,12.00,
not-a-date,01/19/2024,BROKEN ROW,Misc,Sale,-1.00,
01/20/2024,01/22/2024,GROCERY MART,Groceries,Sale,"-1,234.56",weekly shop
`

func TestImportCreditCardCSV(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, nil)
	ctx := context.Background()

	result, err := svc.ImportCSV(ctx, strings.NewReader(creditCardCSV), ImportTypeCreditCard, "cc", "statement.csv")
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.RowsTotal != 4 {
		t.Errorf("rows total = %d, want 4", result.RowsTotal)
	}
	if result.RowsInserted != 3 {
		t.Errorf("rows inserted = %d, want 3", result.RowsInserted)
	}
	if result.RowsSkipped != 1 || len(result.Quarantined) != 1 {
		t.Errorf("skipped = %d (%v), want the bad-date row quarantined", result.RowsSkipped, result.Quarantined)
	}

	txs, err := repo.ListTransactions(ctx, core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("stored %d transactions, want 3", len(txs))
	}
	if txs[0].Amount.Cents != -450 || txs[0].Description != "STARBUCKS #123" {
		t.Errorf("first row = %+v", txs[0])
	}
	if txs[2].Amount.Cents != -123456 {
		t.Errorf("thousands separator not handled: %d", txs[2].Amount.Cents)
	}
	if !txs[0].PostDate.Equal(core.NewDate(2024, 1, 17)) {
		t.Errorf("post date = %s, want 2024-01-17", txs[0].PostDate.ISO())
	}
}

func TestImportIsIdempotent(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, nil)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(creditCardCSV), ImportTypeCreditCard, "cc", "statement.csv"); err != nil {
		t.Fatalf("first import: %v", err)
	}
	result, err := svc.ImportCSV(ctx, strings.NewReader(creditCardCSV), ImportTypeCreditCard, "cc", "statement.csv")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.RowsInserted != 0 {
		t.Errorf("re-import inserted %d rows, want 0", result.RowsInserted)
	}

	txs, _ := repo.ListTransactions(ctx, core.Date{}, core.Date{})
	if len(txs) != 3 {
		t.Errorf("re-import duplicated rows: %d stored, want 3", len(txs))
	}
}

func TestImportKeepsIdenticalRowsInOneFile(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, nil)

	csv := `Transaction Date,Post Date,Description,Category,Type,Amount,Memo
01/15/2024,,COFFEE CART,Food,Sale,-3.00,
01/15/2024,,COFFEE CART,Food,Sale,-3.00,
`
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv), ImportTypeCreditCard, "cc", "two-coffees.csv")
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.RowsInserted != 2 {
		t.Errorf("inserted = %d, want both identical rows kept", result.RowsInserted)
	}
}

func TestImportFlipSign(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, func(accountID string) bool { return accountID == "cc" })
	ctx := context.Background()

	// Credit-card statements that record charges as positive numbers.
	csv := `Transaction Date,Post Date,Description,Category,Type,Amount,Memo
01/15/2024,,RESTAURANT,Food,Sale,25.00,
01/16/2024,,PAYMENT THANK YOU,Payment,Payment,-200.00,
`
	if _, err := svc.ImportCSV(ctx, strings.NewReader(csv), ImportTypeCreditCard, "cc", "cc.csv"); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	txs, err := repo.ListTransactions(ctx, core.Date{}, core.Date{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("stored %d transactions, want 2", len(txs))
	}
	if txs[0].Amount.Cents != -2500 {
		t.Errorf("charge not flipped: %d, want -2500", txs[0].Amount.Cents)
	}
	if txs[1].Amount.Cents != 20000 {
		t.Errorf("payment not flipped: %d, want 20000", txs[1].Amount.Cents)
	}
}

func TestImportBankCSV(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, nil)
	ctx := context.Background()

	csv := `Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
DEBIT,01/10/2024,ONLINE TRANSFER,-150.00,ACH_DEBIT,1200.00,
CREDIT,01/12/2024,DIRECT DEPOSIT PAYROLL,"2,500.00",ACH_CREDIT,3700.00,
`
	result, err := svc.ImportCSV(ctx, strings.NewReader(csv), ImportTypeBank, "chk", "bank.csv")
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.RowsInserted != 2 {
		t.Fatalf("inserted = %d, want 2", result.RowsInserted)
	}

	txs, _ := repo.ListTransactions(ctx, core.Date{}, core.Date{})
	if txs[0].Amount.Cents != -15000 || txs[0].Source != ImportTypeBank {
		t.Errorf("bank row = %+v", txs[0])
	}
	if txs[1].Amount.Cents != 250000 {
		t.Errorf("deposit = %d cents, want 250000", txs[1].Amount.Cents)
	}
	if txs[0].Memo != "DEBIT" {
		t.Errorf("details column should land in memo, got %q", txs[0].Memo)
	}
}

func TestImportRejectsUnknownTypeAndMissingColumns(t *testing.T) {
	svc := NewImportService(newServiceRepo(t), nil)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader("a,b\n1,2\n"), "paypal", "x", "f.csv"); err == nil {
		t.Error("expected error for unknown import type")
	}
	if _, err := svc.ImportCSV(ctx, strings.NewReader("Foo,Bar\n1,2\n"), ImportTypeCreditCard, "cc", "f.csv"); err == nil {
		t.Error("expected error for missing required columns")
	}
	if _, err := svc.ImportCSV(ctx, strings.NewReader(creditCardCSV), ImportTypeCreditCard, "  ", "f.csv"); err == nil {
		t.Error("expected error for blank account id")
	}
}

func TestImportHistoryRecorded(t *testing.T) {
	repo := newServiceRepo(t)
	svc := NewImportService(repo, nil)
	ctx := context.Background()

	result, err := svc.ImportCSV(ctx, strings.NewReader(creditCardCSV), ImportTypeCreditCard, "cc", "statement.csv")
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	history, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d rows, want 1", len(history))
	}
	h := history[0]
	if h.ImportID != result.ImportID || h.Status != "completed" ||
		h.RowsInserted != result.RowsInserted || h.Filename != "statement.csv" {
		t.Errorf("history row = %+v, want to match %+v", h, result)
	}
}
