package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
)

type transactionDTO struct {
	ID              string `json:"id"`
	AccountID       string `json:"account_id"`
	TransactionDate string `json:"transaction_date"`
	PostDate        string `json:"post_date,omitempty"`
	Description     string `json:"description"`
	Category        string `json:"category,omitempty"`
	Type            string `json:"type,omitempty"`
	Memo            string `json:"memo,omitempty"`
	Source          string `json:"source,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:              t.ID,
		AccountID:       t.AccountID,
		TransactionDate: t.TransactionDate.ISO(),
		PostDate:        t.PostDate.ISO(),
		Description:     t.Description,
		Category:        t.Category,
		Type:            t.Type,
		Memo:            t.Memo,
		Source:          t.Source,
		AmountCents:     t.Amount.Cents,
	}
}

func (d transactionDTO) toDomain() (core.Transaction, error) {
	date, err := core.ParseDate(d.TransactionDate)
	if err != nil {
		return core.Transaction{}, err
	}
	postDate, err := core.ParseDate(d.PostDate)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:              d.ID,
		AccountID:       strings.TrimSpace(d.AccountID),
		TransactionDate: date,
		PostDate:        postDate,
		Description:     d.Description,
		Category:        d.Category,
		Type:            d.Type,
		Memo:            d.Memo,
		Source:          d.Source,
		Amount:          core.Money{Cents: d.AmountCents},
	}, nil
}

// handleListTransactions supports range bounds (start, end) plus predicate
// filters: account, category, q (description substring), min and max signed
// amounts.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		badRequest(w, "malformed start date, want YYYY-MM-DD")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		badRequest(w, "malformed end date, want YYYY-MM-DD")
		return
	}
	amountMin, err := parseCentsParam(r, "min")
	if err != nil {
		badRequest(w, "malformed min amount")
		return
	}
	amountMax, err := parseCentsParam(r, "max")
	if err != nil {
		badRequest(w, "malformed max amount")
		return
	}

	txs, err := s.transactions.List(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	query := ledger.Query{
		Start:               start,
		End:                 end,
		AccountID:           r.URL.Query().Get("account"),
		Category:            r.URL.Query().Get("category"),
		DescriptionContains: r.URL.Query().Get("q"),
		AmountMin:           amountMin,
		AmountMax:           amountMax,
	}
	matched, err := ledger.Filter(ledger.FromTransactions(txs), query)
	if err != nil {
		writeError(w, err)
		return
	}

	keep := make(map[string]bool, len(matched))
	for _, rec := range matched {
		keep[rec.ID] = true
	}

	out := make([]transactionDTO, 0, len(matched))
	for _, t := range txs {
		if keep[t.ID] {
			out = append(out, toTransactionDTO(t))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		badRequest(w, "malformed JSON body")
		return
	}
	t, err := dto.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateAnalytics()
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		badRequest(w, "malformed JSON body")
		return
	}
	dto.ID = r.PathValue("id")
	t, err := dto.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.transactions.Update(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateAnalytics()
	writeJSON(w, http.StatusOK, toTransactionDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateAnalytics()
	w.WriteHeader(http.StatusNoContent)
}
