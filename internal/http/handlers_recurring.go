package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

type recurringDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	AmountCents  int64  `json:"amount_cents"`
	Frequency    string `json:"frequency"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
	DueDay       int    `json:"due_day,omitempty"`
	Category     string `json:"category,omitempty"`
	Payee        string `json:"payee,omitempty"`
	AccountID    string `json:"account_id,omitempty"`
	ReminderDays int    `json:"reminder_days"`
	AutoPay      bool   `json:"auto_pay"`
	Active       bool   `json:"active"`
	Notes        string `json:"notes,omitempty"`
}

func toRecurringDTO(p core.RecurringPayment) recurringDTO {
	return recurringDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		AmountCents:  p.Amount.Cents,
		Frequency:    string(p.Frequency),
		StartDate:    p.StartDate.ISO(),
		EndDate:      p.EndDate.ISO(),
		DueDay:       p.DueDay,
		Category:     p.Category,
		Payee:        p.Payee,
		AccountID:    p.AccountID,
		ReminderDays: p.ReminderDays,
		AutoPay:      p.AutoPay,
		Active:       p.Active,
		Notes:        p.Notes,
	}
}

func (d recurringDTO) toDomain() (core.RecurringPayment, error) {
	start, err := core.ParseDate(d.StartDate)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	end, err := core.ParseDate(d.EndDate)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	return core.RecurringPayment{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.Description,
		Amount:       core.Money{Cents: d.AmountCents},
		Frequency:    core.Frequency(d.Frequency),
		StartDate:    start,
		EndDate:      end,
		DueDay:       d.DueDay,
		Category:     d.Category,
		Payee:        d.Payee,
		AccountID:    d.AccountID,
		ReminderDays: d.ReminderDays,
		AutoPay:      d.AutoPay,
		Active:       d.Active,
		Notes:        d.Notes,
	}, nil
}

type paymentRecordDTO struct {
	ID              string `json:"id"`
	PaymentID       string `json:"payment_id"`
	DueDate         string `json:"due_date"`
	AmountDueCents  int64  `json:"amount_due_cents"`
	Status          string `json:"status"`
	PaidDate        string `json:"paid_date,omitempty"`
	AmountPaidCents int64  `json:"amount_paid_cents,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func toPaymentRecordDTO(rec core.PaymentRecord) paymentRecordDTO {
	return paymentRecordDTO{
		ID:              rec.ID,
		PaymentID:       rec.PaymentID,
		DueDate:         rec.DueDate.ISO(),
		AmountDueCents:  rec.AmountDue.Cents,
		Status:          string(rec.Status),
		PaidDate:        rec.PaidDate.ISO(),
		AmountPaidCents: rec.AmountPaid.Cents,
		TransactionID:   rec.TransactionID,
		Notes:           rec.Notes,
	}
}

func toPaymentRecordDTOs(recs []core.PaymentRecord) []paymentRecordDTO {
	out := make([]paymentRecordDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPaymentRecordDTO(rec))
	}
	return out
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	payments, err := s.recurring.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]recurringDTO, 0, len(payments))
	for _, p := range payments {
		out = append(out, toRecurringDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var dto recurringDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		badRequest(w, "malformed JSON body")
		return
	}
	p, err := dto.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.recurring.Create(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringDTO(created))
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	p, err := s.recurring.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringDTO(p))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var dto recurringDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		badRequest(w, "malformed JSON body")
		return
	}
	dto.ID = r.PathValue("id")
	p, err := dto.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.recurring.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringDTO(p))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.recurring.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecurringSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.recurring.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGenerateRecords(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		badRequest(w, "malformed as_of date, want YYYY-MM-DD")
		return
	}
	if asOf.IsZero() {
		asOf = core.DateOf(time.Now())
	}
	months := parseIntParam(r, "months", 3)

	created, err := s.recurring.GenerateRecords(r.Context(), asOf, months)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (s *Server) handleListPaymentRecords(w http.ResponseWriter, r *http.Request) {
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

	recs, err := s.recurring.Records(r.Context(), storage.PaymentRecordFilter{
		PaymentID: r.URL.Query().Get("payment"),
		Status:    core.PaymentStatus(r.URL.Query().Get("status")),
		Start:     start,
		End:       end,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentRecordDTOs(recs))
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		badRequest(w, "malformed as_of date, want YYYY-MM-DD")
		return
	}
	if asOf.IsZero() {
		asOf = core.DateOf(time.Now())
	}
	days := parseIntParam(r, "days", 7)

	recs, err := s.recurring.Upcoming(r.Context(), asOf, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentRecordDTOs(recs))
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recurring.Overdue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentRecordDTOs(recs))
}

type markPaidRequest struct {
	PaidDate        string `json:"paid_date"`
	AmountPaidCents int64  `json:"amount_paid_cents"`
	TransactionID   string `json:"transaction_id"`
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed JSON body")
		return
	}

	paidDate, err := core.ParseDate(req.PaidDate)
	if err != nil {
		writeError(w, err)
		return
	}
	if paidDate.IsZero() {
		paidDate = core.DateOf(time.Now())
	}

	rec, err := s.recurring.MarkPaid(r.Context(), r.PathValue("id"), paidDate, core.Money{Cents: req.AmountPaidCents}, req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentRecordDTO(rec))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	rec, err := s.recurring.Skip(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentRecordDTO(rec))
}
