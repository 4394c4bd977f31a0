package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/services"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes: contract violations are 400,
// validation failures 422, missing rows 404, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrInvalidQuery), errors.Is(err, services.ErrBadImport):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrEmptyDescription,
		core.ErrEmptyAccount,
		core.ErrEmptyName,
		core.ErrInvalidFrequency,
		core.ErrInvalidDueDay,
		core.ErrInvalidDateRange,
		core.ErrInvalidReminder,
		services.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// parseDateParam reads a YYYY-MM-DD query parameter. Absent values yield the
// zero date; malformed values are an error.
func parseDateParam(r *http.Request, name string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}

// parsePeriod reads start/end query parameters, defaulting to the current
// calendar month.
func parsePeriod(r *http.Request) (ledger.Period, error) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		return ledger.Period{}, err
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		return ledger.Period{}, err
	}

	if start.IsZero() && end.IsZero() {
		now := time.Now().UTC()
		start = core.NewDate(now.Year(), int(now.Month()), 1)
		end = start.AddDays(32)
		end = core.NewDate(end.Year(), end.Month(), 1).AddDays(-1)
	}

	asOf, err := parseDateParam(r, "as_of")
	if err != nil {
		return ledger.Period{}, err
	}
	return ledger.Period{Start: start, End: end, AsOf: asOf}, nil
}

// parseCentsParam reads an optional signed decimal amount (e.g. "-12.34").
func parseCentsParam(r *http.Request, name string) (*core.Money, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	cents, err := core.ParseSignedCents(v)
	if err != nil {
		return nil, err
	}
	return &core.Money{Cents: cents}, nil
}

func parseIntParam(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// cached serves analytics GETs from the response cache, keyed by the full
// request URL. Only 200 responses are stored.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.String()
		if body, ok := s.analyticsCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}

		rec := &capturingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rec, r)

		if rec.statusCode == http.StatusOK {
			s.analyticsCache.Set(key, rec.buf.Bytes())
		}
	}
}

// capturingWriter tees the response body so cacheable payloads can be stored
// after they are sent.
type capturingWriter struct {
	http.ResponseWriter
	statusCode int
	buf        bytes.Buffer
}

func (cw *capturingWriter) WriteHeader(code int) {
	cw.statusCode = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *capturingWriter) Write(p []byte) (int, error) {
	cw.buf.Write(p)
	return cw.ResponseWriter.Write(p)
}
