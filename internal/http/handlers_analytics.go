package http

import (
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		badRequest(w, "malformed period, want YYYY-MM-DD start/end")
		return
	}
	d, err := s.analytics.Dashboard(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		badRequest(w, "malformed period, want YYYY-MM-DD start/end")
		return
	}
	report, err := s.analytics.Categories(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		badRequest(w, "malformed period, want YYYY-MM-DD start/end")
		return
	}
	points, err := s.analytics.Trends(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleCorrelated(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		badRequest(w, "malformed period, want YYYY-MM-DD start/end")
		return
	}
	pairs, err := s.analytics.Correlated(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		badRequest(w, "malformed period, want YYYY-MM-DD start/end")
		return
	}
	report, err := s.analytics.Anomalies(r.Context(), period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
