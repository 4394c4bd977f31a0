package http

import (
	"net/http"
	"strings"
)

const maxImportSize = 32 << 20 // 32 MiB

// handleImport ingests a multipart CSV upload. Form fields: file, type
// (credit_card or bank), account.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		badRequest(w, "malformed multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer file.Close()

	importType := strings.TrimSpace(r.FormValue("type"))
	accountID := strings.TrimSpace(r.FormValue("account"))
	if importType == "" || accountID == "" {
		badRequest(w, "type and account form fields are required")
		return
	}

	result, err := s.imports.ImportCSV(r.Context(), file, importType, accountID, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateAnalytics()
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	history, err := s.imports.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
