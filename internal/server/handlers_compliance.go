package server

import (
	"net/http"

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/pipeline"
	"github.com/jonathan/medcontent/internal/types"
)

// fixResponse is the result of an auto-fix: the fixed text and the rescanned report,
// which carries the applied changes.
type fixResponse struct {
	Text   string            `json:"text"`
	Report compliance.Report `json:"report"`
}

func (s *Server) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req types.TextRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, err)
		return "", false
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, pipeline.NewValidationError(err))
		return "", false
	}
	return req.Text, true
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	report := s.scanner.Scan(text)
	s.metrics.ObserveReport(report)
	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleFix(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}

	fixed, changes := s.fixer.Fix(text)
	report := s.scanner.Scan(fixed)
	report.AutoFixed = len(changes) > 0
	report.Changes = changes
	s.jsonResponse(w, http.StatusOK, fixResponse{Text: fixed, Report: report})
}

func (s *Server) handleBatchScan(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, pipeline.NewValidationError(err))
		return
	}

	reports, err := s.scanner.ScanBatch(r.Context(), req.Texts, s.batch)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"reports": reports, "count": len(reports)})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeText(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, s.scorer.Score(text))
}
