package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/JonMunkholm/prospect-crm/internal/logging"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead covers form boundaries and the other fields of an upload.
const multipartOverhead = 1 << 20

// handleParse reads an uploaded CSV file and opens an import session.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, &core.ParseError{Err: core.ErrFileTooLarge})
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	draft, err := s.service.BeginImport(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, draft)
}

type previewRequest struct {
	Mappings []core.ColumnMapping `json:"mappings"`
}

// handlePreview maps and validates an open import without writing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importId")

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	preview, err := s.service.PreviewImport(r.Context(), importID, req.Mappings)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleApplyMapping pre-fills the mappings of an open import from a saved config.
func (s *Server) handleApplyMapping(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importId")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	mappings, err := s.service.ApplySavedMapping(r.Context(), importID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, previewRequest{Mappings: mappings})
}

// commitResponse reports a committed batch with the rows left out of it.
type commitResponse struct {
	Batch   *core.ImportBatch      `json:"batch"`
	Summary core.PreviewSummary    `json:"summary"`
	Errors  []core.ValidationError `json:"errors"`
}

// handleCommit validates an open import with the confirmed mappings and
// writes its valid rows as one batch.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importId")

	var req core.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, preview, err := s.service.CommitImport(r.Context(), importID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.ForImport(r.Context(), importID).Info("batch committed",
		"batch_id", batch.ID,
		"count", batch.Count,
	)
	writeJSON(w, http.StatusCreated, commitResponse{
		Batch:   batch,
		Summary: preview.Summary,
		Errors:  preview.Errors,
	})
}

// handleAbandon drops an open import.
func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	importID := chi.URLParam(r, "importId")
	if err := s.service.AbandonImport(importID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
