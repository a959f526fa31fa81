package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/JonMunkholm/prospect-crm/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleHealth reports liveness, and store reachability when a check is set.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListProspects returns the prospect collection, newest first.
func (s *Server) handleListProspects(w http.ResponseWriter, r *http.Request) {
	prospects := s.service.Prospects()
	if prospects == nil {
		prospects = []core.Prospect{}
	}
	writeJSON(w, http.StatusOK, prospects)
}

// handleSetStatus moves one prospect to a new status. The status may be
// given as its code or its label.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status    string  `json:"status"`
		SalePrice float64 `json:"salePrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	status, ok := core.ParseStatus(req.Status)
	if !ok {
		status = core.Status(req.Status)
	}

	updated, err := s.service.SetStatus(r.Context(), id, status, req.SalePrice)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteProspects removes prospects by id.
func (s *Server) handleDeleteProspects(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, r, http.StatusBadRequest, "no ids provided")
		return
	}

	deleted, err := s.service.DeleteProspects(r.Context(), req.IDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// handleExport downloads the prospect collection as CSV with the columns
// listed in the fields query parameter, in that order.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var keys []core.FieldKey
	for _, part := range strings.Split(r.URL.Query().Get("fields"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, core.FieldKey(part))
		}
	}

	// Render fully first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := s.service.ExportProspects(&buf, keys); err != nil {
		respondError(w, r, err)
		return
	}

	filename := core.ExportFileName(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.FromContext(r.Context()).Error("write export", "error", err)
	}
}

// handleListBatches returns the batches committed since startup.
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Batches())
}

// handleRollbackBatch deletes every prospect written by one batch.
func (s *Server) handleRollbackBatch(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RollbackBatch(r.Context(), chi.URLParam(r, "batchId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
