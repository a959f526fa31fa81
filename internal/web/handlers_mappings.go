package web

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/go-chi/chi/v5"
)

type statusOption struct {
	Code  core.Status `json:"code"`
	Label string      `json:"label"`
}

type fieldsResponse struct {
	Fields   []core.FieldDescriptor `json:"fields"`
	Statuses []statusOption         `json:"statuses"`
}

// handleListFields returns the prospect fields and statuses the UI can offer.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	statuses := core.Statuses()
	resp := fieldsResponse{
		Fields:   core.Fields(),
		Statuses: make([]statusOption, len(statuses)),
	}
	for i, st := range statuses {
		resp.Statuses[i] = statusOption{Code: st, Label: core.StatusLabel(st)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListMappings returns every saved mapping config.
func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListMappings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if configs == nil {
		configs = []core.MappingConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// handleSaveMapping stores a mapping config, replacing one of the same name.
func (s *Server) handleSaveMapping(w http.ResponseWriter, r *http.Request) {
	var cfg core.MappingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.service.SaveMapping(r.Context(), cfg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// handleGetMapping returns one saved mapping config by name.
func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.GetMapping(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
