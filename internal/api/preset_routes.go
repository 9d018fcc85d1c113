package api

import (
	"errors"
	"net/http"

	"github.com/kjannette/trahn-ladder/internal/models"
	"github.com/kjannette/trahn-ladder/internal/repository"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.store.List(r.Context())
	if err != nil {
		s.logFor(r).WithError(err).Error("list presets")
		writeError(w, http.StatusInternalServerError, "failed to list presets")
		return
	}
	if presets == nil {
		presets = []models.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// getPreset writes the error response itself and returns nil on failure.
func (s *Server) getPreset(w http.ResponseWriter, r *http.Request) *models.Preset {
	name := r.PathValue("name")
	p, err := s.store.Get(r.Context(), name)
	switch {
	case errors.Is(err, repository.ErrPresetNotFound):
		writeError(w, http.StatusNotFound, "preset "+name+" not found")
		return nil
	case err != nil:
		s.logFor(r).WithError(err).WithField("preset", name).Error("get preset")
		writeError(w, http.StatusInternalServerError, "failed to fetch preset")
		return nil
	}
	return p
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if p := s.getPreset(w, r); p != nil {
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !repository.ValidPresetName(name) {
		writeError(w, http.StatusBadRequest, repository.ErrInvalidPresetName.Error())
		return
	}

	params, err := decodeParams(w, r, s.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := strategy.Validate(params); err != nil {
		body := ladderError{Error: err.Error(), Kind: "invalid_configuration"}
		var cfgErr *strategy.InvalidConfigurationError
		if errors.As(err, &cfgErr) {
			body.Field = cfgErr.Field
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	saved, err := s.store.Save(r.Context(), &models.Preset{Name: name, Params: params})
	if err != nil {
		s.logFor(r).WithError(err).WithField("preset", name).Error("save preset")
		writeError(w, http.StatusInternalServerError, "failed to save preset")
		return
	}
	s.logFor(r).WithField("preset", name).Info("preset saved")
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.store.Delete(r.Context(), name)
	switch {
	case errors.Is(err, repository.ErrPresetNotFound):
		writeError(w, http.StatusNotFound, "preset "+name+" not found")
	case err != nil:
		s.logFor(r).WithError(err).WithField("preset", name).Error("delete preset")
		writeError(w, http.StatusInternalServerError, "failed to delete preset")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePresetLadder builds the preset's ladder, optionally at ?price=, and
// records a snapshot of it.
func (s *Server) handlePresetLadder(w http.ResponseWriter, r *http.Request) {
	preset := s.getPreset(w, r)
	if preset == nil {
		return
	}

	p := preset.Params
	price, ok, err := parsePriceOverride(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ok {
		p.Price = price
	}

	resp, ok := s.buildLadder(w, r, p)
	if !ok {
		return
	}
	s.recordSnapshot(r, preset.Name, &resp)
	writeJSON(w, http.StatusOK, resp)
}
