package api

import (
	"errors"
	"net/http"

	"github.com/kjannette/trahn-ladder/internal/models"
	"github.com/kjannette/trahn-ladder/internal/strategy"
)

type ladderResponse struct {
	Params     strategy.LadderParams `json:"params"`
	Levels     []strategy.GridLevel  `json:"levels"`
	Stats      strategy.LadderStats  `json:"stats"`
	Warnings   []string              `json:"warnings"`
	SnapshotID string                `json:"snapshotId,omitempty"`
}

type ladderError struct {
	Error string  `json:"error"`
	Kind  string  `json:"kind"`
	Field string  `json:"field,omitempty"`
	Tier  float64 `json:"tier,omitempty"`
}

// buildLadder computes the ladder and writes the 400 response for strategy
// errors. ok is false when a response was already written.
func (s *Server) buildLadder(w http.ResponseWriter, r *http.Request, p strategy.LadderParams) (ladderResponse, bool) {
	levels, err := s.metrics.BuildLadder(p)
	if err != nil {
		body := ladderError{Error: err.Error(), Kind: "internal"}
		status := http.StatusInternalServerError

		var cfgErr *strategy.InvalidConfigurationError
		var lotErr *strategy.ZeroLotError
		switch {
		case errors.As(err, &cfgErr):
			body.Kind, body.Field, status = "invalid_configuration", cfgErr.Field, http.StatusBadRequest
		case errors.As(err, &lotErr):
			body.Kind, body.Tier, status = "zero_lot", lotErr.Tier, http.StatusBadRequest
		}
		if status >= 500 {
			s.logFor(r).WithError(err).Error("ladder build failed")
		}
		writeJSON(w, status, body)
		return ladderResponse{}, false
	}

	stats := strategy.Summarize(levels)
	warnings := []string{}
	for _, b := range s.guardian.Breaches(stats, levels) {
		warnings = append(warnings, b.Message)
	}
	return ladderResponse{
		Params:   p,
		Levels:   levels,
		Stats:    stats,
		Warnings: warnings,
	}, true
}

func (s *Server) handleBuildLadder(w http.ResponseWriter, r *http.Request) {
	p, err := decodeParams(w, r, s.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, ok := s.buildLadder(w, r, p)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDefaultLadder(w http.ResponseWriter, r *http.Request) {
	p := s.defaults
	price, ok, err := s.resolvePrice(r)
	if err != nil {
		writePriceError(w, err)
		return
	}
	if ok {
		p.Price = price
	}

	resp, ok := s.buildLadder(w, r, p)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// recordSnapshot stores the ladder and sets resp.SnapshotID. Storage errors
// are logged and do not fail the request.
func (s *Server) recordSnapshot(r *http.Request, presetName string, resp *ladderResponse) {
	snap, err := models.NewLadderSnapshot(presetName, resp.Params, resp.Levels)
	if err == nil {
		snap, err = s.store.Record(r.Context(), snap)
	}
	if err != nil {
		s.logFor(r).WithError(err).WithField("preset", presetName).Error("snapshot not recorded")
		return
	}
	resp.SnapshotID = snap.ID
}
