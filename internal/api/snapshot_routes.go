package api

import (
	"net/http"

	"github.com/kjannette/trahn-ladder/internal/models"
)

func (s *Server) handleSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	snaps, err := s.store.History(r.Context(), limit)
	if err != nil {
		s.logFor(r).WithError(err).Error("snapshot history")
		writeError(w, http.StatusInternalServerError, "failed to fetch snapshots")
		return
	}
	if snaps == nil {
		snaps = []models.LadderSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Latest(r.Context())
	if err != nil {
		s.logFor(r).WithError(err).Error("latest snapshot")
		writeError(w, http.StatusInternalServerError, "failed to fetch latest snapshot")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshots recorded")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
