package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomz197/galaxyblaster/internal/session"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Len()
	}
	writeJSON(w, resp)
}

func (h *handlers) highScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLeaderboardSize {
			writeError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.scores.Top(limit)
	if err != nil {
		h.log.Error("reading leaderboard", "err", err)
		writeError(w, "leaderboard unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sessions.List())
}

func (h *handlers) sessionFrame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "invalid session id", http.StatusBadRequest)
		return
	}
	s, err := h.sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("looking up session", "session", id, "err", err)
		writeError(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	f := s.Frame()
	if f == nil {
		writeError(w, "no frame rendered yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.raster.EncodePNG(w, f); err != nil {
		h.log.Warn("writing frame", "session", id, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
