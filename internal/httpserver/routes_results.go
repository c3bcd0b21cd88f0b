// internal/httpserver/routes_results.go
//
// Finished-game history.
//   - GET /results                 → most recent games (?limit=, default 20)
//   - GET /results/leaderboard     → fewest-round wins for a date (?date=YYYY-MM-DD, default today UTC)
//
// Both return 503 when the server runs without a results database.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/results"
)

// mountResults registers the /results routes.
func (s *Server) mountResults(r chi.Router) {
	r.Route("/results", func(r chi.Router) {
		r.Get("/", s.handleRecent)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeErr(w, http.StatusServiceUnavailable, "results_disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > 100 {
		limit = 100
	}
	recs, err := s.results.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("recent results")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(recs)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeErr(w, http.StatusServiceUnavailable, "results_disabled")
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = results.DateKey(time.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_date")
		return
	}
	rows, err := s.results.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "rows": rows})
}
