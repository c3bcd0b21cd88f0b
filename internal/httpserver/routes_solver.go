// internal/httpserver/routes_solver.go
//
// Stateless solver endpoint.
//   - POST /solver/next → given a guess history, return the next guess.
//
// The caller keeps the secret; it reports feedback for every guess and the
// server never learns anything beyond the history it is sent.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/codes"
	"github.com/robalobadob/mastermind/internal/solver"
)

// mountSolver registers the /solver routes.
func (s *Server) mountSolver(r chi.Router) {
	r.Route("/solver", func(r chi.Router) {
		r.Post("/next", s.handleSolverNext)
	})
}

type historyEntry struct {
	Guess   string `json:"guess"`
	Exact   int    `json:"exact"`
	Partial int    `json:"partial"`
}

type solverNextReq struct {
	History []historyEntry `json:"history"`
}

type solverNextRes struct {
	Guess string `json:"guess"`
	Round int    `json:"round"`
}

// handleSolverNext runs one solver round over the posted history.
//
// Errors:
//   - 400 bad_json / invalid_history
//   - 422 no_eligible_code (the feedback is inconsistent or the search gave up)
//   - 503 solver_unavailable (request canceled)
//   - 504 from the Timeout middleware when the search outlives the deadline
func (s *Server) handleSolverNext(w http.ResponseWriter, r *http.Request) {
	var req solverNextReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}

	history := make([]codes.GuessRecord, 0, len(req.History))
	for _, h := range req.History {
		g, err := s.space.Parse(h.Guess)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_history")
			return
		}
		history = append(history, codes.GuessRecord{
			Guess:    g,
			Feedback: codes.Feedback{Exact: h.Exact, Partial: h.Partial},
		})
	}

	sv, err := solver.New(s.solver, s.newRand())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "solver_config")
		return
	}
	guess, err := sv.StartRound(r.Context(), history)
	switch {
	case errors.Is(err, solver.ErrInvalidHistory):
		writeErr(w, http.StatusBadRequest, "invalid_history")
		return
	case errors.Is(err, solver.ErrNoEligibleCode):
		writeErr(w, http.StatusUnprocessableEntity, "no_eligible_code")
		return
	case errors.Is(err, context.DeadlineExceeded):
		// chimw.Timeout answers 504 once the handler returns.
		return
	case errors.Is(err, context.Canceled):
		writeErr(w, http.StatusServiceUnavailable, "solver_unavailable")
		return
	case err != nil:
		log.Error().Err(err).Msg("solver next")
		writeErr(w, http.StatusInternalServerError, "solver_failed")
		return
	}

	_ = json.NewEncoder(w).Encode(solverNextRes{Guess: guess.String(), Round: len(history) + 1})
}
