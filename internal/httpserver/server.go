// internal/httpserver/server.go
//
// HTTP server wiring for the Mastermind backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Game endpoints: POST /game/new, and (game token required)
//     POST /game/guess, POST /game/solve, GET /game/reveal.
//   - Stateless solver endpoint: POST /solver/next.
//   - Finished-game history: GET /results, GET /results/leaderboard.
//
// Notes:
//   - Sessions live in the in-memory store; finished games are recorded in
//     the results database when one is configured.
//   - Solver rounds run under the request context, so the Timeout middleware
//     cancels a search at the next generation boundary.

package httpserver

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/codes"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/metrics"
	"github.com/robalobadob/mastermind/internal/results"
	"github.com/robalobadob/mastermind/internal/solver"
	"github.com/robalobadob/mastermind/internal/store"
)

// Options configures a Server.
type Options struct {
	Store        store.Store
	Results      *results.Store // nil disables persistence of finished games
	Solver       solver.Config
	MaxRounds    int
	TokenSecret  string
	ClientOrigin string

	// NewRand returns a fresh random source per session/solver; defaults to
	// a ChaCha8 source seeded from crypto/rand.
	NewRand func() *rand.Rand
	Timeout time.Duration
}

// Server bundles router, session store, results store and solver settings.
type Server struct {
	r       *chi.Mux
	store   store.Store
	results *results.Store
	space   *codes.Space
	solver  solver.Config
	rounds  int
	secret  []byte
	newRand func() *rand.Rand
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) (*Server, error) {
	if err := opts.Solver.Validate(); err != nil {
		return nil, err
	}
	space, err := codes.NewSpace(opts.Solver.AlphabetSize, opts.Solver.CodeLength)
	if err != nil {
		return nil, err
	}
	if opts.NewRand == nil {
		opts.NewRand = cryptoSeeded
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.TokenSecret == "" {
		opts.TokenSecret = "dev_secret_change_me"
	}
	s := &Server{
		r:       chi.NewRouter(),
		store:   opts.Store,
		results: opts.Results,
		space:   space,
		solver:  opts.Solver,
		rounds:  opts.MaxRounds,
		secret:  []byte(opts.TokenSecret),
		newRand: opts.NewRand,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(chimw.Timeout(opts.Timeout)) // bound handler time
	s.r.Use(jsonContentType)             // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"mastermind-go","endpoints":["/health","/metrics","POST /game/new","POST /game/guess","POST /game/solve","GET /game/reveal","POST /solver/next","/results"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", promhttp.Handler())

	// --- game ---
	s.r.Post("/game/new", s.handleNewGame)
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireGame())
		r.Post("/game/guess", s.handleGuess)
		r.Post("/game/solve", s.handleSolve)
		r.Get("/game/reveal", s.handleReveal)
	})

	s.mountSolver(s.r)
	s.mountResults(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found")
	})

	return s, nil
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Secret string `json:"secret"` // optional fixed secret (testing)
}
type newGameRes struct {
	GameID       string `json:"gameId"`
	Token        string `json:"token"`
	AlphabetSize int    `json:"alphabetSize"`
	CodeLength   int    `json:"codeLength"`
	MaxRounds    int    `json:"maxRounds"`
}

// handleNewGame creates a session with a random secret (or the requested
// one) and returns a token bound to it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var sess *game.Session
	if req.Secret != "" {
		secret, err := s.space.Parse(req.Secret)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid_secret")
			return
		}
		sess, _ = game.NewWithSecret(s.space, s.rounds, secret)
	} else {
		sess = game.New(s.space, s.rounds, s.newRand())
	}

	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save game")
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	tok, exp, err := s.signGameToken(sess.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	setTokenCookie(w, tok, exp)

	log.Info().Str("gameId", sess.ID).Msg("game started")
	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID:       sess.ID,
		Token:        tok,
		AlphabetSize: sess.Alphabet,
		CodeLength:   sess.Length,
		MaxRounds:    sess.MaxRounds,
	})
}

// guessReq/Res payloads for POST /game/guess and /game/solve.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Guess   string     `json:"guess"`
	Exact   int        `json:"exact"`
	Partial int        `json:"partial"`
	State   game.State `json:"state"`
	Round   int        `json:"round"`
	Reason  string     `json:"reason,omitempty"`
}

// handleGuess scores a player's guess against the token's session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	guess, err := s.space.Parse(req.Guess)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_guess")
		return
	}
	s.apply(w, r, sess, guess, -1)
}

// handleSolve lets the solver play one round of the token's session.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.State() != game.StatePlaying {
		writeErr(w, http.StatusConflict, "game_finished")
		return
	}
	sess.SetMode(game.ModeSolver)

	sv, err := solver.New(s.solver, s.newRand())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "solver_config")
		return
	}
	history := sess.History()
	guess, err := sv.StartRound(r.Context(), history)
	switch {
	case errors.Is(err, solver.ErrNoEligibleCode):
		if sess.Forfeit() {
			s.finishGame(r, sess)
		}
		_ = json.NewEncoder(w).Encode(guessRes{State: sess.State(), Round: sess.Round(), Reason: "no_eligible_code"})
		return
	case errors.Is(err, context.DeadlineExceeded):
		// chimw.Timeout answers 504 once the handler returns.
		return
	case err != nil:
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("solver round")
		writeErr(w, http.StatusServiceUnavailable, "solver_unavailable")
		return
	}
	s.apply(w, r, sess, guess, len(history))
}

// apply scores guess on sess, records a finished game and writes the reply.
// A round >= 0 rejects the guess if the history has moved past that round.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, sess *game.Session, guess codes.Code, round int) {
	var (
		fb    codes.Feedback
		state game.State
		err   error
	)
	if round >= 0 {
		fb, state, err = sess.ApplyGuessAt(round, guess)
	} else {
		fb, state, err = sess.ApplyGuess(guess)
	}
	switch {
	case errors.Is(err, game.ErrGameFinished):
		writeErr(w, http.StatusConflict, "game_finished")
		return
	case errors.Is(err, game.ErrStaleRound):
		writeErr(w, http.StatusConflict, "stale_round")
		return
	case err != nil:
		writeErr(w, http.StatusBadRequest, "invalid_guess")
		return
	}
	if state != game.StatePlaying {
		s.finishGame(r, sess)
	}
	_ = json.NewEncoder(w).Encode(guessRes{
		Guess:   guess.String(),
		Exact:   fb.Exact,
		Partial: fb.Partial,
		State:   state,
		Round:   sess.Round(),
	})
}

// revealRes is returned by GET /game/reveal.
type revealRes struct {
	Secret  string              `json:"secret"`
	State   game.State          `json:"state"`
	History []codes.GuessRecord `json:"history"`
}

// handleReveal returns the secret of a finished game.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	secret, err := sess.Reveal()
	if err != nil {
		writeErr(w, http.StatusConflict, "game_in_progress")
		return
	}
	_ = json.NewEncoder(w).Encode(revealRes{Secret: secret.String(), State: sess.State(), History: sess.History()})
}

// finishGame counts the result and persists it (best effort).
func (s *Server) finishGame(r *http.Request, sess *game.Session) {
	state, mode := sess.State(), sess.Mode()
	metrics.GamesFinished.WithLabelValues(string(mode), string(state)).Inc()
	log.Info().Str("gameId", sess.ID).Str("mode", string(mode)).Str("state", string(state)).
		Int("rounds", sess.Round()).Msg("game finished")

	if s.results == nil {
		return
	}
	secret, _ := sess.Reveal()
	hist := sess.History()
	guesses := make([]string, len(hist))
	for i, h := range hist {
		guesses[i] = h.Guess.String()
	}
	rec := results.Record{
		GameID:     sess.ID,
		Mode:       string(mode),
		Secret:     secret.String(),
		Rounds:     len(hist),
		Won:        state == game.StateWon,
		Guesses:    guesses,
		ElapsedMs:  int(time.Since(sess.StartedAt).Milliseconds()),
		FinishedAt: time.Now().UTC(),
	}
	if err := s.results.Insert(r.Context(), rec); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert result")
	}
}

// ------------------------------- small util --------------------------------

// writeErr writes a JSON error body with the given status.
func writeErr(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// cryptoSeeded returns a ChaCha8 source seeded from crypto/rand.
func cryptoSeeded() *rand.Rand {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}
