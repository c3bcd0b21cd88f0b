// internal/metrics/metrics.go
//
// Prometheus collectors for the solver and game sessions.
// All collectors register on the default registry; the HTTP server exposes
// them on /metrics.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal counts evolutionary generations run across all rounds.
	GenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mastermind_solver_generations_total",
		Help: "Total number of population generations evaluated",
	})

	// RoundsTotal counts solver rounds by outcome.
	RoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mastermind_solver_rounds_total",
		Help: "Total number of solver rounds by outcome",
	}, []string{"outcome"})

	// RoundDuration observes wall time of a full StartRound call.
	RoundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mastermind_solver_round_duration_seconds",
		Help:    "Duration of one solver round (search plus selection)",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// RoundGenerations observes how many generations a round needed.
	RoundGenerations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mastermind_solver_round_generations",
		Help:    "Generations run per solver round",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	// EligibleSetSize observes the size of the eligible set handed to the
	// guess selector.
	EligibleSetSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mastermind_solver_eligible_set_size",
		Help:    "Number of eligible codes collected per round",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 75, 110, 200},
	})

	// GamesFinished counts concluded sessions by who played and the result.
	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mastermind_games_finished_total",
		Help: "Total number of finished games",
	}, []string{"mode", "result"})
)

// Round outcome labels.
const (
	OutcomeGuess      = "guess"
	OutcomeNoEligible = "no_eligible"
	OutcomeCanceled   = "canceled"
	OutcomeError      = "error"
)
