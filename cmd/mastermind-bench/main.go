// cmd/mastermind-bench/main.go
//
// mastermind-bench plays many games of solver against random secrets and
// reports how many rounds it needed.
//
//	mastermind-bench --games 200 --seed 7 --concurrency 8 --output yaml
//
// Solver options default to the MM_* environment (see internal/config) and
// can be overridden per flag.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/mastermind/internal/codes"
	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/solver"
)

type benchOptions struct {
	games       int
	seed        uint64
	concurrency int
	maxRounds   int
	output      string
	verbose     bool

	alphabet   int
	length     int
	population int
	ceiling    int
}

// gameOutcome is one finished bench game.
type gameOutcome struct {
	Secret  string        `json:"secret" yaml:"secret"`
	Rounds  int           `json:"rounds" yaml:"rounds"`
	Won     bool          `json:"won" yaml:"won"`
	GaveUp  bool          `json:"gaveUp" yaml:"gave_up"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Summary aggregates a bench run.
type Summary struct {
	Alphabet    int         `json:"alphabet" yaml:"alphabet"`
	Length      int         `json:"length" yaml:"length"`
	Games       int         `json:"games" yaml:"games"`
	Won         int         `json:"won" yaml:"won"`
	GaveUp      int         `json:"gaveUp" yaml:"gave_up"`
	MeanRounds  float64     `json:"meanRounds" yaml:"mean_rounds"`
	MaxRounds   int         `json:"maxRounds" yaml:"max_rounds"`
	RoundCounts map[int]int `json:"roundCounts" yaml:"round_counts"`
	MeanGameMs  float64     `json:"meanGameMs" yaml:"mean_game_ms"`
	WallMs      int64       `json:"wallMs" yaml:"wall_ms"`
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:          "mastermind-bench",
		Short:        "Measure the evolutionary solver over many random games",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runBench(ctx, cmd, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.games, "games", "n", 100, "number of games to play")
	f.Uint64Var(&opts.seed, "seed", 1, "base random seed; game i uses seed+i")
	f.IntVarP(&opts.concurrency, "concurrency", "c", runtime.NumCPU(), "games played in parallel")
	f.IntVar(&opts.maxRounds, "max-rounds", 10, "guesses allowed per game")
	f.StringVarP(&opts.output, "output", "o", "text", "summary format: text, json or yaml")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every game")
	f.IntVar(&opts.alphabet, "alphabet", 0, "alphabet size (overrides MM_ALPHABET_SIZE)")
	f.IntVar(&opts.length, "length", 0, "code length (overrides MM_CODE_LENGTH)")
	f.IntVar(&opts.population, "population", 0, "population size (overrides MM_POPULATION_SIZE)")
	f.IntVar(&opts.ceiling, "ceiling", 0, "hard generation ceiling (overrides MM_HARD_CEILING)")
	return cmd
}

// solverConfig merges the environment with flag overrides.
func solverConfig(opts benchOptions) (solver.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return solver.Config{}, err
	}
	sc := cfg.Solver
	if opts.alphabet > 0 {
		sc.AlphabetSize = opts.alphabet
	}
	if opts.length > 0 {
		sc.CodeLength = opts.length
	}
	if opts.population > 0 {
		sc.PopulationSize = opts.population
	}
	if opts.ceiling > 0 {
		sc.HardGenerationCeiling = opts.ceiling
	}
	return sc, sc.Validate()
}

func runBench(ctx context.Context, cmd *cobra.Command, opts benchOptions, out io.Writer) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if !opts.verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}
	if opts.games <= 0 {
		return fmt.Errorf("--games must be positive, got %d", opts.games)
	}

	sc, err := solverConfig(opts)
	if err != nil {
		return err
	}
	sc.Logger = logger.With().Str("component", "solver").Logger()
	space, err := codes.NewSpace(sc.AlphabetSize, sc.CodeLength)
	if err != nil {
		return err
	}

	outcomes := make([]gameOutcome, opts.games)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, opts.concurrency))
	for i := range opts.games {
		g.Go(func() error {
			seed := opts.seed + uint64(i)
			o, err := playOne(gctx, sc, space, seed, opts.maxRounds)
			if err != nil {
				return fmt.Errorf("game %d (seed %d): %w", i, seed, err)
			}
			outcomes[i] = o
			logger.Debug().Int("game", i).Str("secret", o.Secret).Int("rounds", o.Rounds).
				Bool("won", o.Won).Dur("took", o.Elapsed).Msg("game done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sum := summarize(sc, outcomes, time.Since(start))
	logger.Info().Int("games", sum.Games).Int("won", sum.Won).
		Float64("meanRounds", sum.MeanRounds).Int64("wallMs", sum.WallMs).Msg("bench complete")
	return writeSummary(out, opts.output, sum)
}

// playOne plays a single game with its own deterministic random source.
func playOne(ctx context.Context, sc solver.Config, space *codes.Space, seed uint64, maxRounds int) (gameOutcome, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	sess := game.New(space, maxRounds, rng)
	sess.SetMode(game.ModeSolver)

	sv, err := solver.New(sc, rng)
	if err != nil {
		return gameOutcome{}, err
	}
	t0 := time.Now()
	res, err := sv.Play(ctx, sess, sess.MaxRounds)
	o := gameOutcome{Rounds: res.Rounds(), Won: res.Won, Elapsed: time.Since(t0)}
	if errors.Is(err, solver.ErrNoEligibleCode) {
		sess.Forfeit()
		o.GaveUp = true
	} else if err != nil {
		return o, err
	}
	if secret, err := sess.Reveal(); err == nil {
		o.Secret = secret.String()
	}
	return o, nil
}

func summarize(sc solver.Config, outcomes []gameOutcome, wall time.Duration) Summary {
	s := Summary{
		Alphabet:    sc.AlphabetSize,
		Length:      sc.CodeLength,
		Games:       len(outcomes),
		RoundCounts: map[int]int{},
		WallMs:      wall.Milliseconds(),
	}
	var rounds, won int
	var elapsed time.Duration
	for _, o := range outcomes {
		elapsed += o.Elapsed
		if o.GaveUp {
			s.GaveUp++
		}
		if !o.Won {
			continue
		}
		won++
		rounds += o.Rounds
		s.RoundCounts[o.Rounds]++
		s.MaxRounds = max(s.MaxRounds, o.Rounds)
	}
	s.Won = won
	if won > 0 {
		s.MeanRounds = float64(rounds) / float64(won)
	}
	if len(outcomes) > 0 {
		s.MeanGameMs = float64(elapsed.Milliseconds()) / float64(len(outcomes))
	}
	return s
}

func writeSummary(w io.Writer, format string, s Summary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(s)
	case "text", "":
		fmt.Fprintf(w, "%d games (%d colours x %d pegs): %d won, %d gave up\n",
			s.Games, s.Alphabet, s.Length, s.Won, s.GaveUp)
		fmt.Fprintf(w, "mean rounds %.3f, worst %d, mean game %.1fms, wall %dms\n",
			s.MeanRounds, s.MaxRounds, s.MeanGameMs, s.WallMs)
		keys := make([]int, 0, len(s.RoundCounts))
		for k := range s.RoundCounts {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %2d rounds: %d\n", k, s.RoundCounts[k])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
