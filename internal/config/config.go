// internal/config/config.go
//
// Environment-driven configuration for the server and the bench tool.
// main calls godotenv.Load() first, so values may come from a .env file.
//
// Environment variables (all optional):
//   PORT, LOG_LEVEL, DB_PATH, GAME_TOKEN_SECRET, CLIENT_ORIGIN, MM_MAX_ROUNDS
//   MM_ALPHABET_SIZE, MM_CODE_LENGTH, MM_POPULATION_SIZE, MM_MAX_GENERATIONS,
//   MM_ELIGIBLE_CAP, MM_MUTATION_PROB, MM_PERMUTATION_PROB, MM_INVERSION_PROB,
//   MM_WEIGHT_A, MM_WEIGHT_B, MM_HARD_CEILING

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robalobadob/mastermind/internal/solver"
)

// Config is the full process configuration.
type Config struct {
	Port         string
	LogLevel     string
	DBPath       string
	TokenSecret  string
	ClientOrigin string
	MaxRounds    int
	Solver       solver.Config
}

// Load reads the environment on top of the defaults and validates the
// solver options.
func Load() (Config, error) {
	c := Config{
		Port:         GetEnv("PORT", "5175"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		DBPath:       GetEnv("DB_PATH", "./data/mastermind.db"),
		TokenSecret:  GetEnv("GAME_TOKEN_SECRET", "dev_secret_change_me"),
		ClientOrigin: GetEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		MaxRounds:    10,
		Solver:       solver.DefaultConfig(),
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MM_MAX_ROUNDS", &c.MaxRounds},
		{"MM_ALPHABET_SIZE", &c.Solver.AlphabetSize},
		{"MM_CODE_LENGTH", &c.Solver.CodeLength},
		{"MM_POPULATION_SIZE", &c.Solver.PopulationSize},
		{"MM_MAX_GENERATIONS", &c.Solver.MaxGenerations},
		{"MM_ELIGIBLE_CAP", &c.Solver.EligibleCap},
		{"MM_WEIGHT_A", &c.Solver.FitnessWeightA},
		{"MM_WEIGHT_B", &c.Solver.FitnessWeightB},
		{"MM_HARD_CEILING", &c.Solver.HardGenerationCeiling},
	}
	for _, f := range ints {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"MM_MUTATION_PROB", &c.Solver.MutationProb},
		{"MM_PERMUTATION_PROB", &c.Solver.PermutationProb},
		{"MM_INVERSION_PROB", &c.Solver.InversionProb},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return c, fmt.Errorf("%s: %w", f.key, err)
			}
			*f.dst = p
		}
	}

	if c.MaxRounds <= 0 {
		return c, fmt.Errorf("MM_MAX_ROUNDS must be positive, got %d", c.MaxRounds)
	}
	if err := c.Solver.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// GetEnv returns the value of k or def if unset/empty.
func GetEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
