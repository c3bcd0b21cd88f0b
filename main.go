package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/httpserver"
	"github.com/robalobadob/mastermind/internal/results"
	"github.com/robalobadob/mastermind/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	cfg.Solver.Logger = log.Logger.With().Str("component", "solver").Logger()

	var rs *results.Store
	if cfg.DBPath != "" {
		db, err := results.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open results db")
		}
		defer db.Close()
		if err := results.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate results db")
		}
		rs = results.NewStore(db)
	}

	srv, err := httpserver.New(httpserver.Options{
		Store:        store.NewMemoryStore(),
		Results:      rs,
		Solver:       cfg.Solver,
		MaxRounds:    cfg.MaxRounds,
		TokenSecret:  cfg.TokenSecret,
		ClientOrigin: cfg.ClientOrigin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	log.Info().Str("port", cfg.Port).
		Int("alphabet", cfg.Solver.AlphabetSize).
		Int("length", cfg.Solver.CodeLength).
		Msg("starting mastermind server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
