package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hnbchess/hnb-chess/internal/config"
	"github.com/hnbchess/hnb-chess/internal/httpserver"
	"github.com/hnbchess/hnb-chess/internal/rules"
	"github.com/hnbchess/hnb-chess/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	st, err := store.NewSQLite(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare database schema")
	}

	srv := httpserver.New(st, rules.Basic{}, httpserver.Options{
		JWTSecret:    cfg.JWTSecret,
		ClientOrigin: cfg.ClientOrigin,
	})
	log.Info().Str("port", cfg.Port).Str("db", cfg.DBPath).Msg("starting hnb-chess server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
