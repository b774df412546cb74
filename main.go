// main.go
//
// Entry point for the Codenames server.
// Responsibilities:
//   - Load .env and configure zerolog.
//   - Load word decks (embedded plus DECKS_DIR overrides).
//   - Open SQLite and pick the match store (sqlite by default, memory opt-in).
//   - Start the presence tracker, lobby janitor, and AI agent manager.
//   - Serve HTTP.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/ai"
	"github.com/partyroom/codenames/internal/httpserver"
	"github.com/partyroom/codenames/internal/janitor"
	"github.com/partyroom/codenames/internal/llm"
	"github.com/partyroom/codenames/internal/presence"
	"github.com/partyroom/codenames/internal/store"
	"github.com/partyroom/codenames/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word decks")
	}
	decks, total := words.Stats()
	log.Info().Int("decks", decks).Int("words", total).Msg("word decks loaded")

	db, err := openDB(getEnv("DB_PATH", "./data/codenames.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := ensureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	var st store.Store
	if getEnv("STORE", "sqlite") == "memory" {
		st = store.NewMemoryStore()
		log.Info().Msg("using in-memory match store")
	} else {
		st = store.NewSQLiteStore(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pres := presence.NewTracker()

	jan := janitor.New(st, pres)
	go jan.Run(ctx)

	var completer llm.Completer
	if c := llm.FromEnv(); c != nil {
		completer = c
	} else {
		log.Info().Msg("LLM_API_KEY not set; AI players disabled")
	}
	agents := ai.NewManager(ctx, st, completer)
	defer agents.StopAll()

	srv := httpserver.New(st, db, pres, agents)
	port := getEnv("PORT", "5180")
	log.Info().Str("port", port).Msg("starting codenames server")
	if err := http.ListenAndServe(":"+port, requestLogger(srv.Router())); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
