package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/smartshelf/shelf-api/config"
	"github.com/smartshelf/shelf-api/internal/analysis"
	"github.com/smartshelf/shelf-api/internal/httpserver"
	"github.com/smartshelf/shelf-api/internal/llm"
	"github.com/smartshelf/shelf-api/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Cancel on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analysis log store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("analysis log store initialized")

	invoker, err := llm.NewGeminiInvoker(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini invoker")
	}
	log.Info().Msg("gemini invoker initialized")

	svc := analysis.NewService(invoker, store)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpserver.NewRouter(svc, store),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}
