package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/gateway"
	router "github.com/neroduckale/TestifyBoyfriend/internal/adapters/http"
	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/rest"
	"github.com/neroduckale/TestifyBoyfriend/internal/adapters/store"
	"github.com/neroduckale/TestifyBoyfriend/internal/app"
	"github.com/neroduckale/TestifyBoyfriend/internal/config"
	"github.com/neroduckale/TestifyBoyfriend/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	members := core.NewMemberStore()
	if err := db.LoadAll(ctx, members); err != nil {
		log.Fatal().Err(err).Msg("failed to load member records")
	}

	platform := rest.NewClient(cfg.PlatformURL, cfg.PlatformToken)
	settings := store.NewSettingsProvider(db)
	clock := core.SystemClock{}

	engine := app.NewEngine(members, platform, settings, clock)
	correlator := app.NewCorrelator(platform, clock)
	sweeper := app.NewSweeper(engine, members, cfg.SweepInterval)
	flusher := store.NewFlusher(db, members, engine, cfg.FlushInterval)
	feed := gateway.NewConsumer(cfg.GatewayURL, cfg.PlatformToken, engine, correlator)

	r := router.SetupRouter(cfg, engine, platform, settings)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error { return flusher.Run(gctx) })
	g.Go(func() error { return feed.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("moderation server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server exited with error")
		return
	}
	log.Info().Msg("Server exited gracefully")
}
