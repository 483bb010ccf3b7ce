package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Richrosh3/online-casino/internal/config"
	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/logging"
	"github.com/Richrosh3/online-casino/internal/random"
	"github.com/Richrosh3/online-casino/internal/registry"
	"github.com/Richrosh3/online-casino/internal/store"
	"github.com/Richrosh3/online-casino/internal/ws"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	led, cleanup, err := buildLedger(ctx, cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("ledger init failed")
	}
	defer cleanup()

	deps := game.Deps{
		Ledger:       led,
		Random:       random.New(),
		NumDecks:     cfg.Server.NumDecks,
		ReshufflePct: cfg.Server.ReshufflePct,
	}
	reg := registry.New(deps, quartz.NewReal(), cfg.Server.EmptySessionGrace, cfg.Server.ResetVoteTimeout)
	reg.StartJanitor(ctx)
	hub := ws.NewHub(reg, led, cfg.Server.StartingBalanceCC)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           newRouter(reg, hub, led),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("shutdown complete")
}

// buildLedger picks Postgres when a DSN is configured and falls back to
// the in-memory ledger otherwise.
func buildLedger(ctx context.Context, cfg config.ServerConfig) (ledger.Ledger, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("no POSTGRES_DSN set, balances are in-memory only")
		return ledger.NewMemory(), func() {}, nil
	}
	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return ledger.NewPG(st), st.Close, nil
}
