package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/investflow/internal/app"
	"github.com/bobmcallan/investflow/internal/common"
	"github.com/bobmcallan/investflow/internal/server"
)

func main() {
	a, err := app.NewApp(os.Getenv("INVESTFLOW_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	common.PrintBanner(a.Config, a.Logger)
	for _, name := range a.Config.ValidateRequired() {
		a.Logger.Warn().Str("setting", name).Msg("Required setting missing or left at development default")
	}

	srv := server.NewServer(a)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		return a.RunSessionEvents(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://%s", srv.Addr())).
		Msg("Server ready")

	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("Server stopped with error")
	}

	common.PrintShutdownBanner(a.Logger)
	a.Close()
	a.Logger.Info().Msg("Server stopped")
}
