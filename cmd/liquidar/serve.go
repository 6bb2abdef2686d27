package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasmmg12/liquidaciones-osde/internal/api"
	"github.com/lucasmmg12/liquidaciones-osde/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the liquidation API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.Addr, "addr", ":"+env.Port, "Listen address (or set PORT)")
	serveCmd.Flags().BoolVar(&cfg.Suggest, "sugerencias", true, "Suggest the closest code for missing lines")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	svc, closePool := openService(context.Background(), log)
	defer closePool()

	e := api.NewServer(svc, cfg.Rules.SheetOptions(), log)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
