package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/server"
	"github.com/pdiddy/tablescout/internal/watchlist"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search and saved-list HTTP API",
	Long: `Serve starts the JSON HTTP API:

  POST /api/v1/restaurants/quick-search   lookup
  POST /api/v1/restaurants/search         enrichment
  GET  /api/v1/restaurants/policy         provider availability
  /api/v1/restaurants/saved/...           saved list (X-User-ID header)

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().String("data-dir", "", "saved-list data directory (overrides watchlist.data_dir)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Watchlist.DataDir = dir
	}

	agg, cleanup, err := buildAggregator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := watchlist.NewStore(cfg.Watchlist)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(agg, server.WithSavedStore(store)).ListenAndServe(ctx, cfg.Server)
}
