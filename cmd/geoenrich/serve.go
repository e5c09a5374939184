package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/osm-geoenrich/pkg/di"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stream enricher and the query server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, cleanup, err := di.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		defer cleanup()

		app.Log.Info("geoenrich started")
		if err := app.Run(ctx); err != nil {
			return err
		}
		app.Log.Info("geoenrich stopped")
		return nil
	},
}
