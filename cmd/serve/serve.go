// Package serve implements the webhook server command.
package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"garden31/tend-sync/cmd/common"
	"garden31/tend-sync/cmd/root"
	"garden31/tend-sync/internal/webhook"
)

// Cmd is the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Graph change-notification webhook",
	Long: `Listen for Microsoft Graph change notifications and run the ingestion
pipeline once per notification. The endpoint also answers the one-time
validation handshake Graph performs when the subscription is created.`,
	Run: serveFunc,
}

func serveFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := root.Log
	cfg := root.Cfg

	runner, err := common.BuildRunner(ctx, cfg, true)
	if err != nil {
		log.Fatalf("Error setting up pipeline: %v", err)
	}

	trigger := func() {
		if _, err := runner.Run(context.Background()); err != nil {
			log.WithError(err).Error("Notification-triggered run failed")
		}
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Webhook.Path, webhook.NewHandler(trigger, cfg.Graph.ClientState))

	server := &http.Server{
		Addr:              cfg.Webhook.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("Listening on %s%s", cfg.Webhook.Addr, cfg.Webhook.Path)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
