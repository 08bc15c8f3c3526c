// Package subscribe implements the Graph subscription creation command.
package subscribe

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"garden31/tend-sync/cmd/common"
	"garden31/tend-sync/cmd/root"
	"garden31/tend-sync/internal/graph"
)

// Cmd is the subscribe command
var Cmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Create the Graph change subscription for the export folder",
	Long: `Register a Microsoft Graph subscription so created/updated files in the
watched drive notify the webhook server. The server must already be
reachable at the configured notification URL: Graph validates it during
creation.`,
	Run: subscribeFunc,
}

func subscribeFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := root.Log
	cfg := root.Cfg

	if cfg.Graph.NotificationURL == "" {
		log.Fatal("MS_NOTIFICATION_URL is required to create a subscription")
	}

	client, err := common.BuildClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Error setting up Graph client: %v", err)
	}

	resource := cfg.Graph.SubscriptionResource
	if resource == "" {
		if cfg.Graph.DriveID == "" {
			log.Fatal("MS_SUBSCRIPTION_RESOURCE or MS_DRIVE_ID is required")
		}
		resource = fmt.Sprintf("/drives/%s/root", cfg.Graph.DriveID)
	}

	created, err := client.CreateSubscription(ctx, graph.Subscription{
		NotificationURL: cfg.Graph.NotificationURL,
		Resource:        resource,
		ClientState:     cfg.Graph.ClientState,
	})
	if err != nil {
		log.Fatalf("Error creating subscription: %v", err)
	}
	log.Infof("Created subscription %s for %s, expires %s",
		created.ID, created.Resource, created.ExpirationDateTime)
}
