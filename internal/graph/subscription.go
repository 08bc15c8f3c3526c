package graph

import (
	"context"
	"time"
)

// DefaultSubscriptionTTL keeps the expiry inside Graph's limit for drive
// subscriptions (at most a few days for SharePoint document libraries).
const DefaultSubscriptionTTL = 48 * time.Hour

// Subscription is the Graph change-notification subscription resource.
type Subscription struct {
	ID                 string    `json:"id,omitempty"`
	ChangeType         string    `json:"changeType"`
	NotificationURL    string    `json:"notificationUrl"`
	Resource           string    `json:"resource"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
	ClientState        string    `json:"clientState,omitempty"`
}

// CreateSubscription registers a change-notification subscription. Graph
// will immediately call the notification URL with a validation handshake,
// so the webhook server must be reachable before this is invoked.
func (c *Client) CreateSubscription(ctx context.Context, sub Subscription) (*Subscription, error) {
	if sub.ChangeType == "" {
		sub.ChangeType = "created,updated"
	}
	if sub.ExpirationDateTime.IsZero() {
		sub.ExpirationDateTime = time.Now().UTC().Add(DefaultSubscriptionTTL)
	}
	var created Subscription
	if err := c.postJSON(ctx, c.baseURL+"/subscriptions", sub, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
