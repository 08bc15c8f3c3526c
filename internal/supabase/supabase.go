// Package supabase provides the thin PostgREST client used to upsert the
// routed planting records.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"garden31/tend-sync/internal/pipeerror"
)

const errorBodyLimit = 512

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Client talks to a Supabase project's PostgREST endpoint using the
// service-role key.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient builds a Client for the project at baseURL.
func NewClient(baseURL, serviceRoleKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        serviceRoleKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Upsert merges rows into table using conflictColumn as the identity key.
// An empty batch is a documented no-op: nothing is sent and no error is
// returned.
func Upsert[T any](ctx context.Context, c *Client, table, conflictColumn string, rows []T) error {
	if len(rows) == 0 {
		log.WithField("table", table).Info("No rows to upsert")
		return nil
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("error encoding rows for %s: %w", table, err)
	}

	u := fmt.Sprintf("%s/rest/v1/%s?on_conflict=%s",
		c.baseURL, url.PathEscape(table), url.QueryEscape(conflictColumn))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error building upsert request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error upserting into %s: %w", table, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &pipeerror.RequestError{
			Method: http.MethodPost,
			URL:    u,
			Status: resp.StatusCode,
			Body:   string(snippet),
		}
	}

	log.WithFields(logrus.Fields{
		"table":       table,
		"count":       len(rows),
		"on_conflict": conflictColumn,
	}).Info("Upserted rows")
	return nil
}
