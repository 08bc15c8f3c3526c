// Package webhook serves the Microsoft Graph change-notification endpoint.
package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// notification is the subset of a Graph change notification we inspect.
type notification struct {
	Value []struct {
		SubscriptionID string `json:"subscriptionId"`
		ChangeType     string `json:"changeType"`
		Resource       string `json:"resource"`
		ClientState    string `json:"clientState"`
	} `json:"value"`
}

// Handler answers Graph's validation handshake and change notifications.
// A notification triggers one pipeline run asynchronously; the response
// does not wait for, or depend on, the run's outcome.
type Handler struct {
	trigger     func()
	clientState string
}

// NewHandler builds a Handler that calls trigger once per notification.
func NewHandler(trigger func(), clientState string) *Handler {
	return &Handler{trigger: trigger, clientState: clientState}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.validate(w, r)
	case http.MethodPost:
		h.notify(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// validate echoes the validation token Graph sends once when the
// subscription is created. Graph requires a plain-text echo.
func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("validationToken")
	if token == "" {
		http.Error(w, "missing validationToken", http.StatusBadRequest)
		return
	}
	log.Info("Answering subscription validation handshake")
	w.Header().Set("Content-Type", "text/plain")
	if _, err := io.WriteString(w, token); err != nil {
		log.WithError(err).Warn("Failed to write validation response")
	}
}

func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	var note notification
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		// Still acknowledge: Graph retries on non-2xx and the payload
		// content does not change what we do.
		log.WithError(err).Warn("Could not decode notification body")
	}
	for _, n := range note.Value {
		if h.clientState != "" && n.ClientState != h.clientState {
			log.WithField("resource", n.Resource).Warn("Notification clientState mismatch")
		}
		log.WithFields(logrus.Fields{
			"change":   n.ChangeType,
			"resource": n.Resource,
		}).Info("Received change notification")
	}

	go h.trigger()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		log.WithError(err).Warn("Failed to write notification response")
	}
}
