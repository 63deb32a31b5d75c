package push

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/stores"
)

// TokenHeader is the default header carrying the client-chosen token back
// on every notification, so the webhook can tell pushes for different
// tasks apart.
const TokenHeader = "X-A2A-Notification-Token"

/*
Sender delivers task snapshots to the webhooks registered for a task.
Delivery is best effort: a webhook that is down or slow is logged and
skipped, and never fails the task itself.
*/
type Sender struct {
	store       stores.PushNotificationStore
	client      *http.Client
	tokenHeader string
}

type SenderOption func(*Sender)

// WithHTTPClient replaces the default HTTP client, mostly for tests.
func WithHTTPClient(client *http.Client) SenderOption {
	return func(sender *Sender) {
		sender.client = client
	}
}

// WithTokenHeader changes the header the token travels in, for webhooks
// that expect their own header name.
func WithTokenHeader(name string) SenderOption {
	return func(sender *Sender) {
		sender.tokenHeader = name
	}
}

func NewSender(store stores.PushNotificationStore, opts ...SenderOption) *Sender {
	sender := &Sender{
		store:       store,
		client:      &http.Client{Timeout: 10 * time.Second},
		tokenHeader: TokenHeader,
	}

	for _, opt := range opts {
		opt(sender)
	}

	return sender
}

/*
Notify posts the current task snapshot to every webhook registered for the
task, in registration order. It returns after the last attempt; failures
are logged, not returned.
*/
func (sender *Sender) Notify(ctx context.Context, task *a2a.Task) {
	if task == nil {
		return
	}

	configs := sender.store.Load(task.ID)
	if len(configs) == 0 {
		return
	}

	body, err := json.Marshal(task)
	if err != nil {
		log.Error("failed to serialize task for push notification", "taskId", task.ID, "error", err)
		return
	}

	for _, config := range configs {
		sender.post(ctx, task.ID, config, body)
	}
}

func (sender *Sender) post(ctx context.Context, taskID string, config a2a.PushNotificationConfig, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.URL, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to build push notification request", "taskId", taskID, "url", config.URL, "error", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")

	if config.Token != nil && *config.Token != "" {
		req.Header.Set(sender.tokenHeader, *config.Token)
	}

	res, err := sender.client.Do(req)
	if err != nil {
		log.Error("push notification delivery failed", "taskId", taskID, "url", config.URL, "error", err)
		return
	}

	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		log.Error("push notification rejected by webhook", "taskId", taskID, "url", config.URL, "status", res.StatusCode)
		return
	}

	log.Debug("push notification delivered", "taskId", taskID, "url", config.URL, "status", res.StatusCode)
}
