package client

import (
	"context"
	"net/http"

	"github.com/agentwire/a2a/pkg/a2a"
)

/*
StreamResult carries one item of a streamed call: either an event or the
error that ended the stream. A closed channel without a trailing error
means the agent finished the stream normally.
*/
type StreamResult struct {
	Event a2a.Event
	Err   error
}

/*
Transport is one wire protocol speaking to one agent endpoint. Both
implementations expose the same operations so the Client above them never
cares which wire format is in play.
*/
type Transport interface {
	SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error)
	SendMessageStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamResult, error)
	GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error)
	CancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error)
	Resubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamResult, error)
	SetPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	GetPushNotificationConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error)
	ListPushNotificationConfigs(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error)
	DeletePushNotificationConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error
	GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error)
}

// TransportOption configures either transport implementation.
type TransportOption func(*transportConfig)

type transportConfig struct {
	client *http.Client
	header http.Header
}

func newTransportConfig(opts []TransportOption) transportConfig {
	// No client-level timeout: it would cut long-lived SSE responses short.
	// Unary callers bound their calls with context deadlines instead.
	config := transportConfig{
		client: &http.Client{},
		header: http.Header{},
	}

	for _, opt := range opts {
		opt(&config)
	}

	return config
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(config *transportConfig) {
		config.client = client
	}
}

// WithHeader adds a header to every outgoing request, typically
// Authorization or X-A2A-Extensions.
func WithHeader(key, value string) TransportOption {
	return func(config *transportConfig) {
		config.header.Add(key, value)
	}
}
