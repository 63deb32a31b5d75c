package handler

import (
	"context"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/eventbus"
	"github.com/agentwire/a2a/pkg/push"
	"github.com/agentwire/a2a/pkg/stores"
)

/*
RequestHandler is the transport-independent core of an A2A server. The
JSON-RPC and REST layers are thin adapters over this interface, so every
protocol rule lives in exactly one place.
*/
type RequestHandler interface {
	Card() a2a.AgentCard
	OnSendMessage(ctx context.Context, call *auth.ServerCallContext, params *a2a.MessageSendParams) (a2a.Event, *errors.RpcError)
	OnSendMessageStream(ctx context.Context, call *auth.ServerCallContext, params *a2a.MessageSendParams) (<-chan a2a.Event, *errors.RpcError)
	OnGetTask(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskQueryParams) (*a2a.Task, *errors.RpcError)
	OnCancelTask(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskIDParams) (*a2a.Task, *errors.RpcError)
	OnResubscribe(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskIDParams) (<-chan a2a.Event, *errors.RpcError)
	OnSetTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, *errors.RpcError)
	OnGetTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, *errors.RpcError)
	OnListTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, *errors.RpcError)
	OnDeleteTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.DeleteTaskPushNotificationConfigParams) *errors.RpcError
	OnGetAuthenticatedExtendedCard(ctx context.Context, call *auth.ServerCallContext) (*a2a.AgentCard, *errors.RpcError)
}

// ExtendedCardProvider computes the authenticated extended card per call,
// for agents whose extended card depends on who is asking.
type ExtendedCardProvider func(ctx context.Context, call *auth.ServerCallContext) (*a2a.AgentCard, error)

/*
DefaultRequestHandler implements RequestHandler on top of an
AgentExecutor, a TaskStore and an event bus per task.
*/
type DefaultRequestHandler struct {
	card                 a2a.AgentCard
	executor             AgentExecutor
	taskStore            stores.TaskStore
	pushStore            stores.PushNotificationStore
	pushSender           *push.Sender
	buses                *eventbus.Manager
	extendedCard         *a2a.AgentCard
	extendedCardProvider ExtendedCardProvider
	supportedExtensions  map[string]bool
}

type Option func(*DefaultRequestHandler)

// WithTaskStore replaces the default in-memory task store.
func WithTaskStore(store stores.TaskStore) Option {
	return func(handler *DefaultRequestHandler) {
		handler.taskStore = store
	}
}

// WithPushNotificationStore replaces the default in-memory push config
// store.
func WithPushNotificationStore(store stores.PushNotificationStore) Option {
	return func(handler *DefaultRequestHandler) {
		handler.pushStore = store
	}
}

// WithPushSender replaces the default webhook sender, mostly for tests.
func WithPushSender(sender *push.Sender) Option {
	return func(handler *DefaultRequestHandler) {
		handler.pushSender = sender
	}
}

// WithExtendedCard sets a static authenticated extended card.
func WithExtendedCard(card *a2a.AgentCard) Option {
	return func(handler *DefaultRequestHandler) {
		handler.extendedCard = card
	}
}

// WithExtendedCardProvider sets a per-call extended card callback. It
// takes precedence over a static extended card.
func WithExtendedCardProvider(provider ExtendedCardProvider) Option {
	return func(handler *DefaultRequestHandler) {
		handler.extendedCardProvider = provider
	}
}

func NewDefaultRequestHandler(card a2a.AgentCard, executor AgentExecutor, opts ...Option) *DefaultRequestHandler {
	handler := &DefaultRequestHandler{
		card:      card,
		executor:  executor,
		taskStore: stores.NewInMemoryTaskStore(),
		buses:     eventbus.NewManager(),
	}

	for _, opt := range opts {
		opt(handler)
	}

	if handler.pushStore == nil {
		handler.pushStore = stores.NewInMemoryPushNotificationStore()
	}

	if handler.pushSender == nil {
		handler.pushSender = push.NewSender(handler.pushStore)
	}

	handler.supportedExtensions = make(map[string]bool, len(card.Capabilities.Extensions))
	for _, ext := range card.Capabilities.Extensions {
		handler.supportedExtensions[ext.URI] = true
	}

	return handler
}

func (handler *DefaultRequestHandler) Card() a2a.AgentCard {
	return handler.card
}

/*
OnGetAuthenticatedExtendedCard returns the richer card reserved for
authenticated callers. A per-call provider wins over a static card; a
static card falls back to the public card for anonymous callers.
*/
func (handler *DefaultRequestHandler) OnGetAuthenticatedExtendedCard(ctx context.Context, call *auth.ServerCallContext) (*a2a.AgentCard, *errors.RpcError) {
	if !handler.card.SupportsAuthenticatedExtendedCard {
		return nil, errors.ErrUnsupportedOperation.WithMessagef("this agent does not offer an extended card")
	}

	if handler.extendedCardProvider != nil {
		card, err := handler.extendedCardProvider(ctx, call)
		if err != nil {
			return nil, errors.FromError(err)
		}
		return card, nil
	}

	if handler.extendedCard == nil {
		return nil, errors.ErrExtendedCardNotConfigured
	}

	if call != nil && call.User != nil && call.User.IsAuthenticated() {
		return handler.extendedCard, nil
	}

	base := handler.card
	return &base, nil
}

// trimHistory applies the historyLength contract to a task the caller is
// about to receive: nil or negative strips history, N keeps the last N.
func trimHistory(task *a2a.Task, historyLength *int) *a2a.Task {
	if historyLength == nil || *historyLength < 0 {
		task.History = nil
		return task
	}

	if len(task.History) > *historyLength {
		task.History = task.History[len(task.History)-*historyLength:]
	}

	return task
}
