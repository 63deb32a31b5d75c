package client

import (
	"context"
	"fmt"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/jsonrpc"
	"github.com/agentwire/a2a/pkg/utils"
)

/*
ClientConfig is the per-client call policy, applied to every message send
before it reaches the wire.
*/
type ClientConfig struct {
	// Polling makes sends non-blocking: the agent answers with the first
	// task snapshot and the caller polls tasks/get for progress.
	Polling bool
	// AcceptedOutputModes is merged into sends that specify none.
	AcceptedOutputModes []string
	// PushNotificationConfig is merged into sends that specify none.
	PushNotificationConfig *a2a.PushNotificationConfig
}

/*
Client is the transport-agnostic face of one remote agent: method-per-RPC
calls, a config policy, and an ordered interceptor chain around every
call.
*/
type Client struct {
	card         a2a.AgentCard
	transport    Transport
	config       ClientConfig
	interceptors []CallInterceptor
}

type ClientOption func(*Client)

func WithClientConfig(config ClientConfig) ClientOption {
	return func(client *Client) {
		client.config = config
	}
}

// WithInterceptors appends call interceptors, outermost first.
func WithInterceptors(interceptors ...CallInterceptor) ClientOption {
	return func(client *Client) {
		client.interceptors = append(client.interceptors, interceptors...)
	}
}

func NewClient(card a2a.AgentCard, transport Transport, opts ...ClientOption) *Client {
	client := &Client{
		card:      card,
		transport: transport,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Card returns the agent card the client was built from.
func (client *Client) Card() a2a.AgentCard {
	return client.card
}

func (client *Client) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error) {
	prepared := client.applyPolicy(params)

	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodMessageSend,
		Params: prepared,
	}, func() (any, error) {
		return client.transport.SendMessage(ctx, prepared)
	})

	return asEvent(result, err)
}

/*
SendMessageStream streams the events of one send. When the agent does not
declare the streaming capability the call falls back to a unary send whose
result is yielded as the only stream item. Interceptors run once per item.
*/
func (client *Client) SendMessageStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamResult, error) {
	prepared := client.applyPolicy(params)

	if !client.card.Capabilities.Streaming {
		event, err := client.SendMessage(ctx, prepared)
		if err != nil {
			return nil, err
		}

		results := make(chan StreamResult, 1)
		results <- StreamResult{Event: event}
		close(results)
		return results, nil
	}

	stream, err := client.transport.SendMessageStream(ctx, prepared)
	if err != nil {
		return nil, err
	}

	return client.interceptStream(ctx, jsonrpc.MethodMessageStream, prepared, stream), nil
}

func (client *Client) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodTasksGet,
		Params: params,
	}, func() (any, error) {
		return client.transport.GetTask(ctx, params)
	})

	return asTask(result, err)
}

func (client *Client) CancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodTasksCancel,
		Params: params,
	}, func() (any, error) {
		return client.transport.CancelTask(ctx, params)
	})

	return asTask(result, err)
}

func (client *Client) Resubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamResult, error) {
	stream, err := client.transport.Resubscribe(ctx, params)
	if err != nil {
		return nil, err
	}

	return client.interceptStream(ctx, jsonrpc.MethodTasksResubscribe, params, stream), nil
}

func (client *Client) SetPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodPushConfigSet,
		Params: params,
	}, func() (any, error) {
		return client.transport.SetPushNotificationConfig(ctx, params)
	})

	if err != nil {
		return nil, err
	}
	config, _ := result.(*a2a.TaskPushNotificationConfig)
	return config, nil
}

func (client *Client) GetPushNotificationConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodPushConfigGet,
		Params: params,
	}, func() (any, error) {
		return client.transport.GetPushNotificationConfig(ctx, params)
	})

	if err != nil {
		return nil, err
	}
	config, _ := result.(*a2a.TaskPushNotificationConfig)
	return config, nil
}

func (client *Client) ListPushNotificationConfigs(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodPushConfigList,
		Params: params,
	}, func() (any, error) {
		return client.transport.ListPushNotificationConfigs(ctx, params)
	})

	if err != nil {
		return nil, err
	}
	configs, _ := result.([]a2a.TaskPushNotificationConfig)
	return configs, nil
}

func (client *Client) DeletePushNotificationConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error {
	_, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodPushConfigDelete,
		Params: params,
	}, func() (any, error) {
		return nil, client.transport.DeletePushNotificationConfig(ctx, params)
	})

	return err
}

func (client *Client) GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error) {
	result, err := invoke(ctx, client.interceptors, &CallContext{
		Method: jsonrpc.MethodAgentExtendedCard,
	}, func() (any, error) {
		return client.transport.GetAuthenticatedExtendedCard(ctx)
	})

	if err != nil {
		return nil, err
	}
	card, _ := result.(*a2a.AgentCard)
	return card, nil
}

/*
applyPolicy folds the client config into one send: polling forces
non-blocking, and the default output modes and push config fill the gaps
the caller left. The caller's params are never mutated.
*/
func (client *Client) applyPolicy(params *a2a.MessageSendParams) *a2a.MessageSendParams {
	prepared := *params

	var configuration a2a.MessageSendConfiguration
	if params.Configuration != nil {
		configuration = *params.Configuration
	}

	if client.config.Polling {
		configuration.Blocking = utils.Ptr(false)
	} else if configuration.Blocking == nil {
		configuration.Blocking = utils.Ptr(true)
	}

	if len(configuration.AcceptedOutputModes) == 0 {
		configuration.AcceptedOutputModes = client.config.AcceptedOutputModes
	}

	if configuration.PushNotificationConfig == nil {
		configuration.PushNotificationConfig = client.config.PushNotificationConfig
	}

	prepared.Configuration = &configuration
	return &prepared
}

// interceptStream passes every stream item through the interceptor chain,
// one invoke per item.
func (client *Client) interceptStream(ctx context.Context, method string, params any, stream <-chan StreamResult) <-chan StreamResult {
	if len(client.interceptors) == 0 {
		return stream
	}

	out := make(chan StreamResult)

	go func() {
		defer close(out)

		for item := range stream {
			result, err := invoke(ctx, client.interceptors, &CallContext{
				Method: method,
				Params: params,
				Result: item.Event,
				Err:    item.Err,
			}, func() (any, error) {
				return item.Event, item.Err
			})

			event, _ := result.(a2a.Event)

			select {
			case out <- StreamResult{Event: event, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func asEvent(result any, err error) (a2a.Event, error) {
	if err != nil {
		return nil, err
	}
	event, ok := result.(a2a.Event)
	if !ok && result != nil {
		return nil, fmt.Errorf("interceptor replaced the result with a non-event %T", result)
	}
	return event, nil
}

func asTask(result any, err error) (*a2a.Task, error) {
	if err != nil {
		return nil, err
	}
	task, _ := result.(*a2a.Task)
	return task, nil
}
