package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/jsonrpc"
	"github.com/agentwire/a2a/pkg/sse"
)

func completedTask(id string) *a2a.Task {
	task := &a2a.Task{ID: id, ContextID: "ctx-" + id}
	task.ToStatus(a2a.TaskStateCompleted, nil)
	return task
}

func TestJSONRPCTransportCall(t *testing.T) {
	var requests []jsonrpc.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var request jsonrpc.Request
		require.NoError(t, json.Unmarshal(body, &request))
		requests = append(requests, request)

		_ = json.NewEncoder(w).Encode(jsonrpc.NewResponse(request.ID, completedTask("t1")))
	}))
	defer server.Close()

	transport := NewJSONRPCTransport(server.URL)

	task, err := transport.GetTask(context.Background(), &a2a.TaskQueryParams{TaskIDParams: a2a.TaskIDParams{ID: "t1"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)

	_, err = transport.CancelTask(context.Background(), &a2a.TaskIDParams{ID: "t1"})
	require.NoError(t, err)

	// Request ids increase monotonically per transport.
	require.Len(t, requests, 2)
	assert.Equal(t, "2.0", requests[0].JSONRPC)
	assert.Equal(t, "tasks/get", requests[0].Method)
	assert.Equal(t, "1", string(requests[0].ID))
	assert.Equal(t, "tasks/cancel", requests[1].Method)
	assert.Equal(t, "2", string(requests[1].ID))
}

func TestJSONRPCTransportTypedErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var request jsonrpc.Request
		_ = json.Unmarshal(body, &request)

		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(request.ID, errors.ErrTaskNotFound))
	}))
	defer server.Close()

	transport := NewJSONRPCTransport(server.URL)

	_, err := transport.GetTask(context.Background(), &a2a.TaskQueryParams{TaskIDParams: a2a.TaskIDParams{ID: "nope"}})
	require.Error(t, err)

	var rpcErr *errors.RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, errors.ErrTaskNotFound.Code, rpcErr.Code)
}

func TestJSONRPCTransportStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var request jsonrpc.Request
		require.NoError(t, json.Unmarshal(body, &request))
		assert.Equal(t, "message/stream", request.Method)

		w.Header().Set("Content-Type", "text/event-stream")

		for _, event := range []a2a.Event{
			completedTask("t1"),
			&a2a.TaskStatusUpdateEvent{
				TaskID: "t1",
				Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
				Final:  true,
			},
		} {
			payload, _ := json.Marshal(jsonrpc.NewResponse(request.ID, event))
			_ = sse.WriteData(w, payload)
		}
	}))
	defer server.Close()

	transport := NewJSONRPCTransport(server.URL)

	stream, err := transport.SendMessageStream(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.NoError(t, err)

	var kinds []string
	for item := range stream {
		require.NoError(t, item.Err)
		kinds = append(kinds, item.Event.EventKind())
	}

	assert.Equal(t, []string{a2a.KindTask, a2a.KindStatusUpdate}, kinds)
}

func TestJSONRPCTransportStreamPreflightError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var request jsonrpc.Request
		_ = json.Unmarshal(body, &request)

		// Plain JSON response: the call failed before streaming began.
		_ = json.NewEncoder(w).Encode(jsonrpc.NewErrorResponse(request.ID, errors.ErrUnsupportedOperation))
	}))
	defer server.Close()

	transport := NewJSONRPCTransport(server.URL)

	_, err := transport.SendMessageStream(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.Error(t, err)

	var rpcErr *errors.RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, errors.ErrUnsupportedOperation.Code, rpcErr.Code)
}

func TestRESTTransportRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		switch key {
		case "POST /v1/message:send":
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(completedTask("t1"))
		case "GET /v1/tasks/t1":
			assert.Equal(t, "2", r.URL.Query().Get("historyLength"))
			_ = json.NewEncoder(w).Encode(completedTask("t1"))
		case "POST /v1/tasks/t1:cancel":
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(completedTask("t1"))
		case "DELETE /v1/tasks/t1/pushNotificationConfigs/c1":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(errors.ErrTaskNotFound)
		}
	}))
	defer server.Close()

	transport := NewRESTTransport(server.URL)
	ctx := context.Background()

	event, err := transport.SendMessage(ctx, &a2a.MessageSendParams{Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi")})
	require.NoError(t, err)
	assert.Equal(t, a2a.KindTask, event.EventKind())

	history := 2
	task, err := transport.GetTask(ctx, &a2a.TaskQueryParams{TaskIDParams: a2a.TaskIDParams{ID: "t1"}, HistoryLength: &history})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	_, err = transport.CancelTask(ctx, &a2a.TaskIDParams{ID: "t1"})
	require.NoError(t, err)

	require.NoError(t, transport.DeletePushNotificationConfig(ctx, &a2a.DeleteTaskPushNotificationConfigParams{
		TaskIDParams:             a2a.TaskIDParams{ID: "t1"},
		PushNotificationConfigID: "c1",
	}))

	_, err = transport.GetTask(ctx, &a2a.TaskQueryParams{TaskIDParams: a2a.TaskIDParams{ID: "missing"}})
	var rpcErr *errors.RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, errors.ErrTaskNotFound.Code, rpcErr.Code)
}

func TestRESTTransportStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/tasks/t1:subscribe", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")

		payload, _ := json.Marshal(completedTask("t1"))
		_ = sse.WriteData(w, payload)

		failure, _ := json.Marshal(errors.ErrInternal)
		_ = sse.WriteError(w, failure)
	}))
	defer server.Close()

	transport := NewRESTTransport(server.URL)

	stream, err := transport.Resubscribe(context.Background(), &a2a.TaskIDParams{ID: "t1"})
	require.NoError(t, err)

	item := <-stream
	require.NoError(t, item.Err)
	assert.Equal(t, a2a.KindTask, item.Event.EventKind())

	item = <-stream
	require.Error(t, item.Err)

	var rpcErr *errors.RpcError
	require.ErrorAs(t, item.Err, &rpcErr)
	assert.Equal(t, errors.ErrInternal.Code, rpcErr.Code)

	_, open := <-stream
	assert.False(t, open)
}

// recordingInterceptor notes the order its hooks fire in.
type recordingInterceptor struct {
	name      string
	trace     *[]string
	beforeErr error
	early     bool
}

func (interceptor *recordingInterceptor) Before(ctx context.Context, call *CallContext) error {
	*interceptor.trace = append(*interceptor.trace, "before:"+interceptor.name)
	if interceptor.early {
		call.EarlyReturn()
	}
	return interceptor.beforeErr
}

func (interceptor *recordingInterceptor) After(ctx context.Context, call *CallContext) {
	*interceptor.trace = append(*interceptor.trace, "after:"+interceptor.name)
}

type stubTransport struct {
	Transport
	lastSend   *a2a.MessageSendParams
	lastDelete *a2a.DeleteTaskPushNotificationConfigParams
	result     a2a.Event
}

func (stub *stubTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error) {
	stub.lastSend = params
	return stub.result, nil
}

func (stub *stubTransport) DeletePushNotificationConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error {
	stub.lastDelete = params
	return nil
}

func TestInterceptorOrdering(t *testing.T) {
	var trace []string
	stub := &stubTransport{result: completedTask("t1")}

	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithInterceptors(
		&recordingInterceptor{name: "outer", trace: &trace},
		&recordingInterceptor{name: "inner", trace: &trace},
	))

	_, err := client.SendMessage(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"before:outer", "before:inner", "after:inner", "after:outer"}, trace)
}

func TestInterceptorEarlyReturn(t *testing.T) {
	var trace []string
	stub := &stubTransport{result: completedTask("t1")}

	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithInterceptors(
		&recordingInterceptor{name: "outer", trace: &trace},
		&recordingInterceptor{name: "cutoff", trace: &trace, early: true},
		&recordingInterceptor{name: "never", trace: &trace},
	))

	event, err := client.SendMessage(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.NoError(t, err)
	assert.Nil(t, event)

	// The transport never ran and "never" saw neither hook, but the
	// interceptors that did run unwound in reverse order.
	assert.Nil(t, stub.lastSend)
	assert.Equal(t, []string{"before:outer", "before:cutoff", "after:cutoff", "after:outer"}, trace)
}

func TestInterceptorBeforeError(t *testing.T) {
	var trace []string
	stub := &stubTransport{result: completedTask("t1")}

	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithInterceptors(
		&recordingInterceptor{name: "outer", trace: &trace},
		&recordingInterceptor{name: "broken", trace: &trace, beforeErr: fmt.Errorf("denied")},
	))

	_, err := client.SendMessage(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.EqualError(t, err, "denied")
	assert.Nil(t, stub.lastSend)
	assert.Equal(t, []string{"before:outer", "before:broken", "after:broken", "after:outer"}, trace)
}

func TestInterceptorsWrapPushConfigCalls(t *testing.T) {
	var trace []string
	stub := &stubTransport{}

	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithInterceptors(
		&recordingInterceptor{name: "outer", trace: &trace},
	))

	require.NoError(t, client.DeletePushNotificationConfig(context.Background(), &a2a.DeleteTaskPushNotificationConfigParams{
		TaskIDParams:             a2a.TaskIDParams{ID: "t1"},
		PushNotificationConfigID: "c1",
	}))

	require.NotNil(t, stub.lastDelete)
	assert.Equal(t, "c1", stub.lastDelete.PushNotificationConfigID)
	assert.Equal(t, []string{"before:outer", "after:outer"}, trace)

	// An early return short-circuits the transport, same as the other
	// methods.
	trace = nil
	stub.lastDelete = nil

	client = NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithInterceptors(
		&recordingInterceptor{name: "cutoff", trace: &trace, early: true},
	))

	require.NoError(t, client.DeletePushNotificationConfig(context.Background(), &a2a.DeleteTaskPushNotificationConfigParams{
		TaskIDParams: a2a.TaskIDParams{ID: "t1"},
	}))
	assert.Nil(t, stub.lastDelete)
	assert.Equal(t, []string{"before:cutoff", "after:cutoff"}, trace)
}

func TestClientPolicy(t *testing.T) {
	stub := &stubTransport{result: completedTask("t1")}
	token := "tok"

	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub, WithClientConfig(ClientConfig{
		Polling:                true,
		AcceptedOutputModes:    []string{"text/plain"},
		PushNotificationConfig: &a2a.PushNotificationConfig{URL: "https://hook.example", Token: &token},
	}))

	params := &a2a.MessageSendParams{Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi")}
	_, err := client.SendMessage(context.Background(), params)
	require.NoError(t, err)

	sent := stub.lastSend
	require.NotNil(t, sent.Configuration)
	require.NotNil(t, sent.Configuration.Blocking)
	assert.False(t, *sent.Configuration.Blocking)
	assert.Equal(t, []string{"text/plain"}, sent.Configuration.AcceptedOutputModes)
	require.NotNil(t, sent.Configuration.PushNotificationConfig)
	assert.Equal(t, "https://hook.example", sent.Configuration.PushNotificationConfig.URL)

	// The caller's params are left untouched.
	assert.Nil(t, params.Configuration)
}

func TestClientDefaultsToBlocking(t *testing.T) {
	stub := &stubTransport{result: completedTask("t1")}
	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub)

	_, err := client.SendMessage(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.NoError(t, err)

	require.NotNil(t, stub.lastSend.Configuration)
	require.NotNil(t, stub.lastSend.Configuration.Blocking)
	assert.True(t, *stub.lastSend.Configuration.Blocking)
}

func TestStreamFallbackToUnary(t *testing.T) {
	stub := &stubTransport{result: completedTask("t1")}

	// Card without the streaming capability: the stream call degrades to a
	// single unary send.
	client := NewClient(a2a.AgentCard{Name: "Stub"}, stub)

	stream, err := client.SendMessageStream(context.Background(), &a2a.MessageSendParams{
		Message: *a2a.NewTextMessage(a2a.RoleUser, "Hi"),
	})
	require.NoError(t, err)

	item := <-stream
	require.NoError(t, item.Err)
	assert.Equal(t, a2a.KindTask, item.Event.EventKind())

	_, open := <-stream
	assert.False(t, open)
}

func TestFactoryTransportSelection(t *testing.T) {
	card := a2a.AgentCard{
		Name:               "Multi",
		URL:                "http://agent.example/rpc",
		PreferredTransport: a2a.TransportJSONRPC,
		AdditionalInterfaces: []a2a.AgentInterface{
			{Transport: "http+json", URL: "http://agent.example"},
		},
	}

	client, err := NewClientFactory().CreateClient(card)
	require.NoError(t, err)
	_, ok := client.transport.(*JSONRPCTransport)
	assert.True(t, ok)

	// User preference beats the card's, matched case-insensitively.
	client, err = NewClientFactory(WithPreferredTransports("HTTP+JSON")).CreateClient(card)
	require.NoError(t, err)
	_, ok = client.transport.(*RESTTransport)
	assert.True(t, ok)

	// A card declaring only unknown protocols cannot be connected to.
	_, err = NewClientFactory().CreateClient(a2a.AgentCard{
		Name:               "Exotic",
		URL:                "grpc://agent.example",
		PreferredTransport: "GRPC",
	})
	assert.Error(t, err)
}

func TestCardResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != a2a.WellKnownCardPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(a2a.AgentCard{Name: "Resolved", URL: "http://agent.example/rpc", Version: "1.0.0"})
	}))
	defer server.Close()

	card, err := NewCardResolver(server.URL).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "Resolved", card.Name)

	_, err = NewCardResolver(server.URL, WithCardPath("/elsewhere.json")).Resolve()
	assert.Error(t, err)
}
