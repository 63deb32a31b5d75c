package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/jsonrpc"
	"github.com/agentwire/a2a/pkg/sse"
)

/*
JSONRPCTransport speaks JSON-RPC 2.0 over HTTP POST against a single
endpoint. Streaming methods switch the response to SSE, where every frame
is a response object mirroring the request id.
*/
type JSONRPCTransport struct {
	endpoint string
	config   transportConfig
	lastID   atomic.Int64
}

func NewJSONRPCTransport(endpoint string, opts ...TransportOption) *JSONRPCTransport {
	return &JSONRPCTransport{
		endpoint: endpoint,
		config:   newTransportConfig(opts),
	}
}

func (transport *JSONRPCTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error) {
	var result json.RawMessage
	if err := transport.call(ctx, jsonrpc.MethodMessageSend, params, &result); err != nil {
		return nil, err
	}
	return a2a.UnmarshalEvent(result)
}

func (transport *JSONRPCTransport) SendMessageStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamResult, error) {
	return transport.stream(ctx, jsonrpc.MethodMessageStream, params)
}

func (transport *JSONRPCTransport) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	var task a2a.Task
	if err := transport.call(ctx, jsonrpc.MethodTasksGet, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (transport *JSONRPCTransport) CancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	var task a2a.Task
	if err := transport.call(ctx, jsonrpc.MethodTasksCancel, params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (transport *JSONRPCTransport) Resubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamResult, error) {
	return transport.stream(ctx, jsonrpc.MethodTasksResubscribe, params)
}

func (transport *JSONRPCTransport) SetPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	var config a2a.TaskPushNotificationConfig
	if err := transport.call(ctx, jsonrpc.MethodPushConfigSet, params, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (transport *JSONRPCTransport) GetPushNotificationConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	var config a2a.TaskPushNotificationConfig
	if err := transport.call(ctx, jsonrpc.MethodPushConfigGet, params, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (transport *JSONRPCTransport) ListPushNotificationConfigs(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	var configs []a2a.TaskPushNotificationConfig
	if err := transport.call(ctx, jsonrpc.MethodPushConfigList, params, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (transport *JSONRPCTransport) DeletePushNotificationConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error {
	return transport.call(ctx, jsonrpc.MethodPushConfigDelete, params, nil)
}

func (transport *JSONRPCTransport) GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := transport.call(ctx, jsonrpc.MethodAgentExtendedCard, struct{}{}, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (transport *JSONRPCTransport) call(ctx context.Context, method string, params any, out any) error {
	id, response, err := transport.post(ctx, method, params)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	decoded, err := decodeResponse(body, response.StatusCode)
	if err != nil {
		return err
	}

	checkResponseID(method, id, decoded.ID)

	if out != nil {
		buf, err := json.Marshal(decoded.Result)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(buf, out); err != nil {
			return fmt.Errorf("failed to unmarshal result of %s: %w", method, err)
		}
	}

	return nil
}

func (transport *JSONRPCTransport) stream(ctx context.Context, method string, params any) (<-chan StreamResult, error) {
	id, response, err := transport.post(ctx, method, params)
	if err != nil {
		return nil, err
	}

	// A plain JSON body means the call failed before any event was
	// produced, so surface it as a call error, not a stream item.
	if !strings.HasPrefix(response.Header.Get("Content-Type"), "text/event-stream") {
		defer response.Body.Close()

		body, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if _, err := decodeResponse(body, response.StatusCode); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: expected an event stream, got %s", method, response.Header.Get("Content-Type"))
	}

	results := make(chan StreamResult)

	go func() {
		defer close(results)
		defer response.Body.Close()

		reader := sse.NewReader(response.Body)

		for {
			event, err := reader.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				results <- StreamResult{Err: err}
				return
			}

			item, err := decodeStreamFrame(method, id, event)
			if err != nil {
				results <- StreamResult{Err: err}
				return
			}

			select {
			case results <- StreamResult{Event: item}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

func (transport *JSONRPCTransport) post(ctx context.Context, method string, params any) (int64, *http.Response, error) {
	id := transport.lastID.Add(1)

	request := jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		ID:      json.RawMessage(strconv.FormatInt(id, 10)),
		Method:  method,
	}

	if params != nil {
		buf, err := json.Marshal(params)
		if err != nil {
			return 0, nil, err
		}
		request.Params = buf
	}

	body, err := json.Marshal(request)
	if err != nil {
		return 0, nil, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, transport.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}

	httpRequest.Header.Set("Content-Type", "application/json")
	for key, values := range transport.config.header {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}

	response, err := transport.config.client.Do(httpRequest)
	if err != nil {
		return 0, nil, err
	}

	return id, response, nil
}

/*
decodeResponse turns a response body into a jsonrpc.Response. A non-2xx
status with a parseable JSON-RPC error body still yields the typed error
it carries; anything else becomes a transport-level error.
*/
func decodeResponse(body []byte, statusCode int) (*jsonrpc.Response, error) {
	var response jsonrpc.Response

	if err := json.Unmarshal(body, &response); err != nil {
		if statusCode < 200 || statusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d: %s", statusCode, string(body))
		}
		return nil, fmt.Errorf("malformed response body: %w", err)
	}

	if response.Error != nil {
		return nil, response.Error
	}

	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", statusCode)
	}

	return &response, nil
}

func decodeStreamFrame(method string, id int64, event *sse.Event) (a2a.Event, error) {
	var response jsonrpc.Response

	if err := json.Unmarshal(event.Data, &response); err != nil {
		return nil, fmt.Errorf("malformed stream frame: %w", err)
	}

	if response.Error != nil {
		return nil, response.Error
	}

	if event.IsError() {
		return nil, errors.ErrInternal.WithMessagef("stream terminated by the agent")
	}

	checkResponseID(method, id, response.ID)

	buf, err := json.Marshal(response.Result)
	if err != nil {
		return nil, err
	}

	return a2a.UnmarshalEvent(buf)
}

// checkResponseID flags a response that answers a different request than
// the one sent. Logged rather than fatal: the payload is still usable.
func checkResponseID(method string, sent int64, received json.RawMessage) {
	if want := strconv.FormatInt(sent, 10); len(received) > 0 && string(received) != want {
		log.Warn("response id does not match request id", "method", method, "sent", want, "received", string(received))
	}
}
