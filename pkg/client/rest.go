package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/sse"
)

/*
RESTTransport speaks the HTTP+JSON mapping: one route per operation under
/v1, SSE bodies carrying bare events rather than response envelopes.
*/
type RESTTransport struct {
	baseURL string
	config  transportConfig
}

func NewRESTTransport(baseURL string, opts ...TransportOption) *RESTTransport {
	return &RESTTransport{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		config:  newTransportConfig(opts),
	}
}

func (transport *RESTTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error) {
	body, err := transport.do(ctx, http.MethodPost, "/v1/message:send", params)
	if err != nil {
		return nil, err
	}
	return a2a.UnmarshalEvent(body)
}

func (transport *RESTTransport) SendMessageStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamResult, error) {
	return transport.stream(ctx, "/v1/message:stream", params)
}

func (transport *RESTTransport) GetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	path := "/v1/tasks/" + url.PathEscape(params.ID)
	if params.HistoryLength != nil {
		path += "?historyLength=" + strconv.Itoa(*params.HistoryLength)
	}

	body, err := transport.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var task a2a.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (transport *RESTTransport) CancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	body, err := transport.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(params.ID)+":cancel", nil)
	if err != nil {
		return nil, err
	}

	var task a2a.Task
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (transport *RESTTransport) Resubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamResult, error) {
	return transport.stream(ctx, "/v1/tasks/"+url.PathEscape(params.ID)+":subscribe", nil)
}

func (transport *RESTTransport) SetPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	path := "/v1/tasks/" + url.PathEscape(params.TaskID) + "/pushNotificationConfigs"

	body, err := transport.do(ctx, http.MethodPost, path, params.PushNotificationConfig)
	if err != nil {
		return nil, err
	}

	var config a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (transport *RESTTransport) GetPushNotificationConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	configID := params.ID
	if params.PushNotificationConfigID != nil {
		configID = *params.PushNotificationConfigID
	}

	path := "/v1/tasks/" + url.PathEscape(params.ID) + "/pushNotificationConfigs/" + url.PathEscape(configID)

	body, err := transport.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var config a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (transport *RESTTransport) ListPushNotificationConfigs(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	body, err := transport.do(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(params.ID)+"/pushNotificationConfigs", nil)
	if err != nil {
		return nil, err
	}

	var configs []a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(body, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (transport *RESTTransport) DeletePushNotificationConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error {
	path := "/v1/tasks/" + url.PathEscape(params.ID) + "/pushNotificationConfigs/" + url.PathEscape(params.PushNotificationConfigID)
	_, err := transport.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (transport *RESTTransport) GetAuthenticatedExtendedCard(ctx context.Context) (*a2a.AgentCard, error) {
	body, err := transport.do(ctx, http.MethodGet, "/v1/card", nil)
	if err != nil {
		return nil, err
	}

	var card a2a.AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (transport *RESTTransport) do(ctx context.Context, method string, path string, payload any) ([]byte, error) {
	response, err := transport.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, restStatusError(response.StatusCode, body)
	}

	return body, nil
}

func (transport *RESTTransport) stream(ctx context.Context, path string, payload any) (<-chan StreamResult, error) {
	response, err := transport.send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		body, _ := io.ReadAll(response.Body)
		return nil, restStatusError(response.StatusCode, body)
	}

	results := make(chan StreamResult)

	go func() {
		defer close(results)
		defer response.Body.Close()

		reader := sse.NewReader(response.Body)

		for {
			frame, err := reader.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				results <- StreamResult{Err: err}
				return
			}

			if frame.IsError() {
				var rpcErr errors.RpcError
				if err := json.Unmarshal(frame.Data, &rpcErr); err != nil {
					results <- StreamResult{Err: fmt.Errorf("malformed error event: %s", string(frame.Data))}
				} else {
					results <- StreamResult{Err: &rpcErr}
				}
				return
			}

			event, err := a2a.UnmarshalEvent(frame.Data)
			if err != nil {
				results <- StreamResult{Err: err}
				return
			}

			select {
			case results <- StreamResult{Event: event}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results, nil
}

func (transport *RESTTransport) send(ctx context.Context, method string, path string, payload any) (*http.Response, error) {
	var body io.Reader

	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	request, err := http.NewRequestWithContext(ctx, method, transport.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, values := range transport.config.header {
		for _, value := range values {
			request.Header.Add(key, value)
		}
	}

	return transport.config.client.Do(request)
}

// restStatusError recovers the typed A2A error from an error body when the
// server sent one, falling back to a bare status error.
func restStatusError(statusCode int, body []byte) error {
	var rpcErr errors.RpcError
	if err := json.Unmarshal(body, &rpcErr); err == nil && rpcErr.Code != 0 {
		return &rpcErr
	}
	return fmt.Errorf("unexpected status %d: %s", statusCode, string(body))
}
