package service

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/jsonrpc"
	"github.com/agentwire/a2a/pkg/sse"
)

/*
handleRPC is the single JSON-RPC 2.0 endpoint. Unary methods answer with
one response object; streaming methods switch the connection to SSE, each
frame being a response object that mirrors the request id.
*/
func (srv *A2AServer) handleRPC(ctx fiber.Ctx) error {
	var request jsonrpc.Request

	if err := json.Unmarshal(ctx.Body(), &request); err != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(nil, errors.ErrParseError.WithMessagef("malformed JSON body: %v", err)))
	}

	if rpcErr := jsonrpc.ValidateRequest(&request); rpcErr != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(request.ID, rpcErr))
	}

	call := srv.callContext(ctx)

	if jsonrpc.StreamingMethod(request.Method) {
		return srv.handleRPCStream(ctx, call, &request)
	}

	result, rpcErr := srv.dispatchRPC(ctx, call, &request)
	reflectExtensions(ctx, call)

	if rpcErr != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(request.ID, rpcErr))
	}

	return ctx.JSON(jsonrpc.NewResponse(request.ID, result))
}

func (srv *A2AServer) dispatchRPC(ctx fiber.Ctx, call *auth.ServerCallContext, request *jsonrpc.Request) (any, *errors.RpcError) {
	switch request.Method {
	case jsonrpc.MethodMessageSend:
		var params a2a.MessageSendParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnSendMessage(ctx.Context(), call, &params)

	case jsonrpc.MethodTasksGet:
		var params a2a.TaskQueryParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnGetTask(ctx.Context(), call, &params)

	case jsonrpc.MethodTasksCancel:
		var params a2a.TaskIDParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnCancelTask(ctx.Context(), call, &params)

	case jsonrpc.MethodPushConfigSet:
		var params a2a.TaskPushNotificationConfig
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnSetTaskPushNotificationConfig(ctx.Context(), call, &params)

	case jsonrpc.MethodPushConfigGet:
		var params a2a.GetTaskPushNotificationConfigParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnGetTaskPushNotificationConfig(ctx.Context(), call, &params)

	case jsonrpc.MethodPushConfigList:
		var params a2a.ListTaskPushNotificationConfigParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return srv.handler.OnListTaskPushNotificationConfig(ctx.Context(), call, &params)

	case jsonrpc.MethodPushConfigDelete:
		var params a2a.DeleteTaskPushNotificationConfigParams
		if rpcErr := unmarshalParams(request.Params, &params); rpcErr != nil {
			return nil, rpcErr
		}
		if rpcErr := srv.handler.OnDeleteTaskPushNotificationConfig(ctx.Context(), call, &params); rpcErr != nil {
			return nil, rpcErr
		}
		return nil, nil

	case jsonrpc.MethodAgentExtendedCard:
		return srv.handler.OnGetAuthenticatedExtendedCard(ctx.Context(), call)

	default:
		return nil, errors.ErrMethodNotFound.WithMessagef("unknown method %q", request.Method)
	}
}

func (srv *A2AServer) handleRPCStream(ctx fiber.Ctx, call *auth.ServerCallContext, request *jsonrpc.Request) error {
	var (
		stream <-chan a2a.Event
		rpcErr *errors.RpcError
	)

	switch request.Method {
	case jsonrpc.MethodMessageStream:
		var params a2a.MessageSendParams
		if rpcErr = unmarshalParams(request.Params, &params); rpcErr == nil {
			stream, rpcErr = srv.handler.OnSendMessageStream(ctx.Context(), call, &params)
		}
	case jsonrpc.MethodTasksResubscribe:
		var params a2a.TaskIDParams
		if rpcErr = unmarshalParams(request.Params, &params); rpcErr == nil {
			stream, rpcErr = srv.handler.OnResubscribe(ctx.Context(), call, &params)
		}
	}

	// Errors before the stream starts stay plain JSON-RPC responses, so the
	// caller never has to parse SSE to learn the call failed.
	if rpcErr != nil {
		return ctx.JSON(jsonrpc.NewErrorResponse(request.ID, rpcErr))
	}

	reflectExtensions(ctx, call)

	return srv.writeSSE(ctx, func(event a2a.Event) ([]byte, error) {
		return json.Marshal(jsonrpc.NewResponse(request.ID, event))
	}, func(cause *errors.RpcError) []byte {
		payload, _ := json.Marshal(jsonrpc.NewErrorResponse(request.ID, cause))
		return payload
	}, stream, nil)
}

/*
writeSSE drains an event channel onto the wire as Server-Sent Events. The
frame function serializes one event; the failure function frames an error
for the terminating `event: error` case. A non-nil first event is written
before anything is read from the channel.
*/
func (srv *A2AServer) writeSSE(ctx fiber.Ctx, frame func(a2a.Event) ([]byte, error), failure func(*errors.RpcError) []byte, stream <-chan a2a.Event, first a2a.Event) error {
	streamHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, _ := w.(http.Flusher)
		flush := func() {
			if flusher != nil {
				flusher.Flush()
			}
		}

		write := func(event a2a.Event) bool {
			payload, err := frame(event)
			if err != nil {
				_ = sse.WriteError(w, failure(errors.ErrInternal.WithMessagef("failed to serialize event: %v", err)))
				flush()
				return false
			}
			if err := sse.WriteData(w, payload); err != nil {
				return false
			}
			flush()
			return true
		}

		if first != nil && !write(first) {
			return
		}

		for event := range stream {
			if !write(event) {
				return
			}
		}
	}

	return fiberadaptor.HTTPHandler(http.HandlerFunc(streamHandler))(ctx)
}

func unmarshalParams(raw json.RawMessage, out any) *errors.RpcError {
	if len(raw) == 0 {
		return errors.ErrInvalidParams.WithMessagef("params are required")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.ErrInvalidParams.WithMessagef("failed to unmarshal params: %v", err)
	}
	return nil
}
