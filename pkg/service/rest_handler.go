package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/utils"
)

/*
handleREST routes every /v1 call. The action-style paths use a literal
colon (message:send, tasks/{id}:cancel), which fiber's router does not
treat specially, so dispatch happens here on the raw path.
*/
func (srv *A2AServer) handleREST(ctx fiber.Ctx) error {
	call := srv.callContext(ctx)
	path := strings.TrimPrefix(ctx.Path(), "/v1/")

	switch {
	case path == "card" && ctx.Method() == fiber.MethodGet:
		return srv.restExtendedCard(ctx, call)

	case path == "message:send" && ctx.Method() == fiber.MethodPost:
		return srv.restSendMessage(ctx, call)

	case path == "message:stream" && ctx.Method() == fiber.MethodPost:
		return srv.restStreamMessage(ctx, call)

	case strings.HasPrefix(path, "tasks/"):
		return srv.restTasks(ctx, call, strings.TrimPrefix(path, "tasks/"))
	}

	return restError(ctx, errors.ErrMethodNotFound.WithMessagef("no route %s %s", ctx.Method(), ctx.Path()))
}

func (srv *A2AServer) restTasks(ctx fiber.Ctx, call *auth.ServerCallContext, rest string) error {
	if slash := strings.Index(rest, "/"); slash >= 0 {
		taskID, sub := rest[:slash], rest[slash+1:]
		return srv.restPushConfigs(ctx, call, taskID, sub)
	}

	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		taskID, action := rest[:colon], rest[colon+1:]

		switch {
		case action == "cancel" && ctx.Method() == fiber.MethodPost:
			return srv.restCancelTask(ctx, call, taskID)
		case action == "subscribe" && ctx.Method() == fiber.MethodPost:
			return srv.restSubscribeTask(ctx, call, taskID)
		}

		return restError(ctx, errors.ErrMethodNotFound.WithMessagef("no route %s %s", ctx.Method(), ctx.Path()))
	}

	if ctx.Method() == fiber.MethodGet {
		return srv.restGetTask(ctx, call, rest)
	}

	return restError(ctx, errors.ErrMethodNotFound.WithMessagef("no route %s %s", ctx.Method(), ctx.Path()))
}

func (srv *A2AServer) restExtendedCard(ctx fiber.Ctx, call *auth.ServerCallContext) error {
	card, rpcErr := srv.handler.OnGetAuthenticatedExtendedCard(ctx.Context(), call)
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}
	return ctx.JSON(card)
}

func (srv *A2AServer) restSendMessage(ctx fiber.Ctx, call *auth.ServerCallContext) error {
	var params a2a.MessageSendParams
	if rpcErr := restBody(ctx, &params); rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	result, rpcErr := srv.handler.OnSendMessage(ctx.Context(), call, &params)
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	reflectExtensions(ctx, call)
	return ctx.Status(fiber.StatusCreated).JSON(result)
}

func (srv *A2AServer) restStreamMessage(ctx fiber.Ctx, call *auth.ServerCallContext) error {
	var params a2a.MessageSendParams
	if rpcErr := restBody(ctx, &params); rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	stream, rpcErr := srv.handler.OnSendMessageStream(ctx.Context(), call, &params)
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	reflectExtensions(ctx, call)
	return srv.restSSE(ctx, stream)
}

func (srv *A2AServer) restGetTask(ctx fiber.Ctx, call *auth.ServerCallContext, taskID string) error {
	params := a2a.TaskQueryParams{TaskIDParams: a2a.TaskIDParams{ID: taskID}}

	if raw := ctx.Query("historyLength"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return restError(ctx, errors.ErrInvalidParams.WithMessagef("historyLength must be a non-negative integer, got %q", raw))
		}
		params.HistoryLength = &n
	}

	task, rpcErr := srv.handler.OnGetTask(ctx.Context(), call, &params)
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	return ctx.JSON(task)
}

func (srv *A2AServer) restCancelTask(ctx fiber.Ctx, call *auth.ServerCallContext, taskID string) error {
	task, rpcErr := srv.handler.OnCancelTask(ctx.Context(), call, &a2a.TaskIDParams{ID: taskID})
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	return ctx.Status(fiber.StatusAccepted).JSON(task)
}

func (srv *A2AServer) restSubscribeTask(ctx fiber.Ctx, call *auth.ServerCallContext, taskID string) error {
	stream, rpcErr := srv.handler.OnResubscribe(ctx.Context(), call, &a2a.TaskIDParams{ID: taskID})
	if rpcErr != nil {
		return restError(ctx, rpcErr)
	}

	return srv.restSSE(ctx, stream)
}

func (srv *A2AServer) restPushConfigs(ctx fiber.Ctx, call *auth.ServerCallContext, taskID string, sub string) error {
	switch {
	case sub == "pushNotificationConfigs" && ctx.Method() == fiber.MethodPost:
		var config a2a.PushNotificationConfig
		if rpcErr := restBody(ctx, &config); rpcErr != nil {
			return restError(ctx, rpcErr)
		}

		saved, rpcErr := srv.handler.OnSetTaskPushNotificationConfig(ctx.Context(), call, &a2a.TaskPushNotificationConfig{
			TaskID:                 taskID,
			PushNotificationConfig: config,
		})
		if rpcErr != nil {
			return restError(ctx, rpcErr)
		}
		return ctx.Status(fiber.StatusCreated).JSON(saved)

	case sub == "pushNotificationConfigs" && ctx.Method() == fiber.MethodGet:
		configs, rpcErr := srv.handler.OnListTaskPushNotificationConfig(ctx.Context(), call, &a2a.ListTaskPushNotificationConfigParams{
			TaskIDParams: a2a.TaskIDParams{ID: taskID},
		})
		if rpcErr != nil {
			return restError(ctx, rpcErr)
		}
		return ctx.JSON(configs)

	case strings.HasPrefix(sub, "pushNotificationConfigs/"):
		configID := strings.TrimPrefix(sub, "pushNotificationConfigs/")

		switch ctx.Method() {
		case fiber.MethodGet:
			config, rpcErr := srv.handler.OnGetTaskPushNotificationConfig(ctx.Context(), call, &a2a.GetTaskPushNotificationConfigParams{
				TaskIDParams:             a2a.TaskIDParams{ID: taskID},
				PushNotificationConfigID: &configID,
			})
			if rpcErr != nil {
				return restError(ctx, rpcErr)
			}
			return ctx.JSON(config)

		case fiber.MethodDelete:
			if rpcErr := srv.handler.OnDeleteTaskPushNotificationConfig(ctx.Context(), call, &a2a.DeleteTaskPushNotificationConfigParams{
				TaskIDParams:             a2a.TaskIDParams{ID: taskID},
				PushNotificationConfigID: configID,
			}); rpcErr != nil {
				return restError(ctx, rpcErr)
			}
			return ctx.SendStatus(fiber.StatusNoContent)
		}
	}

	return restError(ctx, errors.ErrMethodNotFound.WithMessagef("no route %s %s", ctx.Method(), ctx.Path()))
}

/*
restSSE streams raw events. The first event is taken from the channel
before any header is flushed, so a stream that dies immediately still
yields a real HTTP error status instead of 200 plus an error event.
*/
func (srv *A2AServer) restSSE(ctx fiber.Ctx, stream <-chan a2a.Event) error {
	first, open := <-stream
	if !open {
		return restError(ctx, errors.ErrInternal.WithMessagef("the event stream produced no events"))
	}

	return srv.writeSSE(ctx, func(event a2a.Event) ([]byte, error) {
		return json.Marshal(event)
	}, func(cause *errors.RpcError) []byte {
		payload, _ := json.Marshal(cause)
		return payload
	}, stream, first)
}

/*
restBody decodes a request body, accepting snake_case and camelCase keys
alike. Everything after this boundary sees camelCase only.
*/
func restBody(ctx fiber.Ctx, out any) *errors.RpcError {
	normalized, err := utils.NormalizeJSONKeys(ctx.Body())
	if err != nil {
		return errors.ErrParseError.WithMessagef("malformed JSON body: %v", err)
	}

	if err := json.Unmarshal(normalized, out); err != nil {
		return errors.ErrInvalidParams.WithMessagef("failed to unmarshal body: %v", err)
	}

	return nil
}

// restError maps an A2A error code onto its HTTP status and sends the
// error object as the body, preserving its wire shape.
func restError(ctx fiber.Ctx, rpcErr *errors.RpcError) error {
	return ctx.Status(httpStatus(rpcErr.Code)).JSON(rpcErr)
}

func httpStatus(code int) int {
	switch code {
	case errors.ErrParseError.Code,
		errors.ErrInvalidRequest.Code,
		errors.ErrInvalidParams.Code,
		errors.ErrPushNotificationNotSupported.Code,
		errors.ErrUnsupportedOperation.Code:
		return fiber.StatusBadRequest
	case errors.ErrMethodNotFound.Code, errors.ErrTaskNotFound.Code:
		return fiber.StatusNotFound
	case errors.ErrTaskNotCancelable.Code:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
