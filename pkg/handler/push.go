package handler

import (
	"context"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
)

// requirePushCapability gates every push-config operation on the card's
// pushNotifications flag and on the task actually existing.
func (handler *DefaultRequestHandler) requirePushCapability(ctx context.Context, taskID string) *errors.RpcError {
	if !handler.card.Capabilities.PushNotifications {
		return errors.ErrPushNotificationNotSupported
	}

	_, rpcErr := handler.loadTask(ctx, taskID)
	return rpcErr
}

// OnSetTaskPushNotificationConfig registers a webhook for a task. A config
// without an id is stored under the task id.
func (handler *DefaultRequestHandler) OnSetTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, *errors.RpcError) {
	if rpcErr := handler.requirePushCapability(ctx, params.TaskID); rpcErr != nil {
		return nil, rpcErr
	}

	config := params.PushNotificationConfig
	if config.ID == "" {
		config.ID = params.TaskID
	}

	handler.pushStore.Save(params.TaskID, config)

	return &a2a.TaskPushNotificationConfig{
		TaskID:                 params.TaskID,
		PushNotificationConfig: config,
	}, nil
}

// OnGetTaskPushNotificationConfig looks up one webhook config. A missing
// configId defaults to the task id.
func (handler *DefaultRequestHandler) OnGetTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, *errors.RpcError) {
	if rpcErr := handler.requirePushCapability(ctx, params.ID); rpcErr != nil {
		return nil, rpcErr
	}

	configID := params.ID
	if params.PushNotificationConfigID != nil && *params.PushNotificationConfigID != "" {
		configID = *params.PushNotificationConfigID
	}

	for _, config := range handler.pushStore.Load(params.ID) {
		if config.ID == configID {
			return &a2a.TaskPushNotificationConfig{
				TaskID:                 params.ID,
				PushNotificationConfig: config,
			}, nil
		}
	}

	return nil, errors.ErrTaskNotFound.WithMessagef(
		"no push notification config %s for task %s", configID, params.ID,
	)
}

// OnListTaskPushNotificationConfig returns every webhook config of a task
// in registration order.
func (handler *DefaultRequestHandler) OnListTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, *errors.RpcError) {
	if rpcErr := handler.requirePushCapability(ctx, params.ID); rpcErr != nil {
		return nil, rpcErr
	}

	configs := handler.pushStore.Load(params.ID)
	out := make([]a2a.TaskPushNotificationConfig, 0, len(configs))

	for _, config := range configs {
		out = append(out, a2a.TaskPushNotificationConfig{
			TaskID:                 params.ID,
			PushNotificationConfig: config,
		})
	}

	return out, nil
}

// OnDeleteTaskPushNotificationConfig removes one webhook config; removing
// the last one forgets the task entirely.
func (handler *DefaultRequestHandler) OnDeleteTaskPushNotificationConfig(ctx context.Context, call *auth.ServerCallContext, params *a2a.DeleteTaskPushNotificationConfigParams) *errors.RpcError {
	if rpcErr := handler.requirePushCapability(ctx, params.ID); rpcErr != nil {
		return rpcErr
	}

	handler.pushStore.Delete(params.ID, params.PushNotificationConfigID)
	return nil
}
