package handler

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/eventbus"
	"github.com/agentwire/a2a/pkg/result"
)

// OnGetTask returns the persisted task with its history trimmed to the
// caller's historyLength. The stored task itself is never touched.
func (handler *DefaultRequestHandler) OnGetTask(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskQueryParams) (*a2a.Task, *errors.RpcError) {
	task, rpcErr := handler.loadTask(ctx, params.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return trimHistory(task, params.HistoryLength), nil
}

/*
OnCancelTask cancels a task. With a live execution the executor's Cancel
hook runs and the bus is drained until the execution terminates; without
one the canceled state is persisted directly. Either way the task must end
up canceled, otherwise the call fails with TaskNotCancelable.
*/
func (handler *DefaultRequestHandler) OnCancelTask(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskIDParams) (*a2a.Task, *errors.RpcError) {
	task, rpcErr := handler.loadTask(ctx, params.ID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if task.Status.State.Terminal() {
		return nil, errors.ErrTaskNotCancelable.WithMessagef(
			"task %s is already %s", task.ID, task.Status.State,
		)
	}

	bus, live := handler.buses.Get(params.ID)
	if !live {
		message := a2a.NewTextMessage(a2a.RoleAgent, "Task canceled by request.")
		message.TaskID = task.ID
		message.ContextID = task.ContextID

		task.ToStatus(a2a.TaskStateCanceled, message)
		if rpcErr := handler.taskStore.Save(ctx, task); rpcErr != nil {
			return nil, rpcErr
		}

		return task, nil
	}

	queue := bus.Attach()
	defer queue.Stop()

	if err := handler.executor.Cancel(ctx, params.ID, bus); err != nil {
		return nil, errors.FromError(err)
	}

	// Drain the remaining events so the cancellation outcome is persisted
	// before we reload. The regular send loop folds the same events; both
	// folds write through the store, so the last event wins either way.
	drain := result.NewManagerWithTask(handler.taskStore, task)

	for {
		select {
		case event, open := <-queue.Events():
			if !open {
				return handler.reloadCanceled(ctx, params.ID)
			}
			if rpcErr := drain.Process(ctx, event); rpcErr != nil {
				log.Warn("ignoring unexpected event while draining cancellation", "taskId", params.ID, "error", rpcErr)
			}
		case <-ctx.Done():
			return nil, errors.ErrInternal.WithMessagef("cancellation interrupted: %s", ctx.Err())
		}
	}
}

func (handler *DefaultRequestHandler) reloadCanceled(ctx context.Context, taskID string) (*a2a.Task, *errors.RpcError) {
	task, rpcErr := handler.loadTask(ctx, taskID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if task.Status.State != a2a.TaskStateCanceled {
		return nil, errors.ErrTaskNotCancelable.WithMessagef(
			"task %s ended %s instead of canceled", task.ID, task.Status.State,
		)
	}

	return task, nil
}

/*
OnResubscribe re-attaches a caller to a running task's event stream. The
persisted task is yielded first; a terminal task ends the stream right
after it, otherwise events published from this moment on follow.
*/
func (handler *DefaultRequestHandler) OnResubscribe(ctx context.Context, call *auth.ServerCallContext, params *a2a.TaskIDParams) (<-chan a2a.Event, *errors.RpcError) {
	if !handler.card.Capabilities.Streaming {
		return nil, errors.ErrUnsupportedOperation.WithMessagef("this agent does not support streaming")
	}

	// Attach before loading the snapshot: an event published between the
	// load and the attach would otherwise reach neither. An event that made
	// it into both the snapshot and the queue is delivered twice, which the
	// fold on the consumer side absorbs.
	var queue *eventbus.Queue
	if bus, live := handler.buses.Get(params.ID); live {
		queue = bus.Attach()
	}

	task, rpcErr := handler.loadTask(ctx, params.ID)
	if rpcErr != nil {
		if queue != nil {
			queue.Stop()
		}
		return nil, rpcErr
	}

	out := make(chan a2a.Event, 1)
	out <- task

	if task.Status.State.Terminal() || queue == nil {
		if queue != nil {
			queue.Stop()
		}
		close(out)
		return out, nil
	}

	go func() {
		defer close(out)

		for event := range queue.Events() {
			if id := eventTaskID(event); id != "" && id != params.ID {
				continue
			}

			select {
			case out <- event:
			case <-ctx.Done():
				queue.Stop()
				return
			}
		}
	}()

	return out, nil
}

func (handler *DefaultRequestHandler) loadTask(ctx context.Context, taskID string) (*a2a.Task, *errors.RpcError) {
	task, rpcErr := handler.taskStore.Load(ctx, taskID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if task == nil {
		return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", taskID)
	}
	return task, nil
}

// eventTaskID extracts the task an event belongs to, empty when the event
// does not carry one.
func eventTaskID(event a2a.Event) string {
	switch event := event.(type) {
	case *a2a.Task:
		return event.ID
	case *a2a.TaskStatusUpdateEvent:
		return event.TaskID
	case *a2a.TaskArtifactUpdateEvent:
		return event.TaskID
	case *a2a.Message:
		return event.TaskID
	default:
		return ""
	}
}
