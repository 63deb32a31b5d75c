package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	v "github.com/cohesivestack/valgo"
	"github.com/google/uuid"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/eventbus"
	"github.com/agentwire/a2a/pkg/result"
)

// execution is the live state of one message/send or message/stream call.
type execution struct {
	request *RequestContext
	bus     *eventbus.Bus
	queue   *eventbus.Queue
	results *result.Manager
}

/*
OnSendMessage runs the executor for an incoming message. In blocking mode
(the default) it returns the final Task or Message once the event stream
ends; with configuration.blocking set to false it returns the first Task
or Message and keeps folding the remaining events in the background.
*/
func (handler *DefaultRequestHandler) OnSendMessage(ctx context.Context, call *auth.ServerCallContext, params *a2a.MessageSendParams) (a2a.Event, *errors.RpcError) {
	execution, rpcErr := handler.startExecution(ctx, call, params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if params.Blocking() {
		return handler.awaitFinalResult(ctx, execution)
	}

	return handler.awaitFirstResult(ctx, execution)
}

/*
OnSendMessageStream runs the executor and yields every event to the
caller as it is published. The channel closes when the execution
finishes; dropping the consumer (canceling ctx) detaches from the bus
without stopping the executor.
*/
func (handler *DefaultRequestHandler) OnSendMessageStream(ctx context.Context, call *auth.ServerCallContext, params *a2a.MessageSendParams) (<-chan a2a.Event, *errors.RpcError) {
	if !handler.card.Capabilities.Streaming {
		return nil, errors.ErrUnsupportedOperation.WithMessagef("this agent does not support streaming")
	}

	execution, rpcErr := handler.startExecution(ctx, call, params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	out := make(chan a2a.Event)
	background := context.WithoutCancel(ctx)

	go func() {
		defer close(out)

		for event := range execution.queue.Events() {
			if rpcErr := handler.processEvent(background, execution.results, event); rpcErr != nil {
				execution.queue.Stop()

				if failure := handler.failTask(background, execution, rpcErr); failure != nil {
					select {
					case out <- failure:
					case <-ctx.Done():
					}
				}
				return
			}

			select {
			case out <- event:
			case <-ctx.Done():
				execution.queue.Stop()
				return
			}
		}
	}()

	return out, nil
}

/*
startExecution validates the message, builds the RequestContext, registers
a push config when one rides along, attaches a result queue and spawns the
executor. Shared between unary and streaming sends.
*/
func (handler *DefaultRequestHandler) startExecution(ctx context.Context, call *auth.ServerCallContext, params *a2a.MessageSendParams) (*execution, *errors.RpcError) {
	if params == nil {
		return nil, errors.ErrInvalidParams.WithMessagef("params are required")
	}

	message := &params.Message

	val := v.Is(
		v.String(message.MessageID, "messageId").Not().Blank(),
		v.String(string(message.Role), "role").InSlice([]string{string(a2a.RoleUser), string(a2a.RoleAgent)}),
	)
	if !val.Valid() {
		return nil, errors.ErrInvalidParams.WithData(val.Error())
	}

	var task *a2a.Task

	if message.TaskID != "" {
		loaded, rpcErr := handler.taskStore.Load(ctx, message.TaskID)
		if rpcErr != nil {
			return nil, rpcErr
		}
		if loaded == nil {
			return nil, errors.ErrTaskNotFound.WithMessagef("task %s not found", message.TaskID)
		}
		if loaded.Status.State.Terminal() {
			return nil, errors.ErrInvalidRequest.WithMessagef(
				"task %s is %s and accepts no further messages", loaded.ID, loaded.Status.State,
			)
		}

		loaded.AddMessage(*message)
		if rpcErr := handler.taskStore.Save(ctx, loaded); rpcErr != nil {
			return nil, rpcErr
		}

		task = loaded
	}

	taskID := message.TaskID
	if taskID == "" {
		taskID = uuid.New().String()
	}

	contextID := message.ContextID
	if contextID == "" && task != nil {
		contextID = task.ContextID
	}
	if contextID == "" {
		contextID = uuid.New().String()
	}

	var references []*a2a.Task
	for _, refID := range message.ReferenceTaskIDs {
		ref, rpcErr := handler.taskStore.Load(ctx, refID)
		if rpcErr != nil || ref == nil {
			log.Warn("referenced task could not be loaded", "taskId", refID)
			continue
		}
		references = append(references, ref)
	}

	if call == nil {
		call = auth.NewServerCallContext(nil)
	}
	call.Activate(handler.supportedExtensions)

	if params.Configuration != nil && params.Configuration.PushNotificationConfig != nil && handler.card.Capabilities.PushNotifications {
		config := *params.Configuration.PushNotificationConfig
		if config.ID == "" {
			config.ID = taskID
		}
		handler.pushStore.Save(taskID, config)
	}

	request := &RequestContext{
		Params:         params,
		TaskID:         taskID,
		ContextID:      contextID,
		Task:           task,
		ReferenceTasks: references,
		Call:           call,
	}

	bus := handler.buses.CreateOrGet(taskID)
	queue := bus.Attach()

	// The executor outlives the request in non-blocking mode, so it runs on
	// a context detached from the caller's cancellation.
	go handler.runExecutor(context.WithoutCancel(ctx), request, bus)

	return &execution{
		request: request,
		bus:     bus,
		queue:   queue,
		results: result.NewManagerWithTask(handler.taskStore, task),
	}, nil
}

// runExecutor drives the agent and guarantees the bus is closed afterwards,
// whether the executor returns, errors or panics.
func (handler *DefaultRequestHandler) runExecutor(ctx context.Context, request *RequestContext, bus *eventbus.Bus) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error("executor panicked", "taskId", request.TaskID, "panic", recovered)
			handler.publishFailure(request, bus, fmt.Sprintf("executor panicked: %v", recovered))
		}

		bus.Finished()
		handler.buses.Cleanup(request.TaskID)
	}()

	if err := handler.executor.Execute(ctx, request, bus); err != nil {
		log.Error("executor failed", "taskId", request.TaskID, "error", err)
		handler.publishFailure(request, bus, err.Error())
	}
}

// publishFailure turns an executor failure into a failed Task plus a final
// status-update, so every consumer observes a proper terminal event.
func (handler *DefaultRequestHandler) publishFailure(request *RequestContext, bus *eventbus.Bus, reason string) {
	message := a2a.NewTextMessage(a2a.RoleAgent, reason)
	message.TaskID = request.TaskID
	message.ContextID = request.ContextID

	failed := &a2a.Task{
		ID:        request.TaskID,
		ContextID: request.ContextID,
	}
	failed.ToStatus(a2a.TaskStateFailed, message)

	bus.Publish(failed)
	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID:    request.TaskID,
		ContextID: request.ContextID,
		Status:    failed.Status,
		Final:     true,
	})
}

// processEvent folds one event into the result and fans out a best-effort
// push notification with the updated snapshot.
func (handler *DefaultRequestHandler) processEvent(ctx context.Context, results *result.Manager, event a2a.Event) *errors.RpcError {
	if rpcErr := results.Process(ctx, event); rpcErr != nil {
		return rpcErr
	}

	if task := results.CurrentTask(); task != nil {
		handler.pushSender.Notify(ctx, task)
	}

	return nil
}

func (handler *DefaultRequestHandler) awaitFinalResult(ctx context.Context, execution *execution) (a2a.Event, *errors.RpcError) {
	for event := range execution.queue.Events() {
		if rpcErr := handler.processEvent(ctx, execution.results, event); rpcErr != nil {
			execution.queue.Stop()
			return nil, rpcErr
		}
	}

	final := execution.results.FinalResult()
	if final == nil {
		return nil, errors.ErrInternal.WithMessagef("the agent produced no result")
	}

	return handler.snapshotResult(final, execution.request.Params), nil
}

func (handler *DefaultRequestHandler) awaitFirstResult(ctx context.Context, execution *execution) (a2a.Event, *errors.RpcError) {
	type firstResult struct {
		event  a2a.Event
		rpcErr *errors.RpcError
	}

	firstCh := make(chan firstResult, 1)
	background := context.WithoutCancel(ctx)

	go func() {
		delivered := false
		deliver := func(event a2a.Event, rpcErr *errors.RpcError) {
			if !delivered {
				delivered = true
				firstCh <- firstResult{event: event, rpcErr: rpcErr}
			}
		}

		for event := range execution.queue.Events() {
			if rpcErr := handler.processEvent(background, execution.results, event); rpcErr != nil {
				execution.queue.Stop()

				if delivered {
					handler.failTask(background, execution, rpcErr)
				}

				deliver(nil, rpcErr)
				return
			}

			switch event.(type) {
			case *a2a.Message, *a2a.Task:
				deliver(handler.snapshotResult(event, execution.request.Params), nil)
			}
		}

		deliver(execution.results.FinalResult(), nil)
	}()

	first := <-firstCh
	if first.rpcErr != nil {
		return nil, first.rpcErr
	}
	if first.event == nil {
		return nil, errors.ErrInternal.WithMessagef("the agent produced no result")
	}

	return first.event, nil
}

/*
failTask records a failure that happened after events already flowed: the
accumulated task transitions to failed through the regular fold, and the
resulting final status-update is returned for consumers that still listen.
*/
func (handler *DefaultRequestHandler) failTask(ctx context.Context, execution *execution, cause *errors.RpcError) *a2a.TaskStatusUpdateEvent {
	task := execution.results.CurrentTask()
	if task == nil {
		return nil
	}

	message := a2a.NewTextMessage(a2a.RoleAgent, cause.Message)
	message.TaskID = task.ID
	message.ContextID = task.ContextID

	update := &a2a.TaskStatusUpdateEvent{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateFailed,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	}

	if rpcErr := execution.results.Process(ctx, update); rpcErr != nil {
		log.Error("failed to persist failure status", "taskId", task.ID, "error", rpcErr)
	}

	return update
}

// snapshotResult clones task results and applies the caller's history
// limit, so the returned value shares nothing with the ongoing fold.
func (handler *DefaultRequestHandler) snapshotResult(event a2a.Event, params *a2a.MessageSendParams) a2a.Event {
	task, isTask := event.(*a2a.Task)
	if !isTask {
		return event
	}

	snapshot := task.Clone()

	if params.Configuration != nil && params.Configuration.HistoryLength != nil {
		trimHistory(snapshot, params.Configuration.HistoryLength)
	}

	return snapshot
}
