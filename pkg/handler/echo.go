package handler

import (
	"context"
	"time"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/eventbus"
)

/*
EchoExecutor is a minimal AgentExecutor that answers every message with
its own text, wrapped in a completed task with one artifact. It doubles as
a living example of the event sequence a well-behaved executor produces.
*/
type EchoExecutor struct{}

func NewEchoExecutor() *EchoExecutor {
	return &EchoExecutor{}
}

func (executor *EchoExecutor) Execute(ctx context.Context, request *RequestContext, bus *eventbus.Bus) error {
	task := request.Task
	if task == nil {
		task = &a2a.Task{
			ID:        request.TaskID,
			ContextID: request.ContextID,
			History:   []a2a.Message{*request.Message()},
		}
		task.ToStatus(a2a.TaskStateSubmitted, nil)
	}

	bus.Publish(task)

	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID:    request.TaskID,
		ContextID: request.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateWorking,
			Timestamp: time.Now().UTC(),
		},
	})

	bus.Publish(&a2a.TaskArtifactUpdateEvent{
		TaskID:    request.TaskID,
		ContextID: request.ContextID,
		Artifact:  a2a.NewTextArtifact("echo", request.Message().String()),
	})

	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID:    request.TaskID,
		ContextID: request.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	})

	return nil
}

func (executor *EchoExecutor) Cancel(ctx context.Context, taskID string, bus *eventbus.Bus) error {
	bus.Publish(&a2a.TaskStatusUpdateEvent{
		TaskID: taskID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCanceled,
			Timestamp: time.Now().UTC(),
		},
		Final: true,
	})

	return nil
}
