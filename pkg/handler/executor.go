package handler

import (
	"context"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/auth"
	"github.com/agentwire/a2a/pkg/eventbus"
)

/*
AgentExecutor is the agent logic behind a server. Execute publishes
Message, Task, TaskStatusUpdateEvent and TaskArtifactUpdateEvent values on
the bus and returns when the work of this request is done; the handler
closes the bus afterwards. Cancel asks a running execution to stop; a
cooperative executor publishes a canceled status before returning.
*/
type AgentExecutor interface {
	Execute(ctx context.Context, request *RequestContext, bus *eventbus.Bus) error
	Cancel(ctx context.Context, taskID string, bus *eventbus.Bus) error
}

/*
RequestContext is everything an executor gets to see about one incoming
message: the params as sent, the resolved task and context ids, the
persisted task when the message continues one, any referenced tasks, and
the transport-level call state.
*/
type RequestContext struct {
	Params *a2a.MessageSendParams

	// TaskID is the id the execution runs under: the message's task id when
	// set, a fresh uuid otherwise. Task events published by the executor
	// must carry it.
	TaskID    string
	ContextID string

	// Task is the persisted task this message continues, nil for a new one.
	Task *a2a.Task
	// ReferenceTasks are the resolved referenceTaskIds; ids that did not
	// resolve are dropped.
	ReferenceTasks []*a2a.Task

	Call *auth.ServerCallContext
}

// Message returns the user message that triggered this execution.
func (request *RequestContext) Message() *a2a.Message {
	return &request.Params.Message
}
