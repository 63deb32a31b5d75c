package result

import (
	"context"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/errors"
	"github.com/agentwire/a2a/pkg/stores"
)

/*
Manager folds the event stream of one request into a consistent task
snapshot, persisting after every event so a crash between events loses at
most the event in flight. A direct Message ends the fold with a message
result instead of a task.
*/
type Manager struct {
	store   stores.TaskStore
	task    *a2a.Task
	message *a2a.Message
}

func NewManager(store stores.TaskStore) *Manager {
	return &Manager{store: store}
}

// NewManagerWithTask seeds the fold with an already-persisted task, as
// happens when a request continues an existing task.
func NewManagerWithTask(store stores.TaskStore, task *a2a.Task) *Manager {
	return &Manager{store: store, task: task}
}

/*
Process applies one event to the accumulated state and persists the
result. Status and artifact updates arriving before any Task event are
rejected, since there is nothing to apply them to.
*/
func (manager *Manager) Process(ctx context.Context, event a2a.Event) *errors.RpcError {
	switch event := event.(type) {
	case *a2a.Message:
		return manager.processMessage(ctx, event)
	case *a2a.Task:
		return manager.processTask(ctx, event)
	case *a2a.TaskStatusUpdateEvent:
		return manager.processStatusUpdate(ctx, event)
	case *a2a.TaskArtifactUpdateEvent:
		return manager.processArtifactUpdate(ctx, event)
	default:
		return errors.ErrInvalidAgentResponse.WithMessagef("unexpected event kind %q", event.EventKind())
	}
}

func (manager *Manager) processMessage(ctx context.Context, message *a2a.Message) *errors.RpcError {
	if manager.task == nil {
		manager.message = message
		return nil
	}

	manager.task.AddMessage(*message)
	return manager.save(ctx)
}

func (manager *Manager) processTask(ctx context.Context, task *a2a.Task) *errors.RpcError {
	incoming := task.Clone()

	// A task snapshot without history keeps what earlier events built up.
	if manager.task != nil && len(incoming.History) == 0 {
		incoming.History = manager.task.History
	}

	manager.task = incoming
	return manager.save(ctx)
}

func (manager *Manager) processStatusUpdate(ctx context.Context, update *a2a.TaskStatusUpdateEvent) *errors.RpcError {
	if manager.task == nil {
		return errors.ErrInvalidAgentResponse.WithMessagef(
			"status update for task %s arrived before the task itself", update.TaskID,
		)
	}

	if update.Status.Message != nil {
		manager.task.AddMessage(*update.Status.Message)
	}

	manager.task.Status = update.Status
	return manager.save(ctx)
}

func (manager *Manager) processArtifactUpdate(ctx context.Context, update *a2a.TaskArtifactUpdateEvent) *errors.RpcError {
	if manager.task == nil {
		return errors.ErrInvalidAgentResponse.WithMessagef(
			"artifact update for task %s arrived before the task itself", update.TaskID,
		)
	}

	appendParts := update.Append != nil && *update.Append

	for idx, artifact := range manager.task.Artifacts {
		if artifact.ArtifactID != update.Artifact.ArtifactID {
			continue
		}

		if appendParts {
			manager.task.Artifacts[idx].Parts = append(artifact.Parts, update.Artifact.Parts...)
		} else {
			manager.task.Artifacts[idx] = update.Artifact
		}

		return manager.save(ctx)
	}

	manager.task.Artifacts = append(manager.task.Artifacts, update.Artifact)
	return manager.save(ctx)
}

func (manager *Manager) save(ctx context.Context) *errors.RpcError {
	if manager.store == nil || manager.task == nil {
		return nil
	}
	return manager.store.Save(ctx, manager.task)
}

// CurrentTask returns the task built so far, or nil when the stream only
// produced a message.
func (manager *Manager) CurrentTask() *a2a.Task {
	return manager.task
}

/*
FinalResult returns what the caller of a blocking send should receive: the
direct message when the agent answered with one, otherwise the final task
snapshot. It returns nil when no event was processed at all.
*/
func (manager *Manager) FinalResult() a2a.Event {
	if manager.message != nil {
		return manager.message
	}
	if manager.task != nil {
		return manager.task
	}
	return nil
}
