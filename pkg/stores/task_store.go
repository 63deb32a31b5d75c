package stores

import (
	"context"
	"sync"

	"github.com/agentwire/a2a/pkg/a2a"
	"github.com/agentwire/a2a/pkg/errors"
)

/*
TaskStore persists tasks between requests. Load returns (nil, nil) for an
unknown id so callers can distinguish absence from storage failure.
*/
type TaskStore interface {
	Save(ctx context.Context, task *a2a.Task) *errors.RpcError
	Load(ctx context.Context, taskID string) (*a2a.Task, *errors.RpcError)
}

/*
InMemoryTaskStore keeps tasks in a mutex-guarded map. Tasks are cloned on
the way in and on the way out, so callers can never mutate stored state
through a shared pointer.
*/
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*a2a.Task),
	}
}

func (store *InMemoryTaskStore) Save(ctx context.Context, task *a2a.Task) *errors.RpcError {
	if task == nil || task.ID == "" {
		return errors.ErrInternal.WithMessagef("cannot save a task without an id")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	store.tasks[task.ID] = task.Clone()
	return nil
}

func (store *InMemoryTaskStore) Load(ctx context.Context, taskID string) (*a2a.Task, *errors.RpcError) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	task, found := store.tasks[taskID]
	if !found {
		return nil, nil
	}

	return task.Clone(), nil
}
