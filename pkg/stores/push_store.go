package stores

import (
	"sync"

	"github.com/agentwire/a2a/pkg/a2a"
)

/*
PushNotificationStore keeps the webhook registrations of each task. A task
can carry several configs, distinguished by config id; saving a config
whose id is already present replaces it.
*/
type PushNotificationStore interface {
	Save(taskID string, config a2a.PushNotificationConfig)
	Load(taskID string) []a2a.PushNotificationConfig
	Delete(taskID string, configID string)
}

// InMemoryPushNotificationStore is a mutex-guarded in-memory
// PushNotificationStore.
type InMemoryPushNotificationStore struct {
	mu      sync.RWMutex
	configs map[string][]a2a.PushNotificationConfig
}

func NewInMemoryPushNotificationStore() *InMemoryPushNotificationStore {
	return &InMemoryPushNotificationStore{
		configs: make(map[string][]a2a.PushNotificationConfig),
	}
}

func (store *InMemoryPushNotificationStore) Save(taskID string, config a2a.PushNotificationConfig) {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing := store.configs[taskID]
	for idx, candidate := range existing {
		if candidate.ID == config.ID {
			existing[idx] = config
			return
		}
	}

	store.configs[taskID] = append(existing, config)
}

// Load returns the configs of a task in registration order. Unknown tasks
// yield an empty slice.
func (store *InMemoryPushNotificationStore) Load(taskID string) []a2a.PushNotificationConfig {
	store.mu.RLock()
	defer store.mu.RUnlock()

	existing := store.configs[taskID]
	out := make([]a2a.PushNotificationConfig, len(existing))
	copy(out, existing)
	return out
}

func (store *InMemoryPushNotificationStore) Delete(taskID string, configID string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing := store.configs[taskID]
	for idx, candidate := range existing {
		if candidate.ID == configID {
			store.configs[taskID] = append(existing[:idx], existing[idx+1:]...)
			break
		}
	}

	if len(store.configs[taskID]) == 0 {
		delete(store.configs, taskID)
	}
}
