package eventbus

import "sync"

/*
Manager tracks the live Bus of each running task, keyed by task id. A task
has at most one bus at a time; once its execution finishes and every
consumer has detached, Cleanup removes the entry so resubscribers fall
back to the task store.
*/
type Manager struct {
	mu    sync.Mutex
	buses map[string]*Bus
}

func NewManager() *Manager {
	return &Manager{
		buses: make(map[string]*Bus),
	}
}

// CreateOrGet returns the live bus for a task, creating one when the task
// has none.
func (manager *Manager) CreateOrGet(taskID string) *Bus {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	if bus, found := manager.buses[taskID]; found {
		return bus
	}

	bus := NewBus()
	manager.buses[taskID] = bus
	return bus
}

// Get returns the live bus for a task, if any.
func (manager *Manager) Get(taskID string) (*Bus, bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	bus, found := manager.buses[taskID]
	return bus, found
}

// Cleanup forgets the bus of a task. The bus itself keeps working for
// consumers that are still attached.
func (manager *Manager) Cleanup(taskID string) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	delete(manager.buses, taskID)
}
