package eventbus

import (
	"sync"

	"github.com/agentwire/a2a/pkg/a2a"
)

/*
Bus multicasts the events of a single task execution to any number of
consumer queues. One producer (the agent executor) publishes events in
order and closes the bus with Finished; consumers attach a Queue each and
receive every event published after they attached, in publish order.

Delivery is lossless: Publish blocks on a full queue until the consumer
drains it or stops, so the producer can never outrun a live consumer.
*/
type Bus struct {
	mu     sync.Mutex
	queues map[*Queue]struct{}
	done   bool
	// inflight counts publishes that passed the done check and may still
	// be sending; Finished waits for them before closing any channel.
	inflight sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{
		queues: make(map[*Queue]struct{}),
	}
}

/*
Attach registers a new consumer queue. Attaching to a finished bus returns
a queue whose Events channel is already closed, so late consumers observe
an immediate end-of-stream instead of blocking forever.
*/
func (bus *Bus) Attach() *Queue {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	queue := newQueue(bus)

	if bus.done {
		close(queue.ch)
		return queue
	}

	bus.queues[queue] = struct{}{}
	return queue
}

/*
Publish delivers an event to every attached queue. It blocks on queues
that are full and gives up on a queue only when its consumer stops it.
Publishing to a finished bus drops the event.
*/
func (bus *Bus) Publish(event a2a.Event) {
	bus.mu.Lock()

	if bus.done {
		bus.mu.Unlock()
		return
	}

	bus.inflight.Add(1)
	defer bus.inflight.Done()

	subscribers := make([]*Queue, 0, len(bus.queues))
	for queue := range bus.queues {
		subscribers = append(subscribers, queue)
	}

	bus.mu.Unlock()

	for _, queue := range subscribers {
		select {
		case queue.ch <- event:
		case <-queue.quit:
		}
	}
}

/*
Finished marks the end of the event stream and closes every attached
queue's Events channel. It must be called by the producer after its last
Publish; calling it again is a no-op.

Publishes already in flight on another goroutine are allowed to finish
before any channel closes, so a concurrent Publish can never hit a closed
channel. New publishes see the done flag and drop their event.
*/
func (bus *Bus) Finished() {
	bus.mu.Lock()

	if bus.done {
		bus.mu.Unlock()
		return
	}

	bus.done = true
	bus.mu.Unlock()

	// In-flight publishes may be blocked on a full queue; their consumers
	// keep draining, so this wait terminates.
	bus.inflight.Wait()

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for queue := range bus.queues {
		close(queue.ch)
		delete(bus.queues, queue)
	}
}

// Done reports whether Finished has been called.
func (bus *Bus) Done() bool {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.done
}

func (bus *Bus) detach(queue *Queue) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if _, attached := bus.queues[queue]; !attached {
		return
	}

	delete(bus.queues, queue)
	close(queue.quit)
}
