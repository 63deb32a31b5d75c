package eventbus

import (
	"github.com/agentwire/a2a/pkg/a2a"
)

// defaultQueueSize is the buffer each consumer queue starts with. A full
// buffer makes Publish block, so a slow consumer slows the producer down
// instead of losing events.
const defaultQueueSize = 256

/*
Queue is one consumer's view of a Bus. Events arrive in publish order on
Events(); the channel closes when the producer calls Finished or the
consumer calls Stop.
*/
type Queue struct {
	bus  *Bus
	ch   chan a2a.Event
	quit chan struct{}
}

func newQueue(bus *Bus) *Queue {
	return &Queue{
		bus:  bus,
		ch:   make(chan a2a.Event, defaultQueueSize),
		quit: make(chan struct{}),
	}
}

// Events returns the channel events are delivered on. The channel closing
// means no further events will arrive.
func (queue *Queue) Events() <-chan a2a.Event {
	return queue.ch
}

/*
Stop detaches the queue from its bus and unblocks any Publish currently
waiting on it. Calling Stop more than once is safe.
*/
func (queue *Queue) Stop() {
	queue.bus.detach(queue)
}
