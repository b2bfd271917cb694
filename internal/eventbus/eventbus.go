// Package eventbus provides a small in-process publish/subscribe bus used to
// stream forecast results to embedders.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation, a TypedBus over untyped events.
type Bus struct {
	TypedBus[Event]
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }
