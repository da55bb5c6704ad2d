package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus is the untyped publish/subscribe contract used by the dispatch
// manager and the metrics collector.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus.
type Bus = TypedBus[Event]

// New creates a Bus with the default subscriber buffer.
func New() *Bus { return NewTyped[Event](DefaultBuffer) }
