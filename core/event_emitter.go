package orchestration

import "github.com/koscakluka/ema-chat/core/events"

type eventEmitter struct {
	ch      chan events.Event
	handler func(events.Event)
	dropped int
}

func newEventEmitter(buffer int, handler func(events.Event)) *eventEmitter {
	return &eventEmitter{
		ch:      make(chan events.Event, buffer),
		handler: handler,
	}
}

func (e *eventEmitter) emit(event events.Event) {
	if e.handler != nil {
		e.handler(event)
	}

	select {
	case e.ch <- event:
	default:
		e.dropped++
		logger.Warn("event buffer full, dropping event", "kind", event.Kind(), "dropped", e.dropped)
	}
}

func (e *eventEmitter) close() {
	close(e.ch)
}
