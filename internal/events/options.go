package events

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		if topic != "" {
			e.topic = topic
		}
	}
}

// WithBufferSize bounds the number of pending events. Zero means unbounded.
func WithBufferSize(size int) ProducerOptions {
	return func(e *EventProducer) {
		e.buffer.maxSize = size
	}
}
