package llm

import "context"

// StreamEvent is one step of a streamed generation: either a text chunk or
// the error that ended the stream.
type StreamEvent struct {
	Text string
	Err  error
}

// StreamingModel is a minimal abstraction for text-generation providers that
// can stream their output. It hides concrete providers to keep the page
// generator independent of them.
//
// The returned channel is closed when the stream ends. At most one event
// carries a non-nil Err and it is always the last one. Cancelling ctx stops
// the producer and releases the provider connection.
type StreamingModel interface {
	Stream(ctx context.Context, prompt string) (<-chan StreamEvent, error)
}
