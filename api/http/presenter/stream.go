package presenter

import (
	"context"
	"io"
	"sync"

	"github.com/artem13815/pagegen/pkg/llm"
)

// ChunkReader exposes a model event stream as a response body. Each Read
// pulls at most one event, so the client's pace drives the producer.
//
// A stream error is returned from Read instead of io.EOF. The chunked body
// is then aborted without its terminating chunk and the client sees a
// truncated response rather than a complete one.
type ChunkReader struct {
	events <-chan llm.StreamEvent
	cancel context.CancelFunc
	buf    []byte
	err    error
	chunks int
	once   sync.Once

	// OnDone, if set, is called exactly once when the stream ends: with nil
	// after a complete stream, with the stream error after a failure, or
	// with context.Canceled when the body is closed early.
	OnDone func(chunks int, err error)
}

// NewChunkReader wraps events. first holds text already taken from the
// stream and is served before anything else. cancel releases the producer
// and is called on Close.
func NewChunkReader(first []byte, events <-chan llm.StreamEvent, cancel context.CancelFunc) *ChunkReader {
	r := &ChunkReader{events: events, cancel: cancel, buf: first}
	if len(first) > 0 {
		r.chunks = 1
	}
	return r
}

func (r *ChunkReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		ev, ok := <-r.events
		switch {
		case !ok:
			r.err = io.EOF
			r.finish(nil)
		case ev.Err != nil:
			r.err = ev.Err
			r.finish(ev.Err)
		default:
			r.buf = []byte(ev.Text)
			r.chunks++
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Close abandons the stream. It is safe to call more than once and after
// the stream has ended.
func (r *ChunkReader) Close() error {
	r.finish(context.Canceled)
	r.cancel()
	return nil
}

func (r *ChunkReader) finish(err error) {
	r.once.Do(func() {
		if r.OnDone != nil {
			r.OnDone(r.chunks, err)
		}
	})
}
