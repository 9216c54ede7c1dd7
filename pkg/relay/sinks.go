package relay

import (
	"net/http"
	"sync"
)

// ChannelSink buffers relayed chunks in a channel that the HTTP handler
// drains to the client. Write blocks when the buffer is full, so a slow
// consumer applies backpressure to the upstream read.
type ChannelSink struct {
	ch chan []byte

	endOnce  sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// NewChannelSink creates a channel sink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		ch:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Chunks returns the channel the consumer drains. It is closed after
// End or Abort.
func (s *ChannelSink) Chunks() <-chan []byte {
	return s.ch
}

// Close releases the producer when the consumer stops draining early.
// Safe to call at any time and more than once.
func (s *ChannelSink) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Transport returns TransportBuffered.
func (s *ChannelSink) Transport() string {
	return TransportBuffered
}

// Write queues one chunk for the consumer. It returns ErrSinkClosed
// after Close.
func (s *ChannelSink) Write(chunk []byte) error {
	select {
	case s.ch <- chunk:
		return nil
	case <-s.done:
		return ErrSinkClosed
	}
}

// End closes the chunk channel.
func (s *ChannelSink) End() error {
	s.endOnce.Do(func() {
		close(s.ch)
	})
	return nil
}

// Abort queues the error envelope as a final SSE event and closes the
// chunk channel.
func (s *ChannelSink) Abort(env ErrorEnvelope) error {
	defer s.endOnce.Do(func() {
		close(s.ch)
	})
	select {
	case s.ch <- env.SSE():
		return nil
	case <-s.done:
		return ErrSinkClosed
	}
}

// WriterSink writes relayed chunks straight to the client, flushing
// after every write so bytes leave the process as they arrive. Response
// headers are the caller's business and must be sent before the relay
// starts.
type WriterSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriterSink creates a direct sink over the response writer.
func NewWriterSink(w http.ResponseWriter) *WriterSink {
	flusher, _ := w.(http.Flusher)
	return &WriterSink{w: w, flusher: flusher}
}

// Transport returns TransportDirect.
func (s *WriterSink) Transport() string {
	return TransportDirect
}

// Write sends one chunk to the client and flushes it.
func (s *WriterSink) Write(chunk []byte) error {
	if _, err := s.w.Write(chunk); err != nil {
		return err
	}
	s.flush()
	return nil
}

// End flushes any buffered bytes.
func (s *WriterSink) End() error {
	s.flush()
	return nil
}

// Abort sends the error envelope as a final SSE event.
func (s *WriterSink) Abort(env ErrorEnvelope) error {
	if _, err := s.w.Write(env.SSE()); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *WriterSink) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
