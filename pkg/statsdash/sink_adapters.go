package statsdash

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
	ErrChannelSinkClosed = errors.New("statsdash: channel sink closed")
	// ErrChannelSinkFull is returned when the reader has not drained the channel.
	// The update is dropped; the poller never waits on a channel sink.
	ErrChannelSinkFull = errors.New("statsdash: channel sink full")
)

// UpdateSink is invoked with every update a tick produces.
type UpdateSink func(Update) error

// NewCallbackSink adapts an UpdateSink into a full Sink implementation so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn UpdateSink) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes updates via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
func NewChannelSink(name string, buffer int) (Sink, <-chan Update, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Update, buffer)
	s := &channelSink{
		name: name,
		ch:   ch,
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   UpdateSink
}

func (s *callbackSink) Push(u Update) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	if u.Empty() {
		return nil
	}
	return s.fn(u)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.Mutex
	ch     chan Update
	closed bool
}

func (s *channelSink) Push(u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrChannelSinkClosed
	}
	if u.Empty() {
		return nil
	}

	select {
	case s.ch <- u:
		return nil
	default:
		return ErrChannelSinkFull
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
