package statsdash

import (
	"errors"
	"testing"
	"time"
)

func sampleUpdate(tick uint64) Update {
	return Update{
		Tick:   tick,
		Points: []Point{{Key: "online_nodes", Sample: Sample{Timestamp: time.Unix(1, 0), Value: 4}}},
		Texts:  []Text{{Key: "tps", Value: "1.00"}},
	}
}

func TestNewCallbackSink(t *testing.T) {
	var received []Update
	sink := NewCallbackSink("cb", func(u Update) error {
		received = append(received, u)
		return nil
	})

	if err := sink.Push(sampleUpdate(1)); err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if err := sink.Push(Update{Tick: 2}); err != nil {
		t.Fatalf("Push of empty update returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 update, got %d", len(received))
	}
	if received[0].Tick != 1 || received[0].Points[0].Value != 4 {
		t.Fatalf("mismatched update payload: %+v", received[0])
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected name %q", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Push(sampleUpdate(1)); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %q", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	if err := sink.Push(sampleUpdate(1)); err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if err := sink.Push(sampleUpdate(2)); !errors.Is(err, ErrChannelSinkFull) {
		t.Fatalf("expected ErrChannelSinkFull, got %v", err)
	}

	select {
	case u := <-ch:
		if u.Tick != 1 {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel update")
	}

	closeFn()
	if err := sink.Push(sampleUpdate(3)); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}
