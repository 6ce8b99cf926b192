package sink

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/netcriptus/raiden-services/internal/domain"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return f.err
}

func TestNATSSinkPublishesPointsAndTexts(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewNATSSink(pub, "pfs")
	ts := time.Unix(1700000000, 0).UTC()

	err := sink.Push(domain.Update{
		Tick:   1,
		Points: []domain.Point{{Key: "online_nodes", Sample: domain.Sample{Timestamp: ts, Value: 3}}},
		Texts:  []domain.Text{{Key: "tps", Value: "1.67"}},
	})
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	if len(pub.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.msgs))
	}
	if pub.msgs[0].subject != "pfs.samples.online_nodes" {
		t.Fatalf("unexpected subject %s", pub.msgs[0].subject)
	}
	var p domain.Point
	if err := json.Unmarshal(pub.msgs[0].data, &p); err != nil {
		t.Fatalf("decode point: %v", err)
	}
	if p.Key != "online_nodes" || p.Value != 3 || !p.Timestamp.Equal(ts) {
		t.Fatalf("unexpected point payload: %+v", p)
	}
	if pub.msgs[1].subject != "pfs.texts.tps" || string(pub.msgs[1].data) != "1.67" {
		t.Fatalf("unexpected text message: %s %s", pub.msgs[1].subject, pub.msgs[1].data)
	}
}

func TestNATSSinkJoinsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	sink := NewNATSSink(pub, "")

	err := sink.Push(domain.Update{Texts: []domain.Text{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}})
	if err == nil {
		t.Fatalf("expected publish errors to be returned")
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("expected every message to be attempted, got %d", len(pub.msgs))
	}
	if pub.msgs[0].subject != "statsdash.texts.a" {
		t.Fatalf("expected default subject prefix, got %s", pub.msgs[0].subject)
	}
}
