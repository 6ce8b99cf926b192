package sink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every charted point to <subject>.samples.<key> and every text
// display to <subject>.texts.<key>.
type NATSSink struct {
	pub     Publisher
	subject string
}

func NewNATSSink(pub Publisher, subject string) *NATSSink {
	if subject == "" {
		subject = "statsdash"
	}
	return &NATSSink{pub: pub, subject: subject}
}

// DialNATS connects to url with the options the dashboard relies on.
func DialNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

func (n *NATSSink) Name() string { return "nats" }

func (n *NATSSink) Push(u domain.Update) error {
	var errs []error
	for _, p := range u.Points {
		data, err := json.Marshal(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := n.pub.Publish(n.subject+".samples."+p.Key, data); err != nil {
			errs = append(errs, err)
		}
	}
	for _, t := range u.Texts {
		if err := n.pub.Publish(n.subject+".texts."+t.Key, []byte(t.Value)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.Sink = (*NATSSink)(nil)
var _ Publisher = (*nats.Conn)(nil)
