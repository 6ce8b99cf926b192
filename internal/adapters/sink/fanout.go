package sink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// Fanout pushes each update to every sink in order. A failing sink does not stop the
// others from receiving the update.
type Fanout struct {
	sinks []ports.Sink
}

func NewFanout(sinks ...ports.Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		f.Add(s)
	}
	return f
}

func (f *Fanout) Add(s ports.Sink) {
	if s != nil {
		f.sinks = append(f.sinks, s)
	}
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Name() string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return "fanout(" + strings.Join(names, ",") + ")"
}

func (f *Fanout) Push(u domain.Update) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Push(u); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

var _ ports.Sink = (*Fanout)(nil)
