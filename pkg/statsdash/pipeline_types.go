package statsdash

import (
	"github.com/netcriptus/raiden-services/internal/app/store"
	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

// Update is everything one successful tick produced.
type Update = domain.Update

// Point is a charted sample tagged with its metric key.
type Point = domain.Point

// Sample is a single (timestamp, value) observation.
type Sample = domain.Sample

// Text is the latest value of a text display.
type Text = domain.Text

// PollStats summarises poller health.
type PollStats = domain.PollStats

// PollResult is the decoded body of one stats response.
type PollResult = domain.PollResult

// Snapshot is a read-only copy of every window and text display.
type Snapshot = store.Snapshot

// Fetcher retrieves one stats response per tick. Swap it to poll something other than HTTP.
type Fetcher = ports.Fetcher

// Sink receives one Update per successful tick.
type Sink = ports.Sink

// Observability emits logs and metrics about polling.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field
