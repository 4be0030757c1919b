// Package sink persists received spikes and network decisions. Each sink
// is an independent backend; Multi fans writes out to all of them.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/snn"
)

// Sink receives spikes in arrival order plus the decision snapshot the
// network produces after each spike.
type Sink interface {
	WriteSpike(ctx context.Context, r protocol.SpikeRecord, received time.Time) error
	WriteDecisions(ctx context.Context, decs []snn.Decision, received time.Time) error
	Close() error
}

// Multi writes to every sink in order and reports the joined errors. One
// failing backend does not stop the others.
type Multi []Sink

func (m Multi) WriteSpike(ctx context.Context, r protocol.SpikeRecord, received time.Time) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteSpike(ctx, r, received); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) WriteDecisions(ctx context.Context, decs []snn.Decision, received time.Time) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteDecisions(ctx, decs, received); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
