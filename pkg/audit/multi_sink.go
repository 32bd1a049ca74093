package audit

import (
	"context"
	"errors"
)

// MultiSink writes each record to several sinks
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that fans out to sinks in order
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write writes to every sink, continuing past failures, and returns the
// first error
func (m *MultiSink) Write(ctx context.Context, record *Record) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Query delegates to the first sink that can be queried
func (m *MultiSink) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	for _, sink := range m.sinks {
		if reader, ok := sink.(Reader); ok {
			return reader.Query(ctx, filter)
		}
	}
	return nil, ErrNotQueryable
}

// Close closes every sink
func (m *MultiSink) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ErrNotQueryable is returned when no configured sink supports queries
var ErrNotQueryable = errors.New("audit: sink does not support queries")
