package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/csnsports/csn-admin/pkg/auth"
	"github.com/csnsports/csn-admin/pkg/contextkeys"
)

// Sink is a destination for audit records
type Sink interface {
	Write(ctx context.Context, record *Record) error
	Close() error
}

// Reader is implemented by sinks that can be queried
type Reader interface {
	Query(ctx context.Context, filter Filter) ([]*Record, error)
}

// Recorder receives write and drop counts. observability.Metrics implements it.
type Recorder interface {
	RecordAuditWritten()
	RecordAuditDropped(reason string)
}

// ActionLogger records admin mutations on a best-effort basis.
//
// LogAction is at-most-once and fire-and-forget: a record that cannot be
// attributed, serialized or written is dropped, counted and logged at debug.
// It never returns an error and never panics, so a failing audit path cannot
// fail the mutation that triggered it.
type ActionLogger struct {
	resolver *auth.Resolver
	sink     Sink
	logger   logrus.FieldLogger
	recorder Recorder
	now      func() time.Time
}

// Option configures an ActionLogger
type Option func(*ActionLogger)

// WithLogger sets the logger used for drop messages
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *ActionLogger) {
		l.logger = logger
	}
}

// WithRecorder sets the write/drop recorder
func WithRecorder(recorder Recorder) Option {
	return func(l *ActionLogger) {
		l.recorder = recorder
	}
}

// NewActionLogger creates an action logger. A nil sink logs to the process
// logger.
func NewActionLogger(resolver *auth.Resolver, sink Sink, opts ...Option) *ActionLogger {
	l := &ActionLogger{
		resolver: resolver,
		sink:     sink,
		logger:   logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		l.sink = NewLogrusSink(l.logger)
	}
	return l
}

// LogAction records entry on behalf of the current caller
func (l *ActionLogger) LogAction(ctx context.Context, entry Entry) {
	if l == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.drop(entry, DropPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	identity, err := l.resolver.Resolve(ctx)
	if err != nil {
		l.drop(entry, DropIdentity, err)
		return
	}

	record, err := l.buildRecord(ctx, identity, entry)
	if err != nil {
		l.drop(entry, DropSerialization, err)
		return
	}

	if err := l.sink.Write(ctx, record); err != nil {
		l.drop(entry, DropSink, err)
		return
	}

	if l.recorder != nil {
		l.recorder.RecordAuditWritten()
	}
}

func (l *ActionLogger) buildRecord(ctx context.Context, identity *auth.Identity, entry Entry) (*Record, error) {
	oldValue, err := marshalValue(entry.OldValue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal old value: %w", err)
	}
	newValue, err := marshalValue(entry.NewValue)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal new value: %w", err)
	}

	// only a validated role is recorded
	var userRole string
	if identity.AdminRole.Valid() {
		userRole = string(identity.AdminRole.Role)
	}

	return &Record{
		Timestamp:  l.now().UTC(),
		Action:     entry.Action,
		UserID:     identity.UserID,
		UserRole:   userRole,
		EntityID:   entry.EntityID,
		EntityType: entry.EntityType,
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     entry.Reason,
		RequestID:  contextkeys.GetRequestID(ctx),
	}, nil
}

func marshalValue(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (l *ActionLogger) drop(entry Entry, reason string, err error) {
	if l.recorder != nil {
		l.recorder.RecordAuditDropped(reason)
	}
	l.logger.WithFields(logrus.Fields{
		"action":      entry.Action,
		"entity_type": entry.EntityType,
		"entity_id":   entry.EntityID,
		"reason":      reason,
	}).WithError(err).Debug("audit record dropped")
}

// Close closes the underlying sink
func (l *ActionLogger) Close() error {
	return l.sink.Close()
}
