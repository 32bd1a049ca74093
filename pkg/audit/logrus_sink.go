package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusSink writes each record as one structured log line
type LogrusSink struct {
	logger logrus.FieldLogger
}

// NewLogrusSink creates a sink over logger
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{logger: logger}
}

// Write logs the record at info level
func (s *LogrusSink) Write(ctx context.Context, record *Record) error {
	fields := logrus.Fields{
		"audit":       true,
		"timestamp":   record.Timestamp,
		"action":      record.Action,
		"user_id":     record.UserID,
		"user_role":   record.UserRole,
		"entity_id":   record.EntityID,
		"entity_type": record.EntityType,
	}
	if len(record.OldValue) > 0 {
		fields["old_value"] = string(record.OldValue)
	}
	if len(record.NewValue) > 0 {
		fields["new_value"] = string(record.NewValue)
	}
	if record.Reason != "" {
		fields["reason"] = record.Reason
	}
	if record.RequestID != "" {
		fields["request_id"] = record.RequestID
	}

	s.logger.WithFields(fields).Info("admin action")
	return nil
}

// Close is a no-op
func (s *LogrusSink) Close() error {
	return nil
}
