package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// DBSink writes records to the admin_audit_log table in PostgreSQL
type DBSink struct {
	db *sql.DB
}

// NewDBSink creates a database sink and ensures its table exists
func NewDBSink(db *sql.DB) (*DBSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	sink := &DBSink{db: db}
	if err := sink.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure admin_audit_log table: %w", err)
	}

	return sink, nil
}

func (s *DBSink) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS admin_audit_log (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		action VARCHAR(100) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		user_role VARCHAR(100),
		entity_id VARCHAR(255),
		entity_type VARCHAR(100),
		old_value JSONB,
		new_value JSONB,
		reason TEXT,
		request_id VARCHAR(100),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_admin_audit_log_timestamp ON admin_audit_log(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_admin_audit_log_action ON admin_audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_admin_audit_log_user_id ON admin_audit_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_admin_audit_log_entity ON admin_audit_log(entity_type, entity_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Write inserts the record and sets its ID
func (s *DBSink) Write(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO admin_audit_log (
			timestamp, action, user_id, user_role,
			entity_id, entity_type, old_value, new_value,
			reason, request_id
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10
		) RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		record.Timestamp, record.Action, record.UserID, record.UserRole,
		record.EntityID, record.EntityType, nullJSON(record.OldValue), nullJSON(record.NewValue),
		record.Reason, record.RequestID,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", describePQError(err))
	}

	return nil
}

// Query returns matching records, newest first
func (s *DBSink) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `
		SELECT id, timestamp, action, user_id, user_role,
			entity_id, entity_type, old_value, new_value,
			reason, request_id
		FROM admin_audit_log
		WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if len(filter.Actions) > 0 {
		query += fmt.Sprintf(" AND action = ANY($%d)", argCount)
		args = append(args, pq.Array(filter.Actions))
		argCount++
	}

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filter.UserID)
		argCount++
	}

	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", argCount)
		args = append(args, filter.EntityType)
		argCount++
	}

	if filter.EntityID != "" {
		query += fmt.Sprintf(" AND entity_id = $%d", argCount)
		args = append(args, filter.EntityID)
		argCount++
	}

	if filter.Since != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argCount)
		args = append(args, *filter.Since)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", argCount)
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", describePQError(err))
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			record             Record
			userRole, entityID sql.NullString
			entityType, reason sql.NullString
			requestID          sql.NullString
			oldValue, newValue []byte
		)
		if err := rows.Scan(
			&record.ID, &record.Timestamp, &record.Action, &record.UserID, &userRole,
			&entityID, &entityType, &oldValue, &newValue,
			&reason, &requestID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		record.UserRole = userRole.String
		record.EntityID = entityID.String
		record.EntityType = entityType.String
		record.Reason = reason.String
		record.RequestID = requestID.String
		record.OldValue = oldValue
		record.NewValue = newValue
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}

	return records, nil
}

// Ping checks the database connection
func (s *DBSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the caller owns the *sql.DB
func (s *DBSink) Close() error {
	return nil
}

func nullJSON(v []byte) interface{} {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}

// describePQError adds the PostgreSQL condition name to driver errors
func describePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	name := strings.ReplaceAll(pqErr.Code.Name(), "_", " ")
	return fmt.Errorf("%s: %w", name, err)
}
