package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

func TestNewDBSink(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_audit_log").WillReturnResult(sqlmock.NewResult(0, 0))

		sink, err := NewDBSink(db)
		require.NoError(t, err)
		assert.NotNil(t, sink)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil database", func(t *testing.T) {
		sink, err := NewDBSink(nil)
		assert.Error(t, err)
		assert.Nil(t, sink)
		assert.Contains(t, err.Error(), "database connection is required")
	})

	t.Run("table creation error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_audit_log").WillReturnError(errors.New("permission denied"))

		sink, err := NewDBSink(db)
		assert.Error(t, err)
		assert.Nil(t, sink)
		assert.Contains(t, err.Error(), "failed to ensure admin_audit_log table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBSink_Write(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		record := &Record{
			Timestamp:  time.Now().UTC(),
			Action:     "game.update",
			UserID:     "user_1",
			UserRole:   "Sports Admin Coordinator",
			EntityID:   "game_9",
			EntityType: "game",
			OldValue:   json.RawMessage(`{"status":"scheduled"}`),
			NewValue:   json.RawMessage(`{"status":"final"}`),
			RequestID:  "req-1",
		}

		mock.ExpectQuery("INSERT INTO admin_audit_log").
			WithArgs(
				sqlmock.AnyArg(), "game.update", "user_1", "Sports Admin Coordinator",
				"game_9", "game", `{"status":"scheduled"}`, `{"status":"final"}`,
				"", "req-1",
			).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

		require.NoError(t, sink.Write(context.Background(), record))
		assert.Equal(t, int64(17), record.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null values", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		record := &Record{Timestamp: time.Now().UTC(), Action: "content.delete", UserID: "user_1"}

		mock.ExpectQuery("INSERT INTO admin_audit_log").
			WithArgs(
				sqlmock.AnyArg(), "content.delete", "user_1", "",
				"", "", nil, nil,
				"", "",
			).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(18))

		require.NoError(t, sink.Write(context.Background(), record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("postgres error is described", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		mock.ExpectQuery("INSERT INTO admin_audit_log").
			WillReturnError(&pq.Error{Code: "42P01", Message: `relation "admin_audit_log" does not exist`})

		err := sink.Write(context.Background(), &Record{Action: "game.update", UserID: "u"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert audit record")
		assert.Contains(t, err.Error(), "undefined table")

		var pqErr *pq.Error
		assert.True(t, errors.As(err, &pqErr))
	})
}

func TestDBSink_Query(t *testing.T) {
	t.Run("with filters", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		columns := []string{
			"id", "timestamp", "action", "user_id", "user_role",
			"entity_id", "entity_type", "old_value", "new_value",
			"reason", "request_id",
		}
		rows := sqlmock.NewRows(columns).
			AddRow(int64(2), ts, "game.update", "user_1", "Sports Admin Coordinator",
				"game_9", "game", nil, []byte(`{"status":"final"}`), nil, "req-2").
			AddRow(int64(1), ts.Add(-time.Hour), "game.create", "user_1", nil,
				"game_9", "game", nil, nil, "import", nil)

		mock.ExpectQuery("SELECT (.+) FROM admin_audit_log").
			WithArgs(pq.Array([]string{"game.update", "game.create"}), "user_1", "game", 50).
			WillReturnRows(rows)

		records, err := sink.Query(context.Background(), Filter{
			Actions:    []string{"game.update", "game.create"},
			UserID:     "user_1",
			EntityType: "game",
			Limit:      50,
		})
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(2), records[0].ID)
		assert.Equal(t, "Sports Admin Coordinator", records[0].UserRole)
		assert.Nil(t, records[0].OldValue)
		assert.JSONEq(t, `{"status":"final"}`, string(records[0].NewValue))
		assert.Equal(t, "req-2", records[0].RequestID)

		assert.Empty(t, records[1].UserRole)
		assert.Equal(t, "import", records[1].Reason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("default limit", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		mock.ExpectQuery("SELECT (.+) FROM admin_audit_log").
			WithArgs(DefaultQueryLimit).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		records, err := sink.Query(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		sink := &DBSink{db: db}
		mock.ExpectQuery("SELECT (.+) FROM admin_audit_log").WillReturnError(errors.New("connection reset"))

		_, err := sink.Query(context.Background(), Filter{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query audit records")
	})
}

func TestDBSink_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	sink := &DBSink{db: db}
	mock.ExpectPing()
	assert.NoError(t, sink.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, sink.Ping(context.Background()))
}
