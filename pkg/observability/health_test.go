package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Check(t *testing.T) {
	failing := func(ctx context.Context) error { return errors.New("connection refused") }
	passing := func(ctx context.Context) error { return nil }

	tests := []struct {
		name       string
		setup      func(h *HealthChecker)
		wantStatus string
	}{
		{
			name:       "no dependencies",
			setup:      func(h *HealthChecker) {},
			wantStatus: StatusHealthy,
		},
		{
			name: "all passing",
			setup: func(h *HealthChecker) {
				h.AddCheck("audit_db", passing, true)
				h.AddCheck("identity_provider", passing, false)
			},
			wantStatus: StatusHealthy,
		},
		{
			name: "optional failing",
			setup: func(h *HealthChecker) {
				h.AddCheck("audit_db", passing, true)
				h.AddCheck("identity_provider", failing, false)
			},
			wantStatus: StatusDegraded,
		},
		{
			name: "critical failing",
			setup: func(h *HealthChecker) {
				h.AddCheck("identity_provider", failing, false)
				h.AddCheck("audit_db", failing, true)
			},
			wantStatus: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("1.2.3")
			tt.setup(h)

			status := h.Check(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
		})
	}
}

func TestHealthChecker_DatabasePing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	h := NewHealthChecker("dev")
	h.AddCheck("audit_db", db.PingContext, true)

	mock.ExpectPing().WillReturnError(errors.New("db down"))
	status := h.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Equal(t, "db down", status.Dependencies["audit_db"].Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_Handlers(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthChecker("dev").Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), StatusHealthy)
	})

	t.Run("readiness unhealthy", func(t *testing.T) {
		h := NewHealthChecker("dev")
		h.AddCheck("audit_db", func(ctx context.Context) error { return errors.New("down") }, true)

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
		assert.Equal(t, StatusUnhealthy, status.Status)
	})

	t.Run("readiness degraded is still ready", func(t *testing.T) {
		h := NewHealthChecker("dev")
		h.AddCheck("identity_provider", func(ctx context.Context) error { return errors.New("slow") }, false)

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
