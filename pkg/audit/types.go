package audit

import (
	"encoding/json"
	"time"
)

// Entry describes an admin mutation to be recorded. OldValue and NewValue
// may be any JSON-serializable value.
type Entry struct {
	Action     string      `json:"action"`
	EntityID   string      `json:"entityId"`
	EntityType string      `json:"entityType"`
	OldValue   interface{} `json:"oldValue,omitempty"`
	NewValue   interface{} `json:"newValue,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Record is a single audit record as written to a sink. Records are
// append-only; nothing in this package updates or deletes them.
type Record struct {
	ID         int64           `json:"id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Action     string          `json:"action"`
	UserID     string          `json:"userId"`
	UserRole   string          `json:"userRole"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	OldValue   json.RawMessage `json:"oldValue,omitempty"`
	NewValue   json.RawMessage `json:"newValue,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
}

// Filter narrows a query over stored records
type Filter struct {
	Actions    []string
	UserID     string
	EntityType string
	EntityID   string
	Since      *time.Time
	Limit      int
}

// DefaultQueryLimit caps queries that do not set a limit
const DefaultQueryLimit = 100

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

// Matches reports whether r passes every condition in f
func (f Filter) Matches(r *Record) bool {
	if len(f.Actions) > 0 {
		found := false
		for _, action := range f.Actions {
			if r.Action == action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.EntityType != "" && r.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && r.EntityID != f.EntityID {
		return false
	}
	if f.Since != nil && r.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

// Drop reasons reported to the DropRecorder
const (
	DropIdentity      = "identity"
	DropSerialization = "serialization"
	DropSink          = "sink"
	DropPanic         = "panic"
)
