package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(action, userID string) *Record {
	return &Record{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		UserID:     userID,
		UserRole:   "System Administrator",
		EntityID:   "e1",
		EntityType: "game",
		NewValue:   json.RawMessage(`{"score":"2-1"}`),
	}
}

func TestNewFileSink(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "audit")
		sink, err := NewFileSink(FileSinkConfig{Dir: dir})
		require.NoError(t, err)
		defer sink.Close()

		_, err = os.Stat(sink.Path())
		assert.NoError(t, err)
		assert.Equal(t, int64(100*1024*1024), sink.maxSize)
		assert.Equal(t, 10, sink.maxFiles)
	})

	t.Run("directory required", func(t *testing.T) {
		_, err := NewFileSink(FileSinkConfig{})
		assert.Error(t, err)
	})
}

func TestFileSink_WriteAndRead(t *testing.T) {
	sink, err := NewFileSink(FileSinkConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u1")))
	require.NoError(t, sink.Write(ctx, testRecord("blog.update", "u2")))
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u3")))

	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)

	records, err := ReadRecords(sink.Path(), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "u1", records[0].UserID)
	assert.JSONEq(t, `{"score":"2-1"}`, string(records[0].NewValue))

	records, err = ReadRecords(sink.Path(), 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFileSink_Query(t *testing.T) {
	sink, err := NewFileSink(FileSinkConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	for _, r := range []*Record{
		testRecord("game.update", "u1"),
		testRecord("blog.update", "u2"),
		testRecord("game.update", "u3"),
	} {
		require.NoError(t, sink.Write(ctx, r))
	}

	records, err := sink.Query(ctx, Filter{Actions: []string{"game.update"}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u3", records[0].UserID, "newest first")
	assert.Equal(t, "u1", records[1].UserID)

	records, err = sink.Query(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u3", records[0].UserID)

	records, err = sink.Query(ctx, Filter{UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "blog.update", records[0].Action)
}

func TestFileSink_Rotation(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileSinkConfig{Dir: dir, Rotate: true, MaxSize: 1, MaxFiles: 2})
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Write(ctx, testRecord("game.update", "u1")))
	}

	rotated, err := sink.RotatedFiles()
	require.NoError(t, err)
	assert.Len(t, rotated, 2, "only MaxFiles rotated files are kept")

	records, err := ReadRecords(sink.Path(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFileSink_RotationFailureKeepsWriting(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(FileSinkConfig{Dir: dir, Rotate: true, MaxSize: 1, MaxFiles: 2})
	require.NoError(t, err)
	defer sink.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	// a non-empty directory at the rotation target makes the rename fail
	blocked := filepath.Join(dir, "audit-"+fixed.Format(rotatedTimestamp)+".log")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "keep"), 0755))

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u1")))
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u2")))
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u3")))

	records, err := ReadRecords(sink.Path(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 3, "records stay in the current file while rotation fails")

	require.NoError(t, os.RemoveAll(blocked))
	require.NoError(t, sink.Write(ctx, testRecord("game.update", "u4")))

	records, err = ReadRecords(sink.Path(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u4", records[0].UserID)

	rotated, err := sink.RotatedFiles()
	require.NoError(t, err)
	assert.Len(t, rotated, 1)
}

func TestFileSink_QueryIncludesRotatedFiles(t *testing.T) {
	sink, err := NewFileSink(FileSinkConfig{Dir: t.TempDir(), Rotate: true, MaxSize: 1, MaxFiles: 10})
	require.NoError(t, err)
	defer sink.Close()

	ctx := context.Background()
	for _, user := range []string{"u1", "u2", "u3", "u4"} {
		require.NoError(t, sink.Write(ctx, testRecord("game.update", user)))
	}

	rotated, err := sink.RotatedFiles()
	require.NoError(t, err)
	require.Len(t, rotated, 3)

	records, err := sink.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "u4", records[0].UserID, "newest first")
	assert.Equal(t, "u3", records[1].UserID)
	assert.Equal(t, "u1", records[3].UserID)

	records, err = sink.Query(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "u3", records[1].UserID)

	records, err = sink.Query(ctx, Filter{UserID: "u2"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u2", records[0].UserID)
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	sink, err := NewFileSink(FileSinkConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.Write(context.Background(), testRecord("game.update", "u1"))
	assert.ErrorIs(t, err, ErrSinkClosed)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "missing.log"), 0)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.log")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0644))
	_, err = ReadRecords(path, 0)
	assert.Error(t, err)
}

func TestFilter_Matches(t *testing.T) {
	since := time.Now().Add(-time.Minute)
	record := testRecord("game.update", "u1")

	assert.True(t, Filter{}.Matches(record))
	assert.True(t, Filter{Actions: []string{"blog.update", "game.update"}}.Matches(record))
	assert.False(t, Filter{Actions: []string{"blog.update"}}.Matches(record))
	assert.True(t, Filter{EntityType: "game", EntityID: "e1"}.Matches(record))
	assert.False(t, Filter{EntityID: "e2"}.Matches(record))
	assert.True(t, Filter{Since: &since}.Matches(record))

	future := time.Now().Add(time.Hour)
	assert.False(t, Filter{Since: &future}.Matches(record))
}
