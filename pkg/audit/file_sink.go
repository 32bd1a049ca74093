package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	currentFileName  = "audit.log"
	rotatedFileGlob  = "audit-*.log"
	rotatedTimestamp = "20060102T150405.000000000"
)

// ErrSinkClosed is returned when writing to a closed sink
var ErrSinkClosed = errors.New("audit: sink is closed")

// FileSink appends records as newline-delimited JSON
type FileSink struct {
	dir      string
	file     *os.File
	mu       sync.Mutex
	encoder  *json.Encoder
	rotate   bool
	maxSize  int64 // bytes before rotation
	maxFiles int   // rotated files to keep
	now      func() time.Time
}

// FileSinkConfig configures the file sink
type FileSinkConfig struct {
	Dir      string // Directory holding audit.log and rotated files
	Rotate   bool   // Enable size based rotation
	MaxSize  int64  // Max file size in bytes (default: 100MB)
	MaxFiles int    // Max rotated files to keep (default: 10)
}

// DefaultFileSinkConfig returns default configuration
func DefaultFileSinkConfig() FileSinkConfig {
	return FileSinkConfig{
		Dir:      "/var/log/csn-admin/audit",
		Rotate:   true,
		MaxSize:  100 * 1024 * 1024, // 100MB
		MaxFiles: 10,
	}
}

// NewFileSink creates the directory if needed and opens the current file
func NewFileSink(config FileSinkConfig) (*FileSink, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("audit log directory is required")
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	sink := &FileSink{
		dir:      config.Dir,
		rotate:   config.Rotate,
		maxSize:  config.MaxSize,
		maxFiles: config.MaxFiles,
		now:      time.Now,
	}

	if sink.maxSize <= 0 {
		sink.maxSize = 100 * 1024 * 1024
	}
	if sink.maxFiles <= 0 {
		sink.maxFiles = 10
	}

	if err := sink.openFile(); err != nil {
		return nil, err
	}

	return sink, nil
}

// Path returns the path of the file currently written to
func (s *FileSink) Path() string {
	return filepath.Join(s.dir, currentFileName)
}

func (s *FileSink) openFile() error {
	if s.rotate {
		if info, err := os.Stat(s.Path()); err == nil && info.Size() >= s.maxSize {
			return s.rotateFile()
		}
	}
	return s.openCurrent()
}

func (s *FileSink) openCurrent() error {
	file, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	s.file = file
	s.encoder = json.NewEncoder(file)
	return nil
}

// rotateFile moves the current file aside and opens a new one. When the
// rename fails the current file is reopened and keeps growing; rotation is
// tried again on the next write. An error is only returned when no file is
// open afterwards.
func (s *FileSink) rotateFile() error {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	rotated := filepath.Join(s.dir, fmt.Sprintf("audit-%s.log", s.now().UTC().Format(rotatedTimestamp)))
	renameErr := os.Rename(s.Path(), rotated)

	if err := s.openCurrent(); err != nil {
		if renameErr != nil {
			return fmt.Errorf("failed to rotate audit log: %w", errors.Join(renameErr, err))
		}
		return err
	}
	if renameErr == nil {
		// retention is best-effort; a leftover file is removed on a later rotation
		_ = s.cleanupOldFiles()
	}
	return nil
}

// cleanupOldFiles keeps the newest maxFiles rotated files. Rotated names
// sort chronologically, so Glob order is oldest first.
func (s *FileSink) cleanupOldFiles() error {
	files, err := s.RotatedFiles()
	if err != nil {
		return err
	}
	if len(files) <= s.maxFiles {
		return nil
	}

	var errs []error
	for _, file := range files[:len(files)-s.maxFiles] {
		if err := os.Remove(file); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RotatedFiles lists rotated audit files, oldest first
func (s *FileSink) RotatedFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(s.dir, rotatedFileGlob))
}

// Write appends one JSON line
func (s *FileSink) Write(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrSinkClosed
	}

	if s.rotate {
		if info, err := s.file.Stat(); err == nil && info.Size() >= s.maxSize {
			if err := s.rotateFile(); err != nil {
				return err
			}
		}
	}

	if err := s.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Query returns the newest matching records, newest first. The current file
// is scanned first, then rotated files from newest to oldest until the
// limit is reached.
func (s *FileSink) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rotated, err := s.RotatedFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to list rotated audit logs: %w", err)
	}
	paths := []string{s.Path()}
	for i := len(rotated) - 1; i >= 0; i-- {
		paths = append(paths, rotated[i])
	}

	limit := filter.limit()
	var out []*Record
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := ReadRecords(path, 0)
		if err != nil {
			return nil, err
		}
		for i := len(records) - 1; i >= 0; i-- {
			if filter.Matches(records[i]) {
				out = append(out, records[i])
				if len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// Close closes the current file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// ReadRecords reads up to n records from an audit file in write order.
// n <= 0 reads the whole file.
func ReadRecords(path string, n int) ([]*Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	var records []*Record
	decoder := json.NewDecoder(file)
	for {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode audit record: %w", err)
		}
		records = append(records, &record)

		if n > 0 && len(records) >= n {
			break
		}
	}

	return records, nil
}
