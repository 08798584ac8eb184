// Package journal appends accepted scan events to an on-disk JSONL file for
// diagnostics. It is observability only: nothing reads it back into the
// pipeline and delivery never consults it.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shelfpoint/scanbridge/internal/models"
)

// Journal is an append-only scan event log.
type Journal struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open creates or appends to the journal at path. An empty path disables
// journaling and returns a nil Journal, which is safe to use.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ensure journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Journal{file: file, enc: json.NewEncoder(file)}, nil
}

// Append writes one event. Journal failures never block the pipeline; the
// error is returned for logging only.
func (j *Journal) Append(event *models.ScanEvent) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.enc.Encode(event); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
