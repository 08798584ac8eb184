// Package storage keeps in-memory scan session history for the API. Nothing
// here is durable; the event sink is the system of record.
package storage

import (
	"sync"
	"time"

	"github.com/shelfpoint/scanbridge/internal/models"
)

// ScanRecord is one accepted scan as remembered for a session.
type ScanRecord struct {
	UPC        string               `json:"upc"`
	Format     string               `json:"format"`
	Timestamp  time.Time            `json:"timestamp"`
	Delivered  bool                 `json:"delivered"`
	SinkStatus int                  `json:"sink_status,omitempty"`
	Book       *models.BookMetadata `json:"book,omitempty"`
}

// ScanSession is the per-session view served over the API.
type ScanSession struct {
	ID        string       `json:"id"`
	StartedAt time.Time    `json:"started_at"`
	Scans     []ScanRecord `json:"scans"`
}

// SessionStore is a mutex-guarded session map.
type SessionStore struct {
	sessions map[string]*ScanSession
	mu       sync.RWMutex
}

// New creates an empty store.
func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*ScanSession),
	}
}

// Get returns the session with the given ID.
func (s *SessionStore) Get(sessionID string) (*ScanSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

// Set stores or replaces a session.
func (s *SessionStore) Set(sessionID string, session *ScanSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

// AppendScan records one accepted scan, creating the session on first use.
func (s *SessionStore) AppendScan(sessionID string, startedAt time.Time, record ScanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		session = &ScanSession{ID: sessionID, StartedAt: startedAt}
		s.sessions[sessionID] = session
	}
	session.Scans = append(session.Scans, record)
}

// GetAll returns a copy of the session map.
func (s *SessionStore) GetAll() map[string]*ScanSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*ScanSession, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

// Delete removes a session.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
