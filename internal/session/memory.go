package session

import (
	"net/http"
	"sync"
)

// MemoryManager is the in-memory fake used by tests. It holds a single
// record regardless of the request.
type MemoryManager struct {
	mu  sync.Mutex
	rec *Record
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

func (m *MemoryManager) Get(_ *http.Request) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, ErrNoSession
	}
	rec := *m.rec
	return &rec, nil
}

func (m *MemoryManager) Set(_ http.ResponseWriter, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *MemoryManager) Clear(_ http.ResponseWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
}

// SetRecord seeds the fake directly, without a ResponseWriter.
func (m *MemoryManager) SetRecord(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
}
