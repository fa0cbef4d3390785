package executor

import (
	"sort"
	"sync"
)

// MemoryStorage is an in-memory Storage implementation.
// Data is lost when the process exits.
//
// All methods are safe for concurrent use.
type MemoryStorage struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{checkpoints: make(map[string]Checkpoint)}
}

// SaveCheckpoint stores or replaces the checkpoint of a session.
func (m *MemoryStorage) SaveCheckpoint(cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkpoints[cp.SessionID] = cp
	return nil
}

// LoadCheckpoint returns the checkpoint of a session.
func (m *MemoryStorage) LoadCheckpoint(sessionID string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[sessionID]
	if !ok {
		return Checkpoint{}, ErrSessionNotFound
	}
	return cp, nil
}

// ListCheckpoints returns all checkpoints ordered by start time.
func (m *MemoryStorage) ListCheckpoints() ([]Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Checkpoint, 0, len(m.checkpoints))
	for _, cp := range m.checkpoints {
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Started.Equal(result[j].Started) {
			return result[i].SessionID < result[j].SessionID
		}
		return result[i].Started.Before(result[j].Started)
	})
	return result, nil
}

// DeleteCheckpoint removes the checkpoint of a session.
func (m *MemoryStorage) DeleteCheckpoint(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.checkpoints, sessionID)
	return nil
}

// Verify MemoryStorage implements Storage.
var _ Storage = (*MemoryStorage)(nil)
