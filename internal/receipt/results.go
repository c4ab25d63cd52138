package receipt

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrNotFound is returned when an analysis is unknown or has expired
var ErrNotFound = errors.New("analysis not found")

// ResultStore keeps completed analyses for later display and export
type ResultStore interface {
	// Save stores a result, replacing any result with the same ID
	Save(result *AnalysisResult) error

	// Get retrieves a result by ID
	Get(id string) (*AnalysisResult, error)

	// Delete removes a result
	Delete(id string) error
}

// MemoryStore implements ResultStore with a size-bounded LRU whose entries expire.
// Results live for a browsing session, not across restarts.
type MemoryStore struct {
	cache *expirable.LRU[string, *AnalysisResult]
}

// NewMemoryStore creates a MemoryStore holding at most size results for ttl each
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, *AnalysisResult](size, nil, ttl),
	}
}

// Save stores a result
func (m *MemoryStore) Save(result *AnalysisResult) error {
	if result == nil || result.ID == "" {
		return errors.New("result must have an ID")
	}
	m.cache.Add(result.ID, result)
	return nil
}

// Get retrieves a result by ID
func (m *MemoryStore) Get(id string) (*AnalysisResult, error) {
	result, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return result, nil
}

// Delete removes a result
func (m *MemoryStore) Delete(id string) error {
	if !m.cache.Remove(id) {
		return ErrNotFound
	}
	return nil
}
