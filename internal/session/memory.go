package session

import (
	"context"
	"sync"
	"time"

	"arxiv-similarity-search/internal/models"
)

const sweepInterval = time.Minute

type entry struct {
	results   *models.ResultSet
	createdAt time.Time
}

// MemoryStore is the default in-process session store. Growth is bounded:
// sessions expire after ttl and the oldest session is evicted once
// maxSessions is reached.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	maxSessions int
	ttl         time.Duration
	done        chan struct{}
}

func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*entry),
		maxSessions: maxSessions,
		ttl:         ttl,
		done:        make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Stop terminates the expiry janitor.
func (s *MemoryStore) Stop() {
	close(s.done)
}

func (s *MemoryStore) Put(ctx context.Context, id string, results *models.ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &entry{results: results, createdAt: time.Now()}

	if s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
		s.evictOldestLocked()
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Snapshot so readers never race a concurrent SetSummary.
	snapshot := *e.results
	snapshot.Papers = make([]models.PaperRecord, len(e.results.Papers))
	copy(snapshot.Papers, e.results.Papers)
	return &snapshot, nil
}

func (s *MemoryStore) SetSummary(ctx context.Context, id string, position int, summary *models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if position < 0 || position >= len(e.results.Papers) {
		return ErrPaperOutOfRange
	}

	e.results.Papers[position].Summary = summary
	return nil
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, e := range s.sessions {
		if oldestID == "" || e.createdAt.Before(oldestAt) {
			oldestID = id
			oldestAt = e.createdAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired(time.Now())
		}
	}
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if now.Sub(e.createdAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
