package jobs

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Store keeps job records.
type Store interface {
	Add(job *Job)
	Get(id string) (*Job, bool)
}

// MemoryStore is an in-memory Store with bounded size.
// Least recently used records are evicted first, terminal records can additionally expire after ttl.
type MemoryStore struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates new MemoryStore instance. Zero ttl keeps terminal records until evicted.
func NewMemoryStore(size int, ttl time.Duration) (*MemoryStore, error) {
	if size <= 0 {
		return nil, errors.New("job store size must be greater than 0")
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache for jobs: %w", err)
	}

	return &MemoryStore{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// Add stores the job.
func (s *MemoryStore) Add(job *Job) {
	s.cache.Add(job.ID(), job)
}

// Get returns job by id.
func (s *MemoryStore) Get(id string) (*Job, bool) {
	val, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	job := val.(*Job)
	if job.expired(s.ttl, s.now()) {
		s.cache.Remove(id)
		return nil, false
	}

	return job, true
}

// Len returns number of stored records, including expired ones not yet removed.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
