package reports

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps reports in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	reports map[int64]Report
	now     func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[int64]Report),
		now:     time.Now,
	}
}

// Create assigns an id and timestamps and stores a copy of r
func (s *MemoryStore) Create(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	r.ID = s.nextID
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reports[r.ID] = *r
	return nil
}

// List returns every report ordered by id
func (s *MemoryStore) List(ctx context.Context) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the report with the given id
func (s *MemoryStore) Get(ctx context.Context, id int64) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// Update replaces the writable fields of an existing report
func (s *MemoryStore) Update(ctx context.Context, id int64, r *Report) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	existing.PatientName = r.PatientName
	existing.ReportText = r.ReportText
	existing.UpdatedAt = s.now().UTC()
	s.reports[id] = existing
	return &existing, nil
}

// Delete removes a report
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	return nil
}
