package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps jobs and usage counters in process memory. It backs
// tests and small single-instance deployments where persistence across
// restarts is not needed.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*Job
	usage  map[string]map[string]int // tenant -> month -> docs
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[int64]*Job),
		usage: make(map[string]map[string]int),
	}
}

func (s *MemoryStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now().UTC()
	job.ID = s.nextID
	job.Status = StatusQueued
	job.CreatedAt = now
	job.UpdatedAt = now

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, tenantID string, id int64) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context, tenantID string, limit, offset int) ([]Summary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.TenantID == tenantID {
			owned = append(owned, job)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })

	total := len(owned)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]Summary, 0, end-offset)
	for _, job := range owned[offset:end] {
		items = append(items, job.Summarize())
	}
	return items, total, nil
}

func (s *MemoryStore) SetRunning(_ context.Context, id int64) error {
	return s.update(id, func(job *Job) {
		job.Status = StatusRunning
	})
}

func (s *MemoryStore) SetResult(_ context.Context, id int64, result json.RawMessage) error {
	return s.update(id, func(job *Job) {
		job.Status = StatusDone
		job.Result = result
		job.Error = ""
	})
}

func (s *MemoryStore) SetFailed(_ context.Context, id int64, errMsg string) error {
	return s.update(id, func(job *Job) {
		job.Status = StatusFailed
		job.Result = nil
		job.Error = errMsg
	})
}

func (s *MemoryStore) update(id int64, apply func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ReserveQuota(_ context.Context, tenantID, month string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	months, ok := s.usage[tenantID]
	if !ok {
		months = make(map[string]int)
		s.usage[tenantID] = months
	}
	if months[month]+1 > limit {
		return ErrQuotaExceeded
	}
	months[month]++
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
