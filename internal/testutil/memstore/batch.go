package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
)

var _ batch.BatchRepository = (*Batches)(nil)

type Batches struct {
	mu   sync.RWMutex
	rows map[string]batch.Batch
}

func NewBatches() *Batches {
	return &Batches{rows: make(map[string]batch.Batch)}
}

func (s *Batches) GetByID(_ context.Context, id string) (batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.rows[id]
	if !ok {
		return batch.Batch{}, batch.ErrBatchNotFound
	}
	return clone(b), nil
}

func (s *Batches) GetByKey(_ context.Context, key batch.Key) (batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.rows {
		if sameKey(b.Key(), key) {
			return clone(b), nil
		}
	}
	return batch.Batch{}, batch.ErrBatchNotFound
}

func sameKey(a, b batch.Key) bool {
	if a.DepartmentID != b.DepartmentID || a.Month != b.Month || a.PayBase != b.PayBase {
		return false
	}
	return divisionOf(a.DivisionID) == divisionOf(b.DivisionID)
}

func divisionOf(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func (s *Batches) List(_ context.Context, f batch.Filter) ([]batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []batch.Batch{}
	for _, b := range s.rows {
		if f.Month != nil && b.Month != *f.Month {
			continue
		}
		if f.DepartmentID != nil && b.DepartmentID != *f.DepartmentID {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.PayBase != nil && b.PayBase != *f.PayBase {
			continue
		}
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Batches) ListExpiredPermissions(_ context.Context, now time.Time) ([]batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []batch.Batch{}
	for _, b := range s.rows {
		p := b.RecalculationPermission
		if p != nil && p.Granted && p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (s *Batches) Create(_ context.Context, b batch.Batch) (batch.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if sameKey(existing.Key(), b.Key()) {
			return batch.Batch{}, batch.ErrBatchAlreadyExists
		}
	}
	s.rows[b.ID] = clone(b)
	return clone(b), nil
}

func (s *Batches) Save(_ context.Context, b batch.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[b.ID]; !ok {
		return batch.ErrBatchNotFound
	}
	s.rows[b.ID] = clone(b)
	return nil
}
