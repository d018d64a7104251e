package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"firealarm/model"
)

// MemoryStore keeps records in insertion order. It backs development runs
// without MySQL.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*model.AlarmRecord
	byID    map[string]*model.AlarmRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*model.AlarmRecord), now: time.Now}
}

func (s *MemoryStore) Latest(_ context.Context, deviceID string) (*model.AlarmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].DeviceID == deviceID {
			rec := *s.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.AlarmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) Create(_ context.Context, rec *model.AlarmRecord) error {
	if rec == nil || rec.ID == "" || rec.DeviceID == "" {
		return errors.New("memory store: missing fields")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; ok {
		return errors.New("memory store: duplicate id")
	}
	now := model.NewJsonTime(s.now())
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	stored := *rec
	s.records = append(s.records, &stored)
	s.byID[rec.ID] = &stored
	return nil
}

func (s *MemoryStore) Save(_ context.Context, rec *model.AlarmRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("memory store: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[rec.ID]
	if !ok {
		return errors.New("memory store: record vanished")
	}
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = model.NewJsonTime(s.now())
	*stored = *rec
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]model.AlarmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlarmRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, *s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) ListByDevice(_ context.Context, deviceID string) ([]model.AlarmRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlarmRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].DeviceID == deviceID {
			out = append(out, *s.records[i])
		}
	}
	return out, nil
}
