package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bingo-system/models"
)

// MemoryScanStore is an in-memory ScanStore with the same insert-if-absent
// semantics as the sqlite-backed store. Used by tests and local tooling.
type MemoryScanStore struct {
	mu       sync.Mutex
	records  []models.ScanRecord
	accepted map[string]int // code -> index into records
	nextID   int

	// FailNext makes the next call fail, for storage-outage tests.
	FailNext bool
}

func NewMemoryScanStore() *MemoryScanStore {
	return &MemoryScanStore{
		accepted: make(map[string]int),
	}
}

func (s *MemoryScanStore) FindAccepted(ctx context.Context, code string) (*models.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return nil, err
	}

	idx, ok := s.accepted[code]
	if !ok {
		return nil, nil
	}
	rec := s.records[idx]
	return &rec, nil
}

func (s *MemoryScanStore) Insert(ctx context.Context, rec *models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	if rec.Outcome == models.OutcomeAccepted {
		if _, ok := s.accepted[rec.Code]; ok {
			return ErrCodeRedeemed
		}
		s.accepted[rec.Code] = len(s.records)
	}

	s.nextID++
	rec.ID = fmt.Sprintf("mem-%d", s.nextID)
	rec.Timestamp = time.Now()
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryScanStore) List(ctx context.Context) ([]models.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return nil, err
	}

	// Newest first, matching the sqlite store's "-created" ordering.
	out := make([]models.ScanRecord, len(s.records))
	for i, rec := range s.records {
		out[len(s.records)-1-i] = rec
	}
	return out, nil
}

func (s *MemoryScanStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failIfRequested(); err != nil {
		return err
	}

	s.records = nil
	s.accepted = make(map[string]int)
	return nil
}

func (s *MemoryScanStore) failIfRequested() error {
	if s.FailNext {
		s.FailNext = false
		return fmt.Errorf("%w: simulated outage", ErrStoreUnavailable)
	}
	return nil
}
