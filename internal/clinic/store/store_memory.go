package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sijil/internal/domain"
	"sijil/pkg/platform/sentinel"
)

// InMemoryStore keeps clinic rows in a map guarded by an RWMutex. It backs
// unit tests and local development; the postgres store is the production
// implementation.
type InMemoryStore struct {
	mu      sync.RWMutex
	clinics map[domain.ClinicID]domain.Clinic
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{clinics: make(map[domain.ClinicID]domain.Clinic)}
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.Clinic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Clinic, 0, len(s.clinics))
	for _, c := range s.clinics {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Compare(out[j].ID) > 0
	})
	return out, nil
}

func (s *InMemoryStore) FindByLicense(_ context.Context, license string) ([]domain.Clinic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Clinic
	for _, c := range s.clinics {
		if c.LicenseNumber == license {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Compare(out[j].ID) < 0
	})
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, clinic *domain.Clinic) error {
	if clinic == nil {
		return fmt.Errorf("clinic is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if clinic.ID.IsNil() {
		clinic.ID = domain.NewClinicID()
	}
	if clinic.CreatedAt.IsZero() {
		clinic.CreatedAt = time.Now()
	}
	if _, exists := s.clinics[clinic.ID]; exists {
		return sentinel.ErrConflict
	}
	s.clinics[clinic.ID] = *clinic
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, id domain.ClinicID, patch domain.ClinicPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clinics[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if patch.LicenseNumber != nil {
		c.LicenseNumber = *patch.LicenseNumber
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Governorate != nil {
		c.Governorate = *patch.Governorate
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	s.clinics[id] = c
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.ClinicID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clinics[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clinics, id)
	return nil
}
