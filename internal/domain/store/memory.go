// Package store provides the persistence implementations for domain records.
package store

import (
	"context"
	"strings"
	"sync"

	"mngkeeper/internal/domain/models"
	dErrors "mngkeeper/pkg/domain-errors"
)

// MemoryStore is an in-memory domain store used in tests and local runs. It
// mirrors the document store's uniqueness rule: one domain per normalized
// name.
type MemoryStore struct {
	mu      sync.RWMutex
	domains map[string]*models.Domain
	byName  map[string]string // normalized name -> id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		domains: make(map[string]*models.Domain),
		byName:  make(map[string]string),
	}
}

func copyDomain(d *models.Domain) *models.Domain {
	c := *d
	return &c
}

// CreateIfNameAvailable inserts the domain unless another domain already
// claims the same normalized name.
func (s *MemoryStore) CreateIfNameAvailable(_ context.Context, domain *models.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.Normalize(domain.Name)
	if _, exists := s.byName[key]; exists {
		return dErrors.New(dErrors.CodeConflict, "domain name already in use")
	}
	s.domains[domain.ID] = copyDomain(domain)
	s.byName[key] = domain.ID
	return nil
}

// GetByID returns the domain with the given id.
func (s *MemoryStore) GetByID(_ context.Context, id string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return copyDomain(d), nil
}

// GetByName returns the domain whose normalized name matches.
func (s *MemoryStore) GetByName(_ context.Context, name string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[models.Normalize(name)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return copyDomain(s.domains[id]), nil
}

// GetByRealm returns the domain provisioned under the given realm name.
func (s *MemoryStore) GetByRealm(_ context.Context, realmName string) (*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.domains {
		if d.RealmName == realmName {
			return copyDomain(d), nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status     models.Status
	NamePrefix string
}

// List returns domains matching the filter, excluding deleted ones unless
// the filter asks for them.
func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Status == "" && d.Status == models.StatusDeleted {
			continue
		}
		if filter.NamePrefix != "" &&
			!strings.HasPrefix(models.Normalize(d.Name), models.Normalize(filter.NamePrefix)) {
			continue
		}
		out = append(out, copyDomain(d))
	}
	return out, nil
}

// Update replaces the stored domain.
func (s *MemoryStore) Update(_ context.Context, domain *models.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[domain.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	s.domains[domain.ID] = copyDomain(domain)
	return nil
}

// Delete removes the domain record and frees its name.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.domains[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	delete(s.byName, models.Normalize(d.Name))
	delete(s.domains, id)
	return nil
}
