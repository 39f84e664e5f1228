// Package store persists projects. The InMemory implementation backs unit
// tests and local development; PostgresStore is the production path. Both
// return sentinel errors so services translate storage facts into domain
// errors at one place.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"atelier/internal/project/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded project store. Values are cloned on the way in
// and out so callers never share state with the store.
type InMemory struct {
	mu       sync.RWMutex
	projects map[id.ProjectID]*models.Project
}

// NewInMemory constructs an empty in-memory project store.
func NewInMemory() *InMemory {
	return &InMemory{projects: make(map[id.ProjectID]*models.Project)}
}

// Create stores a new project. The stored version starts at 1.
func (s *InMemory) Create(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[p.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := p.Clone()
	stored.Version = 1
	s.projects[p.ID] = stored
	p.Version = 1
	return nil
}

// FindByID returns the project or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// Update persists p only if its version matches the stored version, then
// increments it. A mismatch means a concurrent writer won the race; callers
// get sentinel.ErrVersionMismatch and must reload before retrying.
func (s *InMemory) Update(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != p.Version {
		return sentinel.ErrVersionMismatch
	}

	next := p.Clone()
	next.Version = stored.Version + 1
	s.projects[p.ID] = next
	p.Version = next.Version
	return nil
}

// Delete removes the project or returns sentinel.ErrNotFound.
func (s *InMemory) Delete(ctx context.Context, projectID id.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.projects, projectID)
	return nil
}

// List returns the page of projects matching the filter plus the total match
// count ignoring pagination. A limit < 0 disables pagination. Results are
// ordered by creation time, newest first, for stable pages.
func (s *InMemory) List(ctx context.Context, filter Filter, offset, limit int) ([]*models.Project, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Project, 0)
	for _, p := range s.projects {
		if matches(p, filter) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if limit >= 0 {
		if offset >= total {
			matched = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			matched = matched[offset:end]
		}
	}

	out := make([]*models.Project, len(matched))
	for i, p := range matched {
		out[i] = p.Clone()
	}
	return out, total, nil
}

func matches(p *models.Project, f Filter) bool {
	if f.VisibleTo != nil {
		userID := *f.VisibleTo
		if p.OwnerID != userID {
			if _, shared := p.ShareFor(userID); !shared {
				return false
			}
		}
	}
	if f.NameContains != "" {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
			return false
		}
	}
	if f.Tag != "" && !p.HasTag(f.Tag) {
		return false
	}
	return true
}
