// Package store persists user accounts. InMemory backs unit tests and local
// development; PostgresStore is the production path.
package store

import (
	"context"
	"sort"
	"sync"

	"atelier/internal/user/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded user store with an email uniqueness index.
type InMemory struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// Create stores a new user. A duplicate ID or email yields sentinel.ErrConflict.
func (s *InMemory) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[u.Email]; exists {
		return sentinel.ErrConflict
	}
	s.users[u.ID] = u.Clone()
	s.byEmail[u.Email] = u.ID
	return nil
}

// FindByID returns the user or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByEmail returns the user with the given (normalized) email.
func (s *InMemory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.users[userID].Clone(), nil
}

// Update persists changes to an existing user. Email changes keep the
// uniqueness index consistent.
func (s *InMemory) Update(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Email != u.Email {
		if _, taken := s.byEmail[u.Email]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, stored.Email)
		s.byEmail[u.Email] = u.ID
	}
	s.users[u.ID] = u.Clone()
	return nil
}

// Delete removes the user or returns sentinel.ErrNotFound.
func (s *InMemory) Delete(ctx context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, stored.Email)
	delete(s.users, userID)
	return nil
}

// List returns a page of users ordered by creation time, oldest first, plus
// the total count.
func (s *InMemory) List(ctx context.Context, offset, limit int) ([]*models.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	if limit >= 0 {
		if offset >= total {
			all = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			all = all[offset:end]
		}
	}

	out := make([]*models.User, len(all))
	for i, u := range all {
		out[i] = u.Clone()
	}
	return out, total, nil
}
