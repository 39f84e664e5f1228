package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"atelier/internal/project/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newProject(owner id.UserID, name string, tags []string, createdAt time.Time) *models.Project {
	p, err := models.NewProject(id.NewProjectID(), owner, name, "", tags, createdAt)
	s.Require().NoError(err)
	return p
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.Equal(int64(1), p.Version)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.Name, got.Name)
	s.Equal(int64(1), got.Version)
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewProjectID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateBumpsVersion() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))

	p.Name = "Atlas v2"
	s.Require().NoError(s.store.Update(s.ctx, p))
	s.Equal(int64(2), p.Version)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Atlas v2", got.Name)
	s.Equal(int64(2), got.Version)
}

func (s *InMemoryStoreSuite) TestUpdateStaleVersion() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))

	// two readers load version 1; the slower writer must lose
	first, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	second, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)

	first.Name = "winner"
	s.Require().NoError(s.store.Update(s.ctx, first))

	second.Name = "loser"
	s.ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrVersionMismatch)

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("winner", got.Name)
}

func (s *InMemoryStoreSuite) TestUpdateMissing() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.ErrorIs(s.store.Update(s.ctx, p), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDelete() {
	p := s.newProject(id.NewUserID(), "Atlas", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))
	_, err := s.store.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestStoreDoesNotAliasCallerState() {
	p := s.newProject(id.NewUserID(), "Atlas", []string{"go"}, s.now)
	s.Require().NoError(s.store.Create(s.ctx, p))

	p.Tags[0] = "mutated"
	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("go", got.Tags[0])
}

func (s *InMemoryStoreSuite) TestListVisibility() {
	alice, bob, carol := id.NewUserID(), id.NewUserID(), id.NewUserID()

	owned := s.newProject(alice, "Alice Own", nil, s.now)
	s.Require().NoError(s.store.Create(s.ctx, owned))

	shared := s.newProject(bob, "Bob Shares", nil, s.now.Add(time.Minute))
	s.Require().NoError(shared.SetShare(alice, []models.Permission{models.PermissionView}, s.now))
	s.Require().NoError(s.store.Create(s.ctx, shared))

	hidden := s.newProject(carol, "Carol Private", nil, s.now.Add(2*time.Minute))
	s.Require().NoError(s.store.Create(s.ctx, hidden))

	items, total, err := s.store.List(s.ctx, Filter{VisibleTo: &alice}, 0, 10)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(items, 2)

	// newest first
	s.Equal("Bob Shares", items[0].Name)
	s.Equal("Alice Own", items[1].Name)
}

func (s *InMemoryStoreSuite) TestListNameSearchCaseInsensitive() {
	owner := id.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(owner, "Quarterly REPORT", nil, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(owner, "scratchpad", nil, s.now.Add(time.Minute))))

	items, total, err := s.store.List(s.ctx, Filter{VisibleTo: &owner, NameContains: "report"}, 0, 10)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal("Quarterly REPORT", items[0].Name)
}

func (s *InMemoryStoreSuite) TestListTag() {
	owner := id.NewUserID()
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(owner, "Tagged", []string{"go", "infra"}, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(owner, "Untagged", nil, s.now)))

	items, total, err := s.store.List(s.ctx, Filter{VisibleTo: &owner, Tag: "go"}, 0, -1)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal("Tagged", items[0].Name)
}

// Total counts every match, not just the returned page.
func (s *InMemoryStoreSuite) TestListPagination() {
	owner := id.NewUserID()
	for i := 0; i < 7; i++ {
		p := s.newProject(owner, "Project", nil, s.now.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	items, total, err := s.store.List(s.ctx, Filter{VisibleTo: &owner}, 0, 3)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Len(items, 3)

	items, total, err = s.store.List(s.ctx, Filter{VisibleTo: &owner}, 6, 3)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Len(items, 1)

	items, total, err = s.store.List(s.ctx, Filter{VisibleTo: &owner}, 9, 3)
	s.Require().NoError(err)
	s.Equal(7, total)
	s.Empty(items)
}

func (s *InMemoryStoreSuite) TestListUnscoped() {
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(id.NewUserID(), "One", nil, s.now)))
	s.Require().NoError(s.store.Create(s.ctx, s.newProject(id.NewUserID(), "Two", nil, s.now.Add(time.Minute))))

	_, total, err := s.store.List(s.ctx, Filter{}, 0, -1)
	s.Require().NoError(err)
	s.Equal(2, total)
}
