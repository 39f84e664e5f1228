package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"atelier/internal/user/store"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(store.NewInMemory(),
		WithLogger(logger),
		WithBcryptCost(bcrypt.MinCost),
	)
}

func (s *UserServiceSuite) TestCreateDefaultsRole() {
	u, err := s.service.Create(s.ctx, CreateParams{
		Email:    "Alice@Example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	s.Equal(id.RoleUser, u.Role)
	s.Equal("alice@example.com", u.Email)
	s.NotEqual("correct-horse", u.PasswordHash)
}

func (s *UserServiceSuite) TestCreateDerivesNameFromEmail() {
	u, err := s.service.Create(s.ctx, CreateParams{
		Email:    "jane.doe@example.com",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	s.Equal("Jane Doe", u.Name)
}

func (s *UserServiceSuite) TestCreateShortPassword() {
	_, err := s.service.Create(s.ctx, CreateParams{Email: "a@b.com", Name: "A", Password: "short"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *UserServiceSuite) TestCreateDuplicateEmailConflict() {
	params := CreateParams{Email: "a@b.com", Name: "A", Password: "correct-horse"}
	_, err := s.service.Create(s.ctx, params)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, params)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *UserServiceSuite) TestAuthenticate() {
	created, err := s.service.Create(s.ctx, CreateParams{Email: "a@b.com", Name: "A", Password: "correct-horse"})
	s.Require().NoError(err)

	u, err := s.service.Authenticate(s.ctx, "A@B.com", "correct-horse")
	s.Require().NoError(err)
	s.Equal(created.ID, u.ID)
}

// Wrong password and unknown email produce the same error.
func (s *UserServiceSuite) TestAuthenticateFailuresIndistinguishable() {
	_, err := s.service.Create(s.ctx, CreateParams{Email: "a@b.com", Name: "A", Password: "correct-horse"})
	s.Require().NoError(err)

	_, errWrongPassword := s.service.Authenticate(s.ctx, "a@b.com", "wrong")
	_, errUnknownEmail := s.service.Authenticate(s.ctx, "ghost@b.com", "correct-horse")

	s.True(dErrors.HasCode(errWrongPassword, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(errUnknownEmail, dErrors.CodeUnauthorized))
	s.Equal(dErrors.MessageOf(errWrongPassword), dErrors.MessageOf(errUnknownEmail))
}

func (s *UserServiceSuite) TestUpdatePassword() {
	created, err := s.service.Create(s.ctx, CreateParams{Email: "a@b.com", Name: "A", Password: "correct-horse"})
	s.Require().NoError(err)

	next := "battery-staple"
	_, err = s.service.Update(s.ctx, created.ID, UpdateParams{Password: &next})
	s.Require().NoError(err)

	_, err = s.service.Authenticate(s.ctx, "a@b.com", "correct-horse")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.Authenticate(s.ctx, "a@b.com", "battery-staple")
	s.NoError(err)
}

func (s *UserServiceSuite) TestDeleteAndExists() {
	created, err := s.service.Create(s.ctx, CreateParams{Email: "a@b.com", Name: "A", Password: "correct-horse"})
	s.Require().NoError(err)

	exists, err := s.service.Exists(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(s.service.Delete(s.ctx, created.ID))

	exists, err = s.service.Exists(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(exists)

	err = s.service.Delete(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *UserServiceSuite) TestListPaginationMath() {
	for _, email := range []string{"a@b.com", "b@b.com", "c@b.com"} {
		_, err := s.service.Create(s.ctx, CreateParams{Email: email, Name: "U", Password: "correct-horse"})
		s.Require().NoError(err)
	}

	page, err := s.service.List(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Equal(2, page.Pages)
	s.Len(page.Data, 2)

	_, err = s.service.List(s.ctx, 0, 2)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
