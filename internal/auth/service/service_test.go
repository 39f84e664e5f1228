package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"atelier/internal/auth/device"
	"atelier/internal/auth/store/revocation"
	"atelier/internal/jwttoken"
	userservice "atelier/internal/user/service"
	userstore "atelier/internal/user/store"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx     context.Context
	jwt     *jwttoken.JWTService
	trl     *revocation.InMemoryTRL
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := userservice.New(userstore.NewInMemory(),
		userservice.WithLogger(logger),
		userservice.WithBcryptCost(bcrypt.MinCost),
	)
	s.jwt = jwttoken.NewJWTService("test-signing-key", "atelier-test")
	s.trl = revocation.NewInMemoryTRL()
	s.service = New(users, s.jwt, s.trl, device.NewService(true),
		WithLogger(logger),
		WithTokenTTL(time.Hour),
	)
}

func (s *AuthServiceSuite) signup() {
	_, err := s.service.Signup(s.ctx, SignupParams{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
}

func (s *AuthServiceSuite) TestSignupAlwaysUserRole() {
	u, err := s.service.Signup(s.ctx, SignupParams{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-horse",
	})
	s.Require().NoError(err)
	s.Equal(id.RoleUser, u.Role)
}

func (s *AuthServiceSuite) TestLoginIssuesValidToken() {
	s.signup()

	result, err := s.service.Login(s.ctx, "alice@example.com", "correct-horse")
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)
	s.Equal(time.Hour, result.ExpiresIn)

	claims, err := s.jwt.ValidateToken(result.AccessToken)
	s.Require().NoError(err)
	s.Equal(result.User.ID.String(), claims.UserID)
	s.Equal(string(id.RoleUser), claims.Role)
	s.NotEmpty(claims.SessionID)
}

func (s *AuthServiceSuite) TestLoginWrongPassword() {
	s.signup()
	_, err := s.service.Login(s.ctx, "alice@example.com", "wrong")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestLogoutRevokesJTI() {
	s.signup()
	result, err := s.service.Login(s.ctx, "alice@example.com", "correct-horse")
	s.Require().NoError(err)

	claims, err := s.jwt.ValidateToken(result.AccessToken)
	s.Require().NoError(err)

	revoked, err := s.trl.IsRevoked(s.ctx, claims.ID)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.service.Logout(s.ctx, result.AccessToken))

	revoked, err = s.trl.IsRevoked(s.ctx, claims.ID)
	s.Require().NoError(err)
	s.True(revoked)
}

// Each login gets its own JTI, so revoking one token leaves the other
// session alive.
func (s *AuthServiceSuite) TestLogoutLeavesOtherSessionsAlive() {
	s.signup()
	first, err := s.service.Login(s.ctx, "alice@example.com", "correct-horse")
	s.Require().NoError(err)
	second, err := s.service.Login(s.ctx, "alice@example.com", "correct-horse")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, first.AccessToken))

	secondClaims, err := s.jwt.ValidateToken(second.AccessToken)
	s.Require().NoError(err)
	revoked, err := s.trl.IsRevoked(s.ctx, secondClaims.ID)
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *AuthServiceSuite) TestLogoutInvalidToken() {
	err := s.service.Logout(s.ctx, "garbage")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
