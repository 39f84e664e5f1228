package jwttoken

import (
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	authmw "atelier/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims converts token claims into the middleware's typed form.
func ToMiddlewareClaims(claims *Claims) (*authmw.JWTClaims, error) {
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.JWTClaims{
		UserID:    userID,
		Role:      role,
		SessionID: claims.SessionID,
		JTI:       claims.ID,
	}, nil
}

// JWTServiceAdapter exposes the token service through the middleware's
// validator interface.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
