package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

// AuthService resolves bearer tokens to admin accounts.
type AuthService struct {
	tokens *TokenService
	admins store.AdminStore
}

func NewAuthService(tokens *TokenService, admins store.AdminStore) *AuthService {
	return &AuthService{tokens: tokens, admins: admins}
}

// Authenticate verifies token and loads the admin it names, without the
// password hash. It returns ErrInvalidToken, ErrTokenExpired or
// ErrAdminNotFound for rejected tokens; any other error is a store failure.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	adminID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	admin, err := s.admins.GetAdminByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	return admin, nil
}
