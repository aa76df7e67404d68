package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carecycle/carecycle/internal/store"
	"github.com/carecycle/carecycle/internal/store/sqlstore"
)

const testSecret = "test-secret-key-for-jwt"

type testEnv struct {
	store     store.Store
	tokens    *TokenService
	admins    *AdminService
	auth      *AuthService
	donations *DonationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tokens := NewTokenService(testSecret, time.Hour)
	return &testEnv{
		store:     s,
		tokens:    tokens,
		admins:    NewAdminService(s, tokens, NewPasswordHasher(bcrypt.MinCost)),
		auth:      NewAuthService(tokens, s),
		donations: NewDonationService(s),
	}
}
