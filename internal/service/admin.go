package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

// MinPasswordLength is the shortest password accepted for a new admin.
const MinPasswordLength = 8

// AdminInput carries the fields needed to create an admin account.
type AdminInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Admin     model.AdminView `json:"admin"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"-"`
}

// AdminService manages admin accounts and password login.
type AdminService struct {
	store  store.AdminStore
	tokens *TokenService
	hasher *PasswordHasher
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAdminService(s store.AdminStore, tokens *TokenService, hasher *PasswordHasher) *AdminService {
	return &AdminService{
		store:  s,
		tokens: tokens,
		hasher: hasher,
		now:    store.Now,
	}
}

// Create validates in, hashes the password and stores a new admin. Role
// defaults to admin.
func (s *AdminService) Create(ctx context.Context, in AdminInput) (*model.Admin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = store.NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = model.RoleAdmin
	}
	if err := validateAdminInput(in); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAdminByEmail(ctx, in.Email); err == nil {
		return nil, ErrAdminExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing admin: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

// Register creates an admin and issues a token for it.
func (s *AdminService) Register(ctx context.Context, in AdminInput) (*AuthResult, error) {
	admin, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.authResult(admin)
}

// Login checks credentials and issues a token. An unknown email and a wrong
// password both return ErrInvalidCredentials.
func (s *AdminService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = store.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "Email and password are required"}
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			s.hasher.Compare(s.dummy(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if !s.hasher.Compare(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	at := s.now()
	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID, at); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	admin.LastLogin = &at
	return s.authResult(admin)
}

// Get returns an admin by ID without its password hash.
func (s *AdminService) Get(ctx context.Context, id string) (*model.Admin, error) {
	admin, err := s.store.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}

// List returns every admin without password hashes.
func (s *AdminService) List(ctx context.Context) ([]model.AdminView, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.AdminView, 0, len(admins))
	for i := range admins {
		views = append(views, admins[i].View())
	}
	return views, nil
}

// HasSuperAdmin reports whether at least one superadmin exists.
func (s *AdminService) HasSuperAdmin(ctx context.Context) (bool, error) {
	n, err := s.store.CountAdminsByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *AdminService) authResult(admin *model.Admin) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Admin: admin.View(), Token: token, ExpiresAt: exp}, nil
}

func (s *AdminService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("carecycle-timing-equalizer")
	})
	return s.dummyHash
}

func validateAdminInput(in AdminInput) error {
	switch {
	case in.Name == "":
		return invalid("name", "is required")
	case in.Email == "":
		return invalid("email", "is required")
	case !strings.Contains(in.Email, "@"):
		return invalid("email", "must be a valid email address")
	case in.Password == "":
		return invalid("password", "is required")
	case len(in.Password) < MinPasswordLength:
		return invalid("password", "must be at least %d characters", MinPasswordLength)
	case len(in.Password) > maxPasswordBytes:
		return invalid("password", "must be at most %d bytes", maxPasswordBytes)
	case !in.Role.Valid():
		return invalid("role", "must be one of admin, superadmin")
	}
	return nil
}
